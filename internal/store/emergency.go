package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"mutual_aid/internal/models"
)

const emergencyOrder = "category ASC, main_area ASC, id ASC"

// EmergencyStore serves the public emergency-contact directory.
type EmergencyStore struct {
	db *gorm.DB
}

func (s *EmergencyStore) List(ctx context.Context) ([]models.EmergencyContact, error) {
	var out []models.EmergencyContact
	err := s.db.WithContext(ctx).Order(emergencyOrder).Find(&out).Error
	return out, err
}

// ByCategory matches the category case-insensitively.
func (s *EmergencyStore) ByCategory(ctx context.Context, category string) ([]models.EmergencyContact, error) {
	var out []models.EmergencyContact
	err := s.db.WithContext(ctx).
		Where("lower(category) = ?", strings.ToLower(strings.TrimSpace(category))).
		Order(emergencyOrder).
		Find(&out).Error
	return out, err
}

// Search matches q against the area, city and name.
func (s *EmergencyStore) Search(ctx context.Context, q string) ([]models.EmergencyContact, error) {
	like := "%" + escapeLike(strings.TrimSpace(q)) + "%"
	var out []models.EmergencyContact
	err := s.db.WithContext(ctx).
		Where("main_area ILIKE ? OR city ILIKE ? OR name ILIKE ?", like, like, like).
		Order(emergencyOrder).
		Find(&out).Error
	return out, err
}

func (s *EmergencyStore) Create(ctx context.Context, c *models.EmergencyContact) (uint, error) {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return 0, fmt.Errorf("create emergency contact: %w", err)
	}
	return c.ID, nil
}

// Delete reports false when no contact had that id.
func (s *EmergencyStore) Delete(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.EmergencyContact{}, id)
	return res.RowsAffected > 0, res.Error
}

func (s *EmergencyStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.EmergencyContact{}).Count(&n).Error
	return n, err
}

// Upsert inserts the contacts that are not already present, matching on
// name, main area and city. It returns the number inserted.
func (s *EmergencyStore) Upsert(ctx context.Context, contacts []models.EmergencyContact) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range contacts {
			c := contacts[i]
			res := tx.Where(models.EmergencyContact{Name: c.Name, MainArea: c.MainArea, City: c.City}).
				Attrs(c).
				FirstOrCreate(&c)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				inserted++
			}
		}
		return nil
	})
	return inserted, err
}
