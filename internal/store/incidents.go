package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mutual_aid/internal/models"
)

// IncidentStore adds follow-up updates and aggregate stats to the incident table.
type IncidentStore struct {
	*Entity[models.Incident]
}

// AddUpdate appends a follow-up note to an incident. Only the reporter may
// post updates; a non-empty statusChange is applied to the incident as well.
func (s *IncidentStore) AddUpdate(ctx context.Context, incidentID, reporterID uint, text, statusChange string) (*models.IncidentUpdate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: update text is required", ErrInvalidValue)
	}
	if statusChange != "" && !contains(models.IncidentStatuses, statusChange) {
		return nil, ErrInvalidStatus
	}

	update := models.IncidentUpdate{
		IncidentID:   incidentID,
		ReporterID:   reporterID,
		UpdateText:   text,
		StatusChange: statusChange,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var incident models.Incident
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&incident, incidentID).Error; err != nil {
			return notFound(err)
		}
		if incident.ReporterID == nil || *incident.ReporterID != reporterID {
			return ErrNotReporter
		}
		if err := tx.Create(&update).Error; err != nil {
			return err
		}
		if statusChange == "" {
			return nil
		}
		cols := map[string]interface{}{"status": statusChange}
		for k, v := range s.def.onStatus(statusChange, reporterID, s.now()) {
			cols[k] = v
		}
		return tx.Model(&incident).Updates(cols).Error
	})
	if err != nil {
		return nil, err
	}
	s.audit(ctx, reporterID, "incident_update_added", models.LogMeta{
		EntityID: models.UintPtr(incidentID),
		Status:   statusChange,
	})
	return &update, nil
}

// ListUpdates returns an incident's updates, oldest first.
func (s *IncidentStore) ListUpdates(ctx context.Context, incidentID uint) ([]models.IncidentUpdate, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Incident{}).Where("id = ?", incidentID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	var updates []models.IncidentUpdate
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Where("incident_id = ?", incidentID).
		Order("created_at ASC, id ASC").
		Find(&updates).Error
	return updates, err
}

// GetUpdate loads one update.
func (s *IncidentStore) GetUpdate(ctx context.Context, updateID uint) (*models.IncidentUpdate, error) {
	var update models.IncidentUpdate
	if err := s.db.WithContext(ctx).Preload("Reporter").First(&update, updateID).Error; err != nil {
		return nil, notFound(err)
	}
	return &update, nil
}

// EditUpdate rewrites the text of an update authored by reporterID.
func (s *IncidentStore) EditUpdate(ctx context.Context, updateID, reporterID uint, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("%w: update text is required", ErrInvalidValue)
	}
	res := s.db.WithContext(ctx).Model(&models.IncidentUpdate{}).
		Where("id = ? AND reporter_id = ?", updateID, reporterID).
		Update("update_text", text)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		s.audit(ctx, reporterID, "incident_update_edited", models.LogMeta{EntityID: models.UintPtr(updateID)})
	}
	return res.RowsAffected > 0, nil
}

// DeleteUpdate removes an update authored by reporterID.
func (s *IncidentStore) DeleteUpdate(ctx context.Context, updateID, reporterID uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND reporter_id = ?", updateID, reporterID).
		Delete(&models.IncidentUpdate{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		s.audit(ctx, reporterID, "incident_update_deleted", models.LogMeta{EntityID: models.UintPtr(updateID)})
	}
	return res.RowsAffected > 0, nil
}

// UpdatesByUser returns the latest updates a user posted, with their incidents.
func (s *IncidentStore) UpdatesByUser(ctx context.Context, userID uint, limit int) ([]models.IncidentUpdate, error) {
	if limit <= 0 {
		limit = 20
	}
	var updates []models.IncidentUpdate
	err := s.db.WithContext(ctx).
		Preload("Incident").
		Where("reporter_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&updates).Error
	return updates, err
}

// KeyCount is one bucket of a grouped count.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type IncidentStats struct {
	Total      int64      `json:"total"`
	Open       int64      `json:"open"`
	ByStatus   []KeyCount `json:"by_status"`
	BySeverity []KeyCount `json:"by_severity"`
	ByCategory []KeyCount `json:"by_category"`
}

// Stats aggregates incidents by status, severity and category.
func (s *IncidentStore) Stats(ctx context.Context) (*IncidentStats, error) {
	db := s.db.WithContext(ctx)
	var stats IncidentStats
	if err := db.Model(&models.Incident{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Incident{}).Where("status IN ?", []string{"reported", "investigating"}).Count(&stats.Open).Error; err != nil {
		return nil, err
	}
	for col, dst := range map[string]*[]KeyCount{
		"status":   &stats.ByStatus,
		"severity": &stats.BySeverity,
		"category": &stats.ByCategory,
	} {
		err := db.Model(&models.Incident{}).
			Select(col + " AS key, count(*) AS count").
			Group(col).
			Order("count DESC").
			Scan(dst).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return &stats, nil
}
