package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mutual_aid/internal/models"
)

const defaultHistoryLimit = 100

// History appends and reads audit entries. When disabled, writes are no-ops
// returning id 0 and reads return nothing.
type History struct {
	db      *gorm.DB
	enabled bool
}

func NewHistory(db *gorm.DB, enabled bool) *History {
	return &History{db: db, enabled: enabled}
}

func (h *History) Enabled() bool { return h.enabled }

// Append records one entry for userID.
func (h *History) Append(ctx context.Context, userID uint, action string, meta models.LogMeta) (uint, error) {
	return h.appendTx(h.db.WithContext(ctx), userID, action, meta)
}

// appendTx records an entry inside an existing transaction.
func (h *History) appendTx(tx *gorm.DB, userID uint, action string, meta models.LogMeta) (uint, error) {
	if !h.enabled {
		return 0, nil
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return 0, fmt.Errorf("%w: action is required", ErrInvalidValue)
	}
	entry := models.HistoryLog{
		UserID: userID,
		Action: action,
		Meta:   datatypes.NewJSONType(meta),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("append history: %w", err)
	}
	return entry.ID, nil
}

// List returns a user's entries, newest first.
func (h *History) List(ctx context.Context, userID uint, limit int) ([]models.HistoryLog, error) {
	if !h.enabled {
		return []models.HistoryLog{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var logs []models.HistoryLog
	err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// Stats counts a user's entries per action.
func (h *History) Stats(ctx context.Context, userID uint) ([]KeyCount, error) {
	if !h.enabled {
		return []KeyCount{}, nil
	}
	var out []KeyCount
	err := h.db.WithContext(ctx).Model(&models.HistoryLog{}).
		Select("action AS key, count(*) AS count").
		Where("user_id = ?", userID).
		Group("action").
		Order("count DESC, action ASC").
		Scan(&out).Error
	return out, err
}

// Latest returns the most recent entries across all users, with their authors.
func (h *History) Latest(ctx context.Context, limit int) ([]models.HistoryLog, error) {
	if !h.enabled {
		return []models.HistoryLog{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var logs []models.HistoryLog
	err := h.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
