package models

import (
	"time"

	"gorm.io/datatypes"
)

// LogMeta holds the optional details attached to a history entry.
type LogMeta struct {
	TargetUserID  *uint    `json:"targetUserId,omitempty"`
	EntityID      *uint    `json:"entityId,omitempty"`
	Title         string   `json:"title,omitempty"`
	Type          string   `json:"type,omitempty"`
	Category      string   `json:"category,omitempty"`
	Status        string   `json:"status,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	AdminNotes    string   `json:"adminNotes,omitempty"`
	ChangedFields []string `json:"changedFields,omitempty"`
	RecipientID   *uint    `json:"recipientId,omitempty"`
}

// HistoryLog is an append-only audit entry.
type HistoryLog struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	UserID    uint                        `gorm:"not null;index" json:"user_id"`
	Action    string                      `gorm:"not null;index" json:"action"`
	Meta      datatypes.JSONType[LogMeta] `gorm:"not null;default:'{}'" json:"meta"`
	CreatedAt time.Time                   `gorm:"index" json:"created_at"`

	User *PublicUser `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"user,omitempty"`
}

// UintPtr is a small helper for optional id fields.
func UintPtr(v uint) *uint { return &v }
