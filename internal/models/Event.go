package models

import (
	"time"

	"gorm.io/gorm"
)

var EventStatuses = []string{"scheduled", "completed", "cancelled"}

// Event is a dated community gathering. Listings run in start order.
type Event struct {
	gorm.Model

	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"not null" json:"description"`
	StartAt     time.Time `gorm:"not null;index" json:"start_at"`
	EndAt       time.Time `gorm:"not null" json:"end_at"`
	Location    string    `gorm:"not null" json:"location"`
	Status      string    `gorm:"not null;default:scheduled;index" json:"status"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`

	Owner *PublicUser `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"owner,omitempty"`
}
