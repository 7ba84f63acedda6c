package models

import "gorm.io/gorm"

var (
	LearningLevels   = []string{"beginner", "intermediate", "advanced", "all"}
	LearningTypes    = []string{"teach", "learn", "exchange"}
	LearningStatuses = []string{"active", "completed", "cancelled"}
)

type LearningSession struct {
	gorm.Model

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Subject     string `gorm:"not null;index" json:"subject"`
	Level       string `gorm:"not null" json:"level"`
	SessionType string `gorm:"not null;index" json:"session_type"`
	Location    string `gorm:"not null" json:"location"`
	ContactInfo string `gorm:"not null" json:"contact_info"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`
	Status      string `gorm:"not null;default:active;index" json:"status"`

	Owner *PublicUser `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"owner,omitempty"`
}
