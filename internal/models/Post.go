package models

import "gorm.io/gorm"

var (
	PostTypes    = []string{"request", "offer"}
	PostStatuses = []string{"active", "completed", "cancelled"}
)

// Post is a help request or offer.
type Post struct {
	gorm.Model

	Type        string `gorm:"not null;index" json:"type"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Category    string `gorm:"not null;index" json:"category"`
	Priority    string `gorm:"not null" json:"priority"`
	Location    string `gorm:"not null" json:"location"`
	ContactInfo string `gorm:"not null" json:"contact_info"`
	OwnerID     *uint  `gorm:"index" json:"owner_id"`
	Status      string `gorm:"not null;default:active;index" json:"status"`

	Owner *PublicUser `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"owner,omitempty"`
}
