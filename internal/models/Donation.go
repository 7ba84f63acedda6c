package models

import "gorm.io/gorm"

var (
	DonationKinds    = []string{"clothes", "food", "books", "other"}
	DonationStatuses = []string{"available", "claimed", "donated"}
)

type Donation struct {
	gorm.Model

	Kind        string `gorm:"not null;index" json:"kind"`
	Description string `gorm:"not null" json:"description"`
	Location    string `gorm:"not null" json:"location"`
	Contact     string `gorm:"not null" json:"contact"`
	Status      string `gorm:"not null;default:available;index" json:"status"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`

	Owner *PublicUser `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"owner,omitempty"`
}
