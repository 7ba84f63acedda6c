package models

import "time"

type EmergencyContact struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name" yaml:"name" validate:"required"`
	Category    string    `gorm:"not null;index" json:"category" yaml:"category" validate:"required"`
	MainArea    string    `gorm:"not null" json:"main_area" yaml:"main_area" validate:"required"`
	City        string    `gorm:"not null" json:"city" yaml:"city" validate:"required"`
	FullAddress string    `json:"full_address,omitempty" yaml:"full_address"`
	Phone       string    `json:"phone,omitempty" yaml:"phone"`
	Fax         string    `json:"fax,omitempty" yaml:"fax"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"-"`
}
