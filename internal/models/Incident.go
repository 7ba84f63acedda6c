package models

import (
	"time"

	"gorm.io/gorm"
)

var (
	IncidentCategories = []string{"safety", "traffic", "infrastructure", "environment", "crime", "medical", "other"}
	IncidentSeverities = []string{"low", "medium", "high", "critical"}
	IncidentStatuses   = []string{"reported", "investigating", "resolved", "closed"}
)

// Incident is a community safety report. ReporterID is nil for anonymous reports.
type Incident struct {
	gorm.Model

	Title           string     `gorm:"not null" json:"title"`
	Description     string     `gorm:"not null" json:"description"`
	Category        string     `gorm:"not null;index" json:"category"`
	Severity        string     `gorm:"not null;index" json:"severity"`
	Location        string     `gorm:"not null" json:"location"`
	Status          string     `gorm:"not null;default:reported;index" json:"status"`
	ReporterID      *uint      `gorm:"index" json:"reporter_id"`
	ContactInfo     string     `json:"contact_info,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
	ResolvedBy      *uint      `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`

	// Point geometry as WKB; the API speaks GeoJSON.
	Geometry []byte `gorm:"type:bytea" json:"-"`

	Reporter *PublicUser      `gorm:"foreignKey:ReporterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"reporter,omitempty"`
	Updates  []IncidentUpdate `gorm:"foreignKey:IncidentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"updates,omitempty"`
}

// IncidentUpdate is a follow-up note posted by the incident reporter.
type IncidentUpdate struct {
	gorm.Model

	IncidentID   uint   `gorm:"not null;index" json:"incident_id"`
	ReporterID   uint   `gorm:"not null;index" json:"reporter_id"`
	UpdateText   string `gorm:"not null" json:"update_text"`
	StatusChange string `json:"status_change,omitempty"`

	Reporter *PublicUser `gorm:"foreignKey:ReporterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"reporter,omitempty"`
	Incident *Incident   `gorm:"foreignKey:IncidentID" json:"incident,omitempty"`
}
