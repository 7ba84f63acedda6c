package models

import (
	"time"

	"gorm.io/datatypes"

	"mutual_aid/internal/volunteer"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// VolunteerProfile is the self-described volunteer record stored as JSONB.
type VolunteerProfile struct {
	Bio             string   `json:"bio,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Availability    string   `json:"availability,omitempty"`
	Location        string   `json:"location,omitempty"`
	Languages       []string `json:"languages,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	HoursPerWeek    *int     `json:"hoursPerWeek,omitempty"`
	ExperienceYears *int     `json:"experienceYears,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
}

// ProfilePatch carries only the profile fields a caller sent.
type ProfilePatch struct {
	Bio             *string   `json:"bio"`
	Skills          *[]string `json:"skills"`
	Availability    *string   `json:"availability"`
	Location        *string   `json:"location"`
	Languages       *[]string `json:"languages"`
	Phone           *string   `json:"phone"`
	HoursPerWeek    *int      `json:"hoursPerWeek"`
	ExperienceYears *int      `json:"experienceYears"`
	Roles           *[]string `json:"roles"`
	Certifications  *[]string `json:"certifications"`
}

// Merge overwrites the fields present in patch.
func (p VolunteerProfile) Merge(patch ProfilePatch) VolunteerProfile {
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Skills != nil {
		p.Skills = *patch.Skills
	}
	if patch.Availability != nil {
		p.Availability = *patch.Availability
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Languages != nil {
		p.Languages = *patch.Languages
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.HoursPerWeek != nil {
		p.HoursPerWeek = patch.HoursPerWeek
	}
	if patch.ExperienceYears != nil {
		p.ExperienceYears = patch.ExperienceYears
	}
	if patch.Roles != nil {
		p.Roles = *patch.Roles
	}
	if patch.Certifications != nil {
		p.Certifications = *patch.Certifications
	}
	return p
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"not null;default:user;index" json:"role"`

	IsVolunteer              bool                                  `gorm:"not null;default:false" json:"is_volunteer"`
	IsVolunteerVerified      bool                                  `gorm:"not null;default:false" json:"is_volunteer_verified"`
	VolunteerStatus          volunteer.Status                      `gorm:"type:text;index" json:"volunteer_status,omitempty"`
	VolunteerProfile         datatypes.JSONType[VolunteerProfile] `gorm:"not null;default:'{}'" json:"volunteer_profile"`
	VolunteerRequestedAt     *time.Time                            `json:"volunteer_requested_at,omitempty"`
	VolunteerVerifiedAt      *time.Time                            `json:"volunteer_verified_at,omitempty"`
	VolunteerRejectedAt      *time.Time                            `json:"volunteer_rejected_at,omitempty"`
	VolunteerHeldAt          *time.Time                            `json:"volunteer_held_at,omitempty"`
	VolunteerRejectionReason string                                `json:"volunteer_rejection_reason,omitempty"`
	VolunteerAdminNotes      string                                `json:"volunteer_admin_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VolunteerRecord extracts the lifecycle fields of u.
func (u *User) VolunteerRecord() volunteer.Record {
	return volunteer.Record{
		IsVolunteer:     u.IsVolunteer,
		Verified:        u.IsVolunteerVerified,
		Status:          u.VolunteerStatus,
		RequestedAt:     u.VolunteerRequestedAt,
		VerifiedAt:      u.VolunteerVerifiedAt,
		RejectedAt:      u.VolunteerRejectedAt,
		HeldAt:          u.VolunteerHeldAt,
		RejectionReason: u.VolunteerRejectionReason,
		AdminNotes:      u.VolunteerAdminNotes,
	}
}

// SetVolunteerRecord writes r back onto u.
func (u *User) SetVolunteerRecord(r volunteer.Record) {
	u.IsVolunteer = r.IsVolunteer
	u.IsVolunteerVerified = r.Verified
	u.VolunteerStatus = r.Status
	u.VolunteerRequestedAt = r.RequestedAt
	u.VolunteerVerifiedAt = r.VerifiedAt
	u.VolunteerRejectedAt = r.RejectedAt
	u.VolunteerHeldAt = r.HeldAt
	u.VolunteerRejectionReason = r.RejectionReason
	u.VolunteerAdminNotes = r.AdminNotes
}

// VolunteerColumns maps r onto user columns for an Updates call.
func VolunteerColumns(r volunteer.Record) map[string]interface{} {
	return map[string]interface{}{
		"is_volunteer":               r.IsVolunteer,
		"is_volunteer_verified":      r.Verified,
		"volunteer_status":           r.Status,
		"volunteer_requested_at":     r.RequestedAt,
		"volunteer_verified_at":      r.VerifiedAt,
		"volunteer_rejected_at":      r.RejectedAt,
		"volunteer_held_at":          r.HeldAt,
		"volunteer_rejection_reason": r.RejectionReason,
		"volunteer_admin_notes":      r.AdminNotes,
	}
}

// PublicUser is the slice of a user shown next to content they own.
type PublicUser struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

func (PublicUser) TableName() string { return "users" }
