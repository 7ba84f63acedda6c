package store

import (
	"context"
	"time"

	"mutual_aid/internal/models"
)

type UserStats struct {
	Total              int64 `json:"total_users"`
	Admins             int64 `json:"admin_users"`
	Volunteers         int64 `json:"volunteer_users"`
	VerifiedVolunteers int64 `json:"verified_volunteers"`
	PendingVolunteers  int64 `json:"pending_volunteers"`
}

type PostStats struct {
	Total    int64 `json:"total_posts"`
	Active   int64 `json:"active_posts"`
	Requests int64 `json:"requests"`
	Offers   int64 `json:"offers"`
}

type DonationStats struct {
	Total     int64 `json:"total_donations"`
	Available int64 `json:"available_donations"`
	Claimed   int64 `json:"claimed_donations"`
}

type EventStats struct {
	Total    int64 `json:"total_events"`
	Upcoming int64 `json:"upcoming_events"`
	Past     int64 `json:"past_events"`
}

// AdminStats is the dashboard summary shown to admins.
type AdminStats struct {
	Users     UserStats     `json:"users"`
	Posts     PostStats     `json:"posts"`
	Donations DonationStats `json:"donations"`
	Events    EventStats    `json:"events"`
	Incidents struct {
		Total int64 `json:"total_incidents"`
		Open  int64 `json:"open_incidents"`
	} `json:"incidents"`
	Learning struct {
		Total int64 `json:"total_sessions"`
	} `json:"learning"`
	Emergency struct {
		Total int64 `json:"total_contacts"`
	} `json:"emergency"`
}

// Stats gathers the admin dashboard counters.
func (s *Store) Stats(ctx context.Context) (*AdminStats, error) {
	db := s.db.WithContext(ctx)
	var out AdminStats

	err := db.Model(&models.User{}).Select(`count(*) AS total,
		count(CASE WHEN role = 'admin' THEN 1 END) AS admins,
		count(CASE WHEN is_volunteer THEN 1 END) AS volunteers,
		count(CASE WHEN is_volunteer_verified THEN 1 END) AS verified_volunteers,
		count(CASE WHEN volunteer_status = 'pending' THEN 1 END) AS pending_volunteers`).
		Scan(&out.Users).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Post{}).Select(`count(*) AS total,
		count(CASE WHEN status = 'active' THEN 1 END) AS active,
		count(CASE WHEN type = 'request' THEN 1 END) AS requests,
		count(CASE WHEN type = 'offer' THEN 1 END) AS offers`).
		Scan(&out.Posts).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Donation{}).Select(`count(*) AS total,
		count(CASE WHEN status = 'available' THEN 1 END) AS available,
		count(CASE WHEN status = 'claimed' THEN 1 END) AS claimed`).
		Scan(&out.Donations).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = db.Model(&models.Event{}).Select(`count(*) AS total,
		count(CASE WHEN start_at >= ? THEN 1 END) AS upcoming,
		count(CASE WHEN start_at < ? THEN 1 END) AS past`, now, now).
		Scan(&out.Events).Error
	if err != nil {
		return nil, err
	}

	if err := db.Model(&models.Incident{}).Count(&out.Incidents.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Incident{}).Where("status IN ?", []string{"reported", "investigating"}).Count(&out.Incidents.Open).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.LearningSession{}).Count(&out.Learning.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.EmergencyContact{}).Count(&out.Emergency.Total).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
