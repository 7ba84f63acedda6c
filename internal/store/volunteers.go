package store

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mutual_aid/internal/models"
	"mutual_aid/internal/volunteer"
)

// VolunteerQuery filters the public volunteer directory.
type VolunteerQuery struct {
	Verified *bool
	Location string
	Skills   []string
	Q        string
}

// ApplyVolunteerAction runs one lifecycle transition for targetID and records
// it in history, all in one transaction.
func (s *UserStore) ApplyVolunteerAction(ctx context.Context, actorID, targetID uint, action volunteer.Action, opts volunteer.Options) (*models.User, error) {
	return s.transition(ctx, actorID, targetID, action, opts, nil)
}

// UpsertVolunteerProfile merges patch into the user's profile and (re)submits
// their application.
func (s *UserStore) UpsertVolunteerProfile(ctx context.Context, userID uint, patch models.ProfilePatch) (*models.User, error) {
	return s.transition(ctx, userID, userID, volunteer.ActionRequest, volunteer.Options{}, &patch)
}

func (s *UserStore) transition(ctx context.Context, actorID, targetID uint, action volunteer.Action, opts volunteer.Options, patch *models.ProfilePatch) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, targetID, &user); err != nil {
			return err
		}
		rec := user.VolunteerRecord()
		if err := volunteer.Apply(&rec, action, opts, s.now()); err != nil {
			return err
		}
		cols := models.VolunteerColumns(rec)
		if patch != nil {
			profile := user.VolunteerProfile.Data().Merge(*patch)
			user.VolunteerProfile = datatypes.NewJSONType(profile)
			cols["volunteer_profile"] = user.VolunteerProfile
		}
		if err := tx.Model(&user).Updates(cols).Error; err != nil {
			return err
		}
		user.SetVolunteerRecord(rec)

		meta := models.LogMeta{TargetUserID: models.UintPtr(targetID), AdminNotes: opts.Notes}
		if action == volunteer.ActionReject || action == volunteer.ActionRevoke {
			meta.Reason = rec.RejectionReason
		}
		_, err := s.history.appendTx(tx, actorID, action.LogAction(), meta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListVolunteers returns volunteers matching q, verified first.
func (s *UserStore) ListVolunteers(ctx context.Context, q VolunteerQuery) ([]models.User, error) {
	tx := s.db.WithContext(ctx).Model(&models.User{}).Where("is_volunteer = ?", true)
	if q.Verified != nil {
		tx = tx.Where("is_volunteer_verified = ?", *q.Verified)
	}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		tx = tx.Where("volunteer_profile->>'location' ILIKE ?", "%"+escapeLike(loc)+"%")
	}
	if skills := lowerAll(q.Skills); len(skills) > 0 {
		tx = tx.Where(`EXISTS (SELECT 1 FROM jsonb_array_elements_text(COALESCE(volunteer_profile->'skills', '[]'::jsonb)) AS skill WHERE lower(skill) = ANY(?))`, pq.Array(skills))
	}
	if text := strings.TrimSpace(q.Q); text != "" {
		like := "%" + escapeLike(text) + "%"
		tx = tx.Where(`(name ILIKE ? OR username ILIKE ? OR volunteer_profile->>'bio' ILIKE ? OR volunteer_profile->>'skills' ILIKE ? OR volunteer_profile->>'roles' ILIKE ?)`,
			like, like, like, like, like)
	}
	var users []models.User
	err := tx.Order("is_volunteer_verified DESC, created_at DESC").Find(&users).Error
	return users, err
}

// VolunteerQueue returns applications awaiting an admin decision.
func (s *UserStore) VolunteerQueue(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("volunteer_status IN ?", []volunteer.Status{volunteer.StatusPending, volunteer.StatusHold}).
		Order("volunteer_requested_at DESC NULLS LAST").
		Find(&users).Error
	return users, err
}

// ListByVolunteerStatus returns users whose application is in status.
func (s *UserStore) ListByVolunteerStatus(ctx context.Context, status volunteer.Status) ([]models.User, error) {
	if status == volunteer.StatusNone {
		return nil, ErrInvalidStatus
	}
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("volunteer_status = ?", status).
		Order("volunteer_requested_at DESC NULLS LAST, id DESC").
		Find(&users).Error
	return users, err
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
