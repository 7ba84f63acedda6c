package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mutual_aid/internal/models"
)

const usernameAttempts = 100

// UserStore persists accounts, roles and volunteer applications.
type UserStore struct {
	db      *gorm.DB
	history *History
	now     func() time.Time
}

var (
	usernameInvalid = regexp.MustCompile(`[^a-z0-9._-]+`)
	usernameDashes  = regexp.MustCompile(`-+`)
)

// UsernameBase derives a username stem from the local part of an email.
func UsernameBase(email string) string {
	local := strings.ToLower(strings.TrimSpace(email))
	if i := strings.Index(local, "@"); i >= 0 {
		local = local[:i]
	}
	local = usernameInvalid.ReplaceAllString(local, "-")
	local = usernameDashes.ReplaceAllString(local, "-")
	local = strings.Trim(local, "-_.")
	if local == "" {
		return "user"
	}
	return local
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create registers a user with a unique username derived from the email.
func (s *UserStore) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	email = NormalizeEmail(email)
	taken, err := s.emailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	username, err := s.uniqueUsername(ctx, UsernameBase(email))
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     strings.TrimSpace(name),
		Username: username,
		Email:    email,
		Password: passwordHash,
		Role:     models.RoleUser,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		_, err := s.history.appendTx(tx, user.ID, "user_registered", models.LogMeta{})
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			if taken, _ := s.emailExists(ctx, email); taken {
				return nil, ErrEmailTaken
			}
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) emailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

// uniqueUsername tries base, base1, base2... and falls back to a random suffix.
func (s *UserStore) uniqueUsername(ctx context.Context, base string) (string, error) {
	for i := 0; i < usernameAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s%d", base, i)
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8], nil
}

// FindByEmail looks a user up by normalised email.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdatePassword replaces a stored credential.
func (s *UserStore) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every user, newest first.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error
	return users, err
}

// ChangeRole sets a user's role, refusing to demote the last admin.
func (s *UserStore) ChangeRole(ctx context.Context, actorID, targetID uint, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrInvalidRole
	}
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, targetID, &user); err != nil {
			return err
		}
		if user.Role == models.RoleAdmin && role != models.RoleAdmin {
			if err := ensureAnotherAdmin(tx); err != nil {
				return err
			}
		}
		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return err
		}
		user.Role = role
		if actorID == 0 {
			return nil
		}
		_, err := s.history.appendTx(tx, actorID, "user_role_changed", models.LogMeta{
			TargetUserID: models.UintPtr(targetID),
			Type:         role,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// PromoteByEmail grants the admin role to the account registered under email.
func (s *UserStore) PromoteByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.ChangeRole(ctx, 0, user.ID, models.RoleAdmin)
}

// Delete removes a user, refusing to delete the last admin.
func (s *UserStore) Delete(ctx context.Context, actorID, targetID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockUser(tx, targetID, &user); err != nil {
			return err
		}
		if user.Role == models.RoleAdmin {
			if err := ensureAnotherAdmin(tx); err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.User{}, targetID).Error; err != nil {
			return err
		}
		if actorID == 0 || actorID == targetID {
			return nil
		}
		_, err := s.history.appendTx(tx, actorID, "user_deleted", models.LogMeta{
			TargetUserID: models.UintPtr(targetID),
			Title:        user.Email,
		})
		return err
	})
}

func lockUser(tx *gorm.DB, id uint, user *models.User) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(user, id).Error; err != nil {
		return notFound(err)
	}
	return nil
}

// ensureAnotherAdmin locks the admin rows and fails when only one remains.
func ensureAnotherAdmin(tx *gorm.DB) error {
	var ids []uint
	err := tx.Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", models.RoleAdmin).
		Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	if len(ids) <= 1 {
		return ErrLastAdmin
	}
	return nil
}
