// Package controllers holds the gin handlers for the /api surface. Handlers
// depend on small store interfaces declared here so they can be exercised
// with in-memory fakes.
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mutual_aid/internal/apperr"
	"mutual_aid/internal/auth"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
	"mutual_aid/internal/volunteer"
)

// EntityStore is the uniform create/list/update/delete contract of the
// content tables.
type EntityStore[T any] interface {
	Create(ctx context.Context, rec *T, actorID *uint) (uint, error)
	List(ctx context.Context, q store.ListQuery) ([]T, error)
	Get(ctx context.Context, id uint) (*T, error)
	UpdateStatus(ctx context.Context, id uint, status string, actorID uint) (bool, error)
	UpdateFields(ctx context.Context, id, ownerID uint, patch store.Patch) (bool, error)
	UpdateFieldsAny(ctx context.Context, id, actorID uint, patch store.Patch) (bool, error)
	Delete(ctx context.Context, id, ownerID uint) (bool, error)
	DeleteAny(ctx context.Context, id, actorID uint) (bool, error)
}

// UserAccounts covers account creation and lookup.
type UserAccounts interface {
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

// HistoryStore reads and writes audit entries.
type HistoryStore interface {
	Append(ctx context.Context, userID uint, action string, meta models.LogMeta) (uint, error)
	List(ctx context.Context, userID uint, limit int) ([]models.HistoryLog, error)
	Stats(ctx context.Context, userID uint) ([]store.KeyCount, error)
	Latest(ctx context.Context, limit int) ([]models.HistoryLog, error)
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// respondError maps err onto a status code and a {"message"} body. Internal
// failures are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, volunteer.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, volunteer.ErrNotesRequired),
		errors.Is(err, volunteer.ErrUnknownAction),
		errors.Is(err, auth.ErrEmptyPassword):
		status = http.StatusBadRequest
	default:
		if kind := apperr.KindOf(err); kind != apperr.KindInternal {
			status = kind.HTTPStatus()
		}
	}

	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		c.JSON(status, gin.H{"message": "Server error"})
		return
	}
	c.JSON(status, gin.H{"message": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// currentUser returns the caller. Routes behind RequireAuth always have one.
func currentUser(c *gin.Context) middleware.Identity {
	ident, _ := middleware.CurrentUser(c)
	return ident
}

// parseIDParam reads a positive id from the named path parameter, answering
// 400 when it is malformed.
func parseIDParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := store.ParseID(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+label+" ID")
		return 0, false
	}
	return id, true
}

// queryLimit reads ?limit=, clamped to [1, maxListLimit].
func queryLimit(c *gin.Context, def int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

// blank reports whether any of the values is empty after trimming.
func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// flexID accepts an id sent either as a JSON number or a numeric string.
type flexID uint

func (f *flexID) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	id, err := store.ParseID(raw)
	if err != nil {
		return err
	}
	*f = flexID(id)
	return nil
}

// optionalJSON reports whether a raw JSON value was present and non-null.
func optionalJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}
