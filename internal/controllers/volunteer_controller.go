package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/metrics"
	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
	"mutual_aid/internal/volunteer"
)

type VolunteerRegistry interface {
	ApplyVolunteerAction(ctx context.Context, actorID, targetID uint, action volunteer.Action, opts volunteer.Options) (*models.User, error)
	UpsertVolunteerProfile(ctx context.Context, userID uint, patch models.ProfilePatch) (*models.User, error)
	ListVolunteers(ctx context.Context, q store.VolunteerQuery) ([]models.User, error)
	VolunteerQueue(ctx context.Context) ([]models.User, error)
	ListByVolunteerStatus(ctx context.Context, status volunteer.Status) ([]models.User, error)
}

type VolunteerController struct {
	Users VolunteerRegistry
}

// VolunteerResponse is the directory view of a volunteer; it omits the
// email address and admin-only fields.
type VolunteerResponse struct {
	ID          uint                    `json:"id"`
	Name        string                  `json:"name"`
	Username    string                  `json:"username"`
	Verified    bool                    `json:"is_volunteer_verified"`
	Status      string                  `json:"volunteer_status"`
	Profile     models.VolunteerProfile `json:"volunteer_profile"`
	RequestedAt *time.Time              `json:"volunteer_requested_at,omitempty"`
	VerifiedAt  *time.Time              `json:"volunteer_verified_at,omitempty"`
}

func toVolunteerResponses(users []models.User) []VolunteerResponse {
	out := make([]VolunteerResponse, 0, len(users))
	for _, u := range users {
		out = append(out, VolunteerResponse{
			ID:          u.ID,
			Name:        u.Name,
			Username:    u.Username,
			Verified:    u.IsVolunteerVerified,
			Status:      string(u.VolunteerStatus),
			Profile:     u.VolunteerProfile.Data(),
			RequestedAt: u.VolunteerRequestedAt,
			VerifiedAt:  u.VolunteerVerifiedAt,
		})
	}
	return out
}

// parseSkills accepts a JSON array or a comma separated list.
func parseSkills(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var list []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &list) == nil {
		return list
	}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}

// List is the public directory: verified, location, skills and q filters.
func (vc *VolunteerController) List(c *gin.Context) {
	q := store.VolunteerQuery{
		Location: c.Query("location"),
		Skills:   parseSkills(c.Query("skills")),
		Q:        c.Query("q"),
	}
	switch c.Query("verified") {
	case "true":
		v := true
		q.Verified = &v
	case "false":
		v := false
		q.Verified = &v
	}
	users, err := vc.Users.ListVolunteers(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volunteers": toVolunteerResponses(users)})
}

func (vc *VolunteerController) ByStatus(c *gin.Context) {
	status, ok := volunteer.ParseStatus(c.Param("status"))
	if !ok || status == volunteer.StatusNone {
		badRequest(c, "Invalid status. Must be one of: pending, approved, rejected, hold, revoked")
		return
	}
	users, err := vc.Users.ListByVolunteerStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volunteers": toVolunteerResponses(users)})
}

// AdminByStatus is the admin view; without a status it lists every volunteer.
func (vc *VolunteerController) AdminByStatus(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		users []models.User
		err   error
	)
	if raw := c.Param("status"); raw != "" {
		status, ok := volunteer.ParseStatus(raw)
		if !ok || status == volunteer.StatusNone {
			badRequest(c, "Invalid status. Must be one of: pending, approved, rejected, hold, revoked")
			return
		}
		users, err = vc.Users.ListByVolunteerStatus(ctx, status)
	} else {
		users, err = vc.Users.ListVolunteers(ctx, store.VolunteerQuery{})
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volunteers": nonNilUsers(users)})
}

// Request submits (or resubmits) the caller's application, merging any
// profile fields sent alongside.
func (vc *VolunteerController) Request(c *gin.Context) {
	var body struct {
		Profile *models.ProfilePatch `json:"profile"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "Invalid volunteer profile")
			return
		}
	}

	me := currentUser(c)
	var (
		user *models.User
		err  error
	)
	if body.Profile != nil {
		user, err = vc.Users.UpsertVolunteerProfile(c.Request.Context(), me.ID, *body.Profile)
	} else {
		user, err = vc.Users.ApplyVolunteerAction(c.Request.Context(), me.ID, me.ID, volunteer.ActionRequest, volunteer.Options{})
	}
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordVolunteerTransition(string(volunteer.ActionRequest))
	c.JSON(http.StatusOK, gin.H{"message": "Volunteer request submitted", "user": user})
}

func (vc *VolunteerController) Queue(c *gin.Context) {
	users, err := vc.Users.VolunteerQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": nonNilUsers(users)})
}

// AdminRequests lists the queue under the admin dashboard's key.
func (vc *VolunteerController) AdminRequests(c *gin.Context) {
	users, err := vc.Users.VolunteerQueue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": nonNilUsers(users)})
}

type decisionInput struct {
	UserID     flexID `json:"userId"`
	Reason     string `json:"reason"`
	AdminNotes string `json:"adminNotes"`
}

// Decide returns the admin handler for one lifecycle action. The target user
// comes from the :userId path parameter when present, else from the body.
func (vc *VolunteerController) Decide(action volunteer.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input decisionInput
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				badRequest(c, "Invalid request body")
				return
			}
		}
		target := uint(input.UserID)
		if c.Param("userId") != "" {
			id, ok := parseIDParam(c, "userId", "user")
			if !ok {
				return
			}
			target = id
		}
		if target == 0 {
			badRequest(c, "userId is required")
			return
		}

		opts := volunteer.Options{Reason: strings.TrimSpace(input.Reason), Notes: strings.TrimSpace(input.AdminNotes)}
		user, err := vc.Users.ApplyVolunteerAction(c.Request.Context(), currentUser(c).ID, target, action, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		metrics.RecordVolunteerTransition(string(action))
		c.JSON(http.StatusOK, gin.H{"message": "Volunteer " + pastTense(action), "user": user})
	}
}

func pastTense(a volunteer.Action) string {
	switch a {
	case volunteer.ActionHold:
		return "put on hold"
	case volunteer.ActionRequest:
		return "requested"
	}
	return string(a) + "d"
}

func nonNilUsers(users []models.User) []models.User {
	if users == nil {
		return []models.User{}
	}
	return users
}
