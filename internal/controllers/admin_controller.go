package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

type UserAdmin interface {
	List(ctx context.Context) ([]models.User, error)
	ChangeRole(ctx context.Context, actorID, targetID uint, role string) (*models.User, error)
	Delete(ctx context.Context, actorID, targetID uint) error
}

type StatsSource interface {
	Stats(ctx context.Context) (*store.AdminStats, error)
}

type AdminController struct {
	Users UserAdmin
	Stats StatsSource
}

func (ac *AdminController) Dashboard(c *gin.Context) {
	stats, err := ac.Stats.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ac *AdminController) ListUsers(c *gin.Context) {
	users, err := ac.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": nonNilUsers(users)})
}

func (ac *AdminController) ChangeRole(c *gin.Context) {
	target, ok := parseIDParam(c, "userId", "user")
	if !ok {
		return
	}
	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Role is required")
		return
	}
	user, err := ac.Users.ChangeRole(c.Request.Context(), currentUser(c).ID, target, strings.ToLower(strings.TrimSpace(body.Role)))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully", "user": user})
}

func (ac *AdminController) DeleteUser(c *gin.Context) {
	target, ok := parseIDParam(c, "userId", "user")
	if !ok {
		return
	}
	if err := ac.Users.Delete(c.Request.Context(), currentUser(c).ID, target); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// Health reports whether the database answers a ping.
func Health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
