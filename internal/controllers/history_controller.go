package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

type HistoryController struct {
	History HistoryStore
}

// List returns the caller's own entries, newest first.
func (hc *HistoryController) List(c *gin.Context) {
	logs, err := hc.History.List(c.Request.Context(), currentUser(c).ID, queryLimit(c, defaultListLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []models.HistoryLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Record appends a client-reported action. The id is null while history
// logging is disabled.
func (hc *HistoryController) Record(c *gin.Context) {
	var body struct {
		Action string         `json:"action" binding:"required"`
		Meta   models.LogMeta `json:"meta"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || blank(body.Action) {
		badRequest(c, "Action is required")
		return
	}
	id, err := hc.History.Append(c.Request.Context(), currentUser(c).ID, body.Action, body.Meta)
	if err != nil {
		respondError(c, err)
		return
	}
	var out *uint
	if id != 0 {
		out = &id
	}
	c.JSON(http.StatusCreated, gin.H{"id": out})
}

func (hc *HistoryController) Stats(c *gin.Context) {
	stats, err := hc.History.Stats(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if stats == nil {
		stats = []store.KeyCount{}
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Latest is the admin feed across all users.
func (hc *HistoryController) Latest(c *gin.Context) {
	logs, err := hc.History.Latest(c.Request.Context(), queryLimit(c, defaultListLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []models.HistoryLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
