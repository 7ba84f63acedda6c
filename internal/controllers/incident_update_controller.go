package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

func (ic *IncidentController) AddUpdate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "incident")
	if !ok {
		return
	}
	var body struct {
		UpdateText   string `json:"updateText" binding:"required"`
		StatusChange string `json:"statusChange"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || blank(body.UpdateText) {
		badRequest(c, "Update text is required")
		return
	}

	update, err := ic.Incidents.AddUpdate(c.Request.Context(), id, currentUser(c).ID, body.UpdateText, body.StatusChange)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ic.res.notFound(c)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Update added successfully", "updateId": update.ID})
}

func (ic *IncidentController) ListUpdates(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "incident")
	if !ok {
		return
	}
	updates, err := ic.Incidents.ListUpdates(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ic.res.notFound(c)
			return
		}
		respondError(c, err)
		return
	}
	if updates == nil {
		updates = []models.IncidentUpdate{}
	}
	c.JSON(http.StatusOK, gin.H{"updates": updates})
}

// ownUpdate loads the update named by :updateId and checks the caller wrote it.
func (ic *IncidentController) ownUpdate(c *gin.Context) (uint, bool) {
	id, ok := parseIDParam(c, "updateId", "update")
	if !ok {
		return 0, false
	}
	update, err := ic.Incidents.GetUpdate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Update not found"})
			return 0, false
		}
		respondError(c, err)
		return 0, false
	}
	if update.ReporterID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only modify your own updates"})
		return 0, false
	}
	return id, true
}

func (ic *IncidentController) EditUpdate(c *gin.Context) {
	var body struct {
		UpdateText string `json:"updateText" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || blank(body.UpdateText) {
		badRequest(c, "Update text is required")
		return
	}
	id, ok := ic.ownUpdate(c)
	if !ok {
		return
	}
	edited, err := ic.Incidents.EditUpdate(c.Request.Context(), id, currentUser(c).ID, body.UpdateText)
	ic.finishUpdate(c, edited, err, "Update edited successfully")
}

func (ic *IncidentController) DeleteUpdate(c *gin.Context) {
	id, ok := ic.ownUpdate(c)
	if !ok {
		return
	}
	deleted, err := ic.Incidents.DeleteUpdate(c.Request.Context(), id, currentUser(c).ID)
	ic.finishUpdate(c, deleted, err, "Update deleted successfully")
}

// MyUpdates lists the caller's latest updates across incidents.
func (ic *IncidentController) MyUpdates(c *gin.Context) {
	updates, err := ic.Incidents.UpdatesByUser(c.Request.Context(), currentUser(c).ID, queryLimit(c, 20))
	if err != nil {
		respondError(c, err)
		return
	}
	if updates == nil {
		updates = []models.IncidentUpdate{}
	}
	c.JSON(http.StatusOK, gin.H{"updates": updates})
}

func (ic *IncidentController) finishUpdate(c *gin.Context, changed bool, err error, msg string) {
	switch {
	case err != nil:
		respondError(c, err)
	case !changed:
		c.JSON(http.StatusNotFound, gin.H{"message": "Update not found"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": msg})
	}
}
