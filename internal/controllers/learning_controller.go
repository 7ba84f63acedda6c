package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

type LearningController struct {
	res resource[models.LearningSession]
}

func NewLearningController(s EntityStore[models.LearningSession]) *LearningController {
	return &LearningController{res: resource[models.LearningSession]{
		store:   s,
		label:   "Learning session",
		param:   "id",
		rules:   store.LearningFilters,
		ownerOf: func(l *models.LearningSession) *uint { return ownerPtr(l.OwnerID) },
	}}
}

type learningPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
	Level       *string `json:"level"`
	SessionType *string `json:"sessionType"`
	Location    *string `json:"location"`
	ContactInfo *string `json:"contactInfo"`
}

func (p learningPatch) columns() store.Patch {
	out := store.Patch{}
	for col, v := range map[string]*string{
		"title":        p.Title,
		"description":  p.Description,
		"subject":      p.Subject,
		"level":        p.Level,
		"session_type": p.SessionType,
		"location":     p.Location,
		"contact_info": p.ContactInfo,
	} {
		if v != nil {
			out[col] = *v
		}
	}
	return out
}

func (lc *LearningController) Create(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
		Subject     string `json:"subject" binding:"required"`
		Level       string `json:"level" binding:"required"`
		SessionType string `json:"sessionType" binding:"required"`
		Location    string `json:"location" binding:"required"`
		ContactInfo string `json:"contactInfo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || blank(input.Title, input.Description, input.Subject, input.Location, input.ContactInfo) {
		badRequest(c, "All fields are required: title, description, subject, level, sessionType, location, contactInfo")
		return
	}
	if !oneOf(input.Level, models.LearningLevels) {
		badRequest(c, "Invalid level")
		return
	}
	if !oneOf(input.SessionType, models.LearningTypes) {
		badRequest(c, "Invalid session type")
		return
	}

	me := currentUser(c)
	session := models.LearningSession{
		Title:       input.Title,
		Description: input.Description,
		Subject:     input.Subject,
		Level:       input.Level,
		SessionType: input.SessionType,
		Location:    input.Location,
		ContactInfo: input.ContactInfo,
		OwnerID:     me.ID,
		Status:      models.LearningStatuses[0],
	}
	id, err := lc.res.store.Create(c.Request.Context(), &session, ownerPtr(me.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Learning session created successfully", "sessionId": id})
}

func (lc *LearningController) List(c *gin.Context) { lc.res.list(c, "sessions", nil) }

func (lc *LearningController) Get(c *gin.Context) {
	_, session, ok := lc.res.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (lc *LearningController) Update(c *gin.Context) {
	var patch learningPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	lc.res.update(c, patch.columns())
}

func (lc *LearningController) UpdateStatus(c *gin.Context) { lc.res.setStatus(c) }

func (lc *LearningController) Delete(c *gin.Context) { lc.res.remove(c) }

func (lc *LearningController) AdminDelete(c *gin.Context) { lc.res.adminRemove(c) }
