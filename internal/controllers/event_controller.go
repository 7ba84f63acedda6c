package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

type EventController struct {
	res resource[models.Event]
}

func NewEventController(s EntityStore[models.Event]) *EventController {
	return &EventController{res: resource[models.Event]{
		store:      s,
		label:      "Event",
		param:      "id",
		rules:      store.EventFilters,
		ownerOf:    func(e *models.Event) *uint { return ownerPtr(e.OwnerID) },
		checkPatch: checkEventRange,
	}}
}

var errEventRange = errors.New("end must not be before start")

// checkEventRange rejects a patch that would leave the event ending before it
// starts, taking unpatched bounds from the stored event.
func checkEventRange(current *models.Event, patch store.Patch) error {
	start, end := current.StartAt, current.EndAt
	if t, ok := patch["start_at"].(time.Time); ok {
		start = t
	}
	if t, ok := patch["end_at"].(time.Time); ok {
		end = t
	}
	if end.Before(start) {
		return errEventRange
	}
	return nil
}

var eventTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// parseEventTime accepts RFC3339 and the shorter forms HTML date inputs send.
func parseEventTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

type eventPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartAt     *string `json:"startAt"`
	EndAt       *string `json:"endAt"`
	Location    *string `json:"location"`
}

func (p eventPatch) columns() (store.Patch, error) {
	out := store.Patch{}
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Location != nil {
		out["location"] = *p.Location
	}
	for col, raw := range map[string]*string{"start_at": p.StartAt, "end_at": p.EndAt} {
		if raw == nil {
			continue
		}
		t, err := parseEventTime(*raw)
		if err != nil {
			return nil, err
		}
		out[col] = t
	}
	if start, ok := out["start_at"].(time.Time); ok {
		if end, ok := out["end_at"].(time.Time); ok && end.Before(start) {
			return nil, errEventRange
		}
	}
	return out, nil
}

func (ec *EventController) Create(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description" binding:"required"`
		StartAt     string `json:"startAt" binding:"required"`
		EndAt       string `json:"endAt" binding:"required"`
		Location    string `json:"location" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || blank(input.Title, input.Description, input.Location) {
		badRequest(c, "All fields are required.")
		return
	}
	start, err := parseEventTime(input.StartAt)
	if err != nil {
		badRequest(c, "Invalid startAt")
		return
	}
	end, err := parseEventTime(input.EndAt)
	if err != nil {
		badRequest(c, "Invalid endAt")
		return
	}
	if end.Before(start) {
		badRequest(c, "endAt must not be before startAt")
		return
	}

	me := currentUser(c)
	event := models.Event{
		Title:       input.Title,
		Description: input.Description,
		StartAt:     start,
		EndAt:       end,
		Location:    input.Location,
		Status:      models.EventStatuses[0],
		OwnerID:     me.ID,
	}
	id, err := ec.res.store.Create(c.Request.Context(), &event, ownerPtr(me.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Event created successfully", "eventId": id})
}

// List returns events in start order; from/to bound start_at.
func (ec *EventController) List(c *gin.Context) { ec.res.list(c, "events", nil) }

func (ec *EventController) Update(c *gin.Context) {
	var patch eventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	cols, err := patch.columns()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	ec.res.update(c, cols)
}

func (ec *EventController) UpdateStatus(c *gin.Context) { ec.res.setStatus(c) }

func (ec *EventController) Delete(c *gin.Context) { ec.res.remove(c) }

func (ec *EventController) AdminDelete(c *gin.Context) { ec.res.adminRemove(c) }
