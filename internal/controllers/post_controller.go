package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

type PostController struct {
	res resource[models.Post]
}

func NewPostController(s EntityStore[models.Post]) *PostController {
	return &PostController{res: resource[models.Post]{
		store:   s,
		label:   "Post",
		param:   "id",
		rules:   store.PostFilters,
		ownerOf: func(p *models.Post) *uint { return p.OwnerID },
	}}
}

type postInput struct {
	Type        string `json:"type"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Priority    string `json:"priority" binding:"required"`
	Location    string `json:"location" binding:"required"`
	ContactInfo string `json:"contact_info" binding:"required"`
}

type postPatch struct {
	Type        *string `json:"type"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Location    *string `json:"location"`
	ContactInfo *string `json:"contact_info"`
}

func (p postPatch) columns() store.Patch {
	out := store.Patch{}
	set := func(col string, v *string) {
		if v != nil {
			out[col] = *v
		}
	}
	set("type", p.Type)
	set("title", p.Title)
	set("description", p.Description)
	set("category", p.Category)
	set("priority", p.Priority)
	set("location", p.Location)
	set("contact_info", p.ContactInfo)
	return out
}

// Create stores a help request or offer owned by the caller. A missing type
// defaults to "request".
func (pc *PostController) Create(c *gin.Context) {
	var input postInput
	if err := c.ShouldBindJSON(&input); err != nil || blank(input.Title, input.Description, input.Location, input.ContactInfo) {
		badRequest(c, "All fields are required")
		return
	}
	if input.Type = strings.TrimSpace(input.Type); input.Type == "" {
		input.Type = models.PostTypes[0]
	}
	if !oneOf(input.Type, models.PostTypes) {
		badRequest(c, "Type must be 'request' or 'offer'")
		return
	}

	me := currentUser(c)
	post := models.Post{
		Type:        input.Type,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Priority:    input.Priority,
		Location:    input.Location,
		ContactInfo: input.ContactInfo,
		OwnerID:     ownerPtr(me.ID),
		Status:      models.PostStatuses[0],
	}
	id, err := pc.res.store.Create(c.Request.Context(), &post, ownerPtr(me.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "postId": id})
}

// List supports type, category, status, priority, owner_id, location and q
// filters, and sort=smart for priority ordering.
func (pc *PostController) List(c *gin.Context) { pc.res.list(c, "posts", nil) }

func (pc *PostController) Update(c *gin.Context) {
	var patch postPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	pc.res.update(c, patch.columns())
}

func (pc *PostController) UpdateStatus(c *gin.Context) { pc.res.setStatus(c) }

func (pc *PostController) Delete(c *gin.Context) { pc.res.remove(c) }

func (pc *PostController) AdminDelete(c *gin.Context) { pc.res.adminRemove(c) }
