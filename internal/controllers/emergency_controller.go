package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
)

type EmergencyDirectory interface {
	List(ctx context.Context) ([]models.EmergencyContact, error)
	ByCategory(ctx context.Context, category string) ([]models.EmergencyContact, error)
	Search(ctx context.Context, q string) ([]models.EmergencyContact, error)
	Create(ctx context.Context, contact *models.EmergencyContact) (uint, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

type EmergencyController struct {
	Contacts EmergencyDirectory
}

func (ec *EmergencyController) List(c *gin.Context) {
	contacts, err := ec.Contacts.List(c.Request.Context())
	ec.respond(c, contacts, err)
}

func (ec *EmergencyController) ByCategory(c *gin.Context) {
	contacts, err := ec.Contacts.ByCategory(c.Request.Context(), c.Param("category"))
	ec.respond(c, contacts, err)
}

// Search matches ?q= against area, city and name. An empty query lists all.
func (ec *EmergencyController) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		ec.List(c)
		return
	}
	contacts, err := ec.Contacts.Search(c.Request.Context(), q)
	ec.respond(c, contacts, err)
}

func (ec *EmergencyController) Create(c *gin.Context) {
	var input struct {
		Name        string `json:"name" binding:"required"`
		Category    string `json:"category" binding:"required"`
		MainArea    string `json:"mainArea"`
		City        string `json:"city"`
		FullAddress string `json:"fullAddress"`
		Phone       string `json:"phone" binding:"required"`
		Fax         string `json:"fax"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || blank(input.Name, input.Category, input.Phone) {
		badRequest(c, "Name, category, and phone are required")
		return
	}
	contact := models.EmergencyContact{
		Name:        input.Name,
		Category:    input.Category,
		MainArea:    input.MainArea,
		City:        input.City,
		FullAddress: input.FullAddress,
		Phone:       input.Phone,
		Fax:         input.Fax,
	}
	id, err := ec.Contacts.Create(c.Request.Context(), &contact)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Emergency contact created successfully", "contactId": id})
}

func (ec *EmergencyController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "contactId", "contact")
	if !ok {
		return
	}
	deleted, err := ec.Contacts.Delete(c.Request.Context(), id)
	switch {
	case err != nil:
		respondError(c, err)
	case !deleted:
		c.JSON(http.StatusNotFound, gin.H{"message": "Emergency contact not found"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Emergency contact deleted successfully"})
	}
}

func (ec *EmergencyController) respond(c *gin.Context, contacts []models.EmergencyContact, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if contacts == nil {
		contacts = []models.EmergencyContact{}
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}
