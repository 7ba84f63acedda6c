package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

type DonationController struct {
	res resource[models.Donation]
}

func NewDonationController(s EntityStore[models.Donation]) *DonationController {
	return &DonationController{res: resource[models.Donation]{
		store:   s,
		label:   "Donation",
		param:   "id",
		rules:   store.DonationFilters,
		ownerOf: func(d *models.Donation) *uint { return ownerPtr(d.OwnerID) },
	}}
}

type donationPatch struct {
	Kind        *string `json:"kind"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Contact     *string `json:"contact"`
}

func (p donationPatch) columns() store.Patch {
	out := store.Patch{}
	if p.Kind != nil {
		out["kind"] = *p.Kind
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Location != nil {
		out["location"] = *p.Location
	}
	if p.Contact != nil {
		out["contact"] = *p.Contact
	}
	return out
}

func (dc *DonationController) Create(c *gin.Context) {
	var input struct {
		Kind        string `json:"kind" binding:"required"`
		Description string `json:"description" binding:"required"`
		Location    string `json:"location" binding:"required"`
		Contact     string `json:"contact" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || blank(input.Description, input.Location, input.Contact) {
		badRequest(c, "All fields are required.")
		return
	}
	if !oneOf(input.Kind, models.DonationKinds) {
		badRequest(c, "Invalid donation kind")
		return
	}

	me := currentUser(c)
	donation := models.Donation{
		Kind:        input.Kind,
		Description: input.Description,
		Location:    input.Location,
		Contact:     input.Contact,
		Status:      models.DonationStatuses[0],
		OwnerID:     me.ID,
	}
	id, err := dc.res.store.Create(c.Request.Context(), &donation, ownerPtr(me.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Donation created successfully", "donationId": id})
}

func (dc *DonationController) List(c *gin.Context) { dc.res.list(c, "donations", nil) }

func (dc *DonationController) Update(c *gin.Context) {
	var patch donationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	dc.res.update(c, patch.columns())
}

func (dc *DonationController) UpdateStatus(c *gin.Context) { dc.res.setStatus(c) }

func (dc *DonationController) Delete(c *gin.Context) { dc.res.remove(c) }

func (dc *DonationController) AdminDelete(c *gin.Context) { dc.res.adminRemove(c) }
