package controllers

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

// IncidentStore is the incident table plus its follow-up updates.
type IncidentStore interface {
	EntityStore[models.Incident]
	AddUpdate(ctx context.Context, incidentID, reporterID uint, text, statusChange string) (*models.IncidentUpdate, error)
	ListUpdates(ctx context.Context, incidentID uint) ([]models.IncidentUpdate, error)
	GetUpdate(ctx context.Context, updateID uint) (*models.IncidentUpdate, error)
	EditUpdate(ctx context.Context, updateID, reporterID uint, text string) (bool, error)
	DeleteUpdate(ctx context.Context, updateID, reporterID uint) (bool, error)
	UpdatesByUser(ctx context.Context, userID uint, limit int) ([]models.IncidentUpdate, error)
	Stats(ctx context.Context) (*store.IncidentStats, error)
}

var errInvalidGeometry = errors.New("geometry must be a GeoJSON Point")

// IncidentResponse renders the stored WKB geometry as GeoJSON.
type IncidentResponse struct {
	models.Incident
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

func toIncidentResponse(incident models.Incident) IncidentResponse {
	out := IncidentResponse{Incident: incident}
	if raw, err := convertWKBToGeoJSON(incident.Geometry); err != nil {
		logrus.WithError(err).WithField("incident_id", incident.ID).Warn("stored incident geometry is unreadable")
	} else if raw != "" {
		out.Geometry = json.RawMessage(raw)
	}
	return out
}

func toIncidentResponses(incidents []models.Incident) interface{} {
	out := make([]IncidentResponse, 0, len(incidents))
	for _, i := range incidents {
		out = append(out, toIncidentResponse(i))
	}
	return out
}

// parsePointGeometry accepts a GeoJSON Point, either inline or as a JSON
// string, and returns it as WKB. An absent value yields nil.
func parsePointGeometry(raw json.RawMessage) ([]byte, error) {
	if !optionalJSON(raw) {
		return nil, nil
	}
	doc := []byte(raw)
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s == "" {
			return nil, nil
		}
		doc = []byte(s)
	}
	var g geom.T
	if err := gjson.Unmarshal(doc, &g); err != nil {
		return nil, errInvalidGeometry
	}
	if _, ok := g.(*geom.Point); !ok {
		return nil, errInvalidGeometry
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// convertWKBToGeoJSON converts WKB bytes into a GeoJSON string.
func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type IncidentController struct {
	Incidents IncidentStore
	res       resource[models.Incident]
}

func NewIncidentController(s IncidentStore) *IncidentController {
	return &IncidentController{
		Incidents: s,
		res: resource[models.Incident]{
			store:   s,
			label:   "Incident",
			param:   "id",
			rules:   store.IncidentFilters,
			ownerOf: func(i *models.Incident) *uint { return i.ReporterID },
		},
	}
}

type incidentInput struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Severity    string          `json:"severity" binding:"required"`
	Location    string          `json:"location" binding:"required"`
	ContactInfo string          `json:"contactInfo"`
	Geometry    json.RawMessage `json:"geometry"`
}

type incidentPatch struct {
	Title           *string         `json:"title"`
	Description     *string         `json:"description"`
	Category        *string         `json:"category"`
	Severity        *string         `json:"severity"`
	Location        *string         `json:"location"`
	ContactInfo     *string         `json:"contactInfo"`
	Geometry        json.RawMessage `json:"geometry"`
	Status          *string         `json:"status"`
	ResolutionNotes *string         `json:"resolutionNotes"`
}

// columns returns the reporter-editable fields; admins also get resolution notes.
func (p incidentPatch) columns(admin bool) (store.Patch, error) {
	out := store.Patch{}
	for col, v := range map[string]*string{
		"title":        p.Title,
		"description":  p.Description,
		"category":     p.Category,
		"severity":     p.Severity,
		"location":     p.Location,
		"contact_info": p.ContactInfo,
	} {
		if v != nil {
			out[col] = *v
		}
	}
	if admin && p.ResolutionNotes != nil {
		out["resolution_notes"] = *p.ResolutionNotes
	}
	if optionalJSON(p.Geometry) {
		wkbGeom, err := parsePointGeometry(p.Geometry)
		if err != nil {
			return nil, err
		}
		out["geometry"] = wkbGeom
	}
	return out, nil
}

// Create files a report. Reports without a bearer token are anonymous.
func (ic *IncidentController) Create(c *gin.Context) {
	var input incidentInput
	if err := c.ShouldBindJSON(&input); err != nil || blank(input.Title, input.Description, input.Location) {
		badRequest(c, "Title, description, category, severity, and location are required")
		return
	}
	if !oneOf(input.Category, models.IncidentCategories) {
		badRequest(c, "Invalid category")
		return
	}
	if !oneOf(input.Severity, models.IncidentSeverities) {
		badRequest(c, "Invalid severity")
		return
	}
	wkbGeom, err := parsePointGeometry(input.Geometry)
	if err != nil {
		badRequest(c, "Invalid geometry: "+err.Error())
		return
	}

	reporter := creator(c)
	incident := models.Incident{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Severity:    input.Severity,
		Location:    input.Location,
		ContactInfo: input.ContactInfo,
		Status:      models.IncidentStatuses[0],
		ReporterID:  reporter,
		Geometry:    wkbGeom,
	}
	id, err := ic.Incidents.Create(c.Request.Context(), &incident, reporter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Incident reported successfully", "incidentId": id})
}

func (ic *IncidentController) List(c *gin.Context) {
	ic.res.list(c, "incidents", func(rows []models.Incident) interface{} { return toIncidentResponses(rows) })
}

// Get returns one incident; includeUpdates=true attaches its follow-ups.
func (ic *IncidentController) Get(c *gin.Context) {
	id, incident, ok := ic.res.load(c)
	if !ok {
		return
	}
	if c.Query("includeUpdates") == "true" {
		updates, err := ic.Incidents.ListUpdates(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		incident.Updates = updates
	}
	c.JSON(http.StatusOK, gin.H{"incident": toIncidentResponse(*incident)})
}

// Update lets the reporter edit the report. Admins may also set status and
// resolution notes.
func (ic *IncidentController) Update(c *gin.Context) {
	var patch incidentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	id, asOwner, ok := ic.res.authorize(c)
	if !ok {
		return
	}
	me := currentUser(c)
	cols, err := patch.columns(me.IsAdmin())
	if err != nil {
		badRequest(c, "Invalid geometry: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	adminStatus := me.IsAdmin() && patch.Status != nil

	if len(cols) > 0 || !adminStatus {
		var updated bool
		if asOwner {
			updated, err = ic.Incidents.UpdateFields(ctx, id, me.ID, cols)
		} else {
			updated, err = ic.Incidents.UpdateFieldsAny(ctx, id, me.ID, cols)
		}
		if err != nil || !updated {
			ic.res.finish(c, updated, err, "")
			return
		}
	}
	if adminStatus {
		updated, err := ic.Incidents.UpdateStatus(ctx, id, *patch.Status, me.ID)
		if err != nil || !updated {
			ic.res.finish(c, updated, err, "")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Incident updated successfully"})
}

func (ic *IncidentController) UpdateStatus(c *gin.Context) { ic.res.setStatus(c) }

func (ic *IncidentController) Delete(c *gin.Context) { ic.res.remove(c) }

func (ic *IncidentController) AdminDelete(c *gin.Context) { ic.res.adminRemove(c) }

func (ic *IncidentController) Stats(c *gin.Context) {
	stats, err := ic.Incidents.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
