package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutual_aid/internal/auth"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

// memIncidents stores incidents and updates in memory.
type memIncidents struct {
	rows     map[uint]*models.Incident
	updates  []models.IncidentUpdate
	patches  []store.Patch
	statuses []string
}

func newMemIncidents() *memIncidents { return &memIncidents{rows: map[uint]*models.Incident{}} }

func (m *memIncidents) Create(_ context.Context, i *models.Incident, _ *uint) (uint, error) {
	i.ID = uint(len(m.rows) + 1)
	cp := *i
	m.rows[i.ID] = &cp
	return i.ID, nil
}

func (m *memIncidents) List(context.Context, store.ListQuery) ([]models.Incident, error) {
	var out []models.Incident
	for id := uint(1); id <= uint(len(m.rows)); id++ {
		out = append(out, *m.rows[id])
	}
	return out, nil
}

func (m *memIncidents) Get(_ context.Context, id uint) (*models.Incident, error) {
	i, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (m *memIncidents) UpdateStatus(_ context.Context, id uint, status string, _ uint) (bool, error) {
	m.statuses = append(m.statuses, status)
	i, ok := m.rows[id]
	if ok {
		i.Status = status
	}
	return ok, nil
}

func (m *memIncidents) UpdateFields(_ context.Context, id, _ uint, patch store.Patch) (bool, error) {
	return m.UpdateFieldsAny(context.Background(), id, 0, patch)
}

func (m *memIncidents) UpdateFieldsAny(_ context.Context, id, _ uint, patch store.Patch) (bool, error) {
	if len(patch) == 0 {
		return false, store.ErrNothingToUpdate
	}
	m.patches = append(m.patches, patch)
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memIncidents) Delete(_ context.Context, id, _ uint) (bool, error) { return m.DeleteAny(context.Background(), id, 0) }

func (m *memIncidents) DeleteAny(_ context.Context, id, _ uint) (bool, error) {
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memIncidents) AddUpdate(_ context.Context, incidentID, reporterID uint, text, statusChange string) (*models.IncidentUpdate, error) {
	i, ok := m.rows[incidentID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if i.ReporterID == nil || *i.ReporterID != reporterID {
		return nil, store.ErrNotReporter
	}
	u := models.IncidentUpdate{IncidentID: incidentID, ReporterID: reporterID, UpdateText: text, StatusChange: statusChange}
	u.ID = uint(len(m.updates) + 1)
	m.updates = append(m.updates, u)
	return &u, nil
}

func (m *memIncidents) ListUpdates(_ context.Context, incidentID uint) ([]models.IncidentUpdate, error) {
	if _, ok := m.rows[incidentID]; !ok {
		return nil, store.ErrNotFound
	}
	var out []models.IncidentUpdate
	for _, u := range m.updates {
		if u.IncidentID == incidentID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memIncidents) GetUpdate(_ context.Context, id uint) (*models.IncidentUpdate, error) {
	for _, u := range m.updates {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memIncidents) EditUpdate(_ context.Context, id, reporterID uint, text string) (bool, error) {
	for i := range m.updates {
		if m.updates[i].ID == id && m.updates[i].ReporterID == reporterID {
			m.updates[i].UpdateText = text
			return true, nil
		}
	}
	return false, nil
}

func (m *memIncidents) DeleteUpdate(context.Context, uint, uint) (bool, error) { return false, nil }

func (m *memIncidents) UpdatesByUser(context.Context, uint, int) ([]models.IncidentUpdate, error) {
	return nil, nil
}

func (m *memIncidents) Stats(context.Context) (*store.IncidentStats, error) {
	return &store.IncidentStats{Total: int64(len(m.rows))}, nil
}

func newIncidentRouter(incidents *memIncidents) (*gin.Engine, *auth.TokenIssuer) {
	issuer := newIssuer()
	ic := NewIncidentController(incidents)
	r := newEngine(issuer)
	requireAuth := middleware.RequireAuth()
	r.GET("/api/incidents", ic.List)
	r.POST("/api/incidents", ic.Create)
	r.GET("/api/incidents/my-updates", requireAuth, ic.MyUpdates)
	r.PUT("/api/incidents/updates/:updateId", requireAuth, ic.EditUpdate)
	r.GET("/api/incidents/:id", ic.Get)
	r.PUT("/api/incidents/:id", requireAuth, ic.Update)
	r.GET("/api/incidents/:id/updates", ic.ListUpdates)
	r.POST("/api/incidents/:id/updates", requireAuth, ic.AddUpdate)
	r.GET("/api/admin/incidents/stats", middleware.RequireRole("admin"), ic.Stats)
	return r, issuer
}

func incidentBody(geometry interface{}) map[string]interface{} {
	return map[string]interface{}{
		"title":       "Broken streetlight",
		"description": "Dark corner at night",
		"category":    "infrastructure",
		"severity":    "medium",
		"location":    "5th and Main",
		"geometry":    geometry,
	}
}

func TestIncident_AnonymousReportWithGeometry(t *testing.T) {
	incidents := newMemIncidents()
	r, _ := newIncidentRouter(incidents)

	point := map[string]interface{}{"type": "Point", "coordinates": []float64{36.8219, -1.2921}}
	rec := doJSON(r, http.MethodPost, "/api/incidents", "", incidentBody(point))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Incident reported successfully", decode(t, rec)["message"])
	assert.Nil(t, incidents.rows[1].ReporterID)
	assert.NotEmpty(t, incidents.rows[1].Geometry)

	rec = doJSON(r, http.MethodGet, "/api/incidents/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Incident struct {
			Title    string          `json:"title"`
			Status   string          `json:"status"`
			Geometry json.RawMessage `json:"geometry"`
		} `json:"incident"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "reported", out.Incident.Status)
	assert.JSONEq(t, `{"type":"Point","coordinates":[36.8219,-1.2921]}`, string(out.Incident.Geometry))
}

func TestIncident_CreateValidation(t *testing.T) {
	r, _ := newIncidentRouter(newMemIncidents())

	line := `{"type":"LineString","coordinates":[[0,0],[1,1]]}`
	rec := doJSON(r, http.MethodPost, "/api/incidents", "", incidentBody(line))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := incidentBody(nil)
	body["severity"] = "apocalyptic"
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/api/incidents", "", body).Code)

	body = incidentBody(nil)
	body["category"] = "weather"
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/api/incidents", "", body).Code)

	body = incidentBody(nil)
	delete(body, "location")
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/api/incidents", "", body).Code)
}

func TestIncident_UpdatesByReporterOnly(t *testing.T) {
	incidents := newMemIncidents()
	r, issuer := newIncidentRouter(incidents)
	reporter := tokenFor(t, issuer, 3, "user")
	stranger := tokenFor(t, issuer, 4, "user")

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/incidents", reporter, incidentBody(nil)).Code)

	rec := doJSON(r, http.MethodPost, "/api/incidents/1/updates", stranger, map[string]string{"updateText": "me too"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/incidents/1/updates", reporter, map[string]string{"updateText": "crew on site", "statusChange": "investigating"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["updateId"])

	rec = doJSON(r, http.MethodPost, "/api/incidents/9/updates", reporter, map[string]string{"updateText": "?"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodPut, "/api/incidents/updates/1", stranger, map[string]string{"updateText": "hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(r, http.MethodPut, "/api/incidents/updates/1", reporter, map[string]string{"updateText": "crew fixed it"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/incidents/1?includeUpdates=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	incident := decode(t, rec)["incident"].(map[string]interface{})
	updates := incident["updates"].([]interface{})
	require.Len(t, updates, 1)
	assert.Equal(t, "crew fixed it", updates[0].(map[string]interface{})["update_text"])
}

func TestIncident_AdminUpdateSetsStatus(t *testing.T) {
	incidents := newMemIncidents()
	r, issuer := newIncidentRouter(incidents)
	reporter := tokenFor(t, issuer, 3, "user")
	admin := tokenFor(t, issuer, 1, "admin")
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/incidents", reporter, incidentBody(nil)).Code)

	// reporters cannot resolve through the general update
	rec := doJSON(r, http.MethodPut, "/api/incidents/1", reporter, map[string]string{"title": "Two lights out", "status": "resolved", "resolutionNotes": "x"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.Patch{"title": "Two lights out"}, incidents.patches[0])
	assert.Empty(t, incidents.statuses)

	rec = doJSON(r, http.MethodPut, "/api/incidents/1", admin, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"resolved"}, incidents.statuses)
	assert.Len(t, incidents.patches, 1)

	rec = doJSON(r, http.MethodPut, "/api/incidents/1", admin, map[string]string{"resolutionNotes": "replaced bulbs"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.Patch{"resolution_notes": "replaced bulbs"}, incidents.patches[1])

	rec = doJSON(r, http.MethodGet, "/api/admin/incidents/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["stats"].(map[string]interface{})["total"])
}

func TestParsePointGeometry(t *testing.T) {
	wkbGeom, err := parsePointGeometry(json.RawMessage(`"{\"type\":\"Point\",\"coordinates\":[1,2]}"`))
	require.NoError(t, err)
	raw, err := convertWKBToGeoJSON(wkbGeom)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[1,2]}`, raw)

	for _, in := range []string{``, `null`, `""`} {
		g, err := parsePointGeometry(json.RawMessage(in))
		assert.NoError(t, err, in)
		assert.Nil(t, g, in)
	}

	_, err = parsePointGeometry(json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`))
	assert.ErrorIs(t, err, errInvalidGeometry)
	_, err = parsePointGeometry(json.RawMessage(`{"nope":true}`))
	assert.ErrorIs(t, err, errInvalidGeometry)

	out, err := convertWKBToGeoJSON(nil)
	assert.NoError(t, err)
	assert.Empty(t, out)
}
