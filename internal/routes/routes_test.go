package routes

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mutual_aid/internal/auth"
	"mutual_aid/internal/config"
	"mutual_aid/internal/realtime"
	"mutual_aid/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	r      *gin.Engine
	mock   sqlmock.Sqlmock
	tokens *auth.TokenIssuer
	access *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	f := &fixture{
		mock:   mock,
		tokens: auth.NewTokenIssuer("routes-test-secret", time.Hour),
		access: &bytes.Buffer{},
	}
	f.r = SetupRouter(Deps{
		Settings:  &config.Settings{RequestLogsEnabled: true, AuthRatePerMinute: 1},
		Store:     store.New(db, false),
		Tokens:    f.tokens,
		Hasher:    auth.NewPasswordHasher(false),
		Hub:       hub,
		AccessLog: f.access,
	})
	return f
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.r.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectPing()
	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	f.mock.ExpectPing().WillReturnError(errors.New("down"))
	rec = f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	assert.NoError(t, f.mock.ExpectationsWereMet())
	assert.NotContains(t, f.access.String(), "/healthz")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/api/users/me", "", "")

	rec := f.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mutual_aid_http_requests_total")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGuards(t *testing.T) {
	f := newFixture(t)
	user, err := f.tokens.Issue("5", "u@example.com", "user", "u")
	require.NoError(t, err)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/users/me", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/stats", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/stats", user, http.StatusForbidden},
		{http.MethodGet, "/api/volunteers/queue", user, http.StatusForbidden},
		{http.MethodPost, "/api/volunteers/approve", user, http.StatusForbidden},
		{http.MethodDelete, "/api/admin/posts/1", user, http.StatusForbidden},
		{http.MethodGet, "/api/history", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/posts", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/donations", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/messages/send", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/messages/ws", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/nowhere", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := f.do(tc.method, tc.path, tc.token, "")
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
	assert.Contains(t, f.access.String(), "/api/admin/stats")
}

func TestAuthRateLimit(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/users/login", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/users/login", "", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
