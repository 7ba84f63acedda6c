package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutual_aid/internal/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(issuer *auth.TokenIssuer, guards ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AttachUser(issuer))
	handlers := append(guards, func(c *gin.Context) {
		ident, ok := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok, "id": ident.ID, "role": ident.Role})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAttachUser_Anonymous(t *testing.T) {
	issuer := auth.NewTokenIssuer("middleware-test-secret", time.Hour)
	rec := do(newRouter(issuer), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false,"id":0,"role":""}`, rec.Body.String())

	rec = do(newRouter(issuer), "garbage.token.value")
	assert.JSONEq(t, `{"authenticated":false,"id":0,"role":""}`, rec.Body.String())
}

func TestAttachUser_ValidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("middleware-test-secret", time.Hour)
	token, err := issuer.Issue("12", "a@b.c", "user", "a")
	require.NoError(t, err)

	rec := do(newRouter(issuer), token)
	assert.JSONEq(t, `{"authenticated":true,"id":12,"role":"user"}`, rec.Body.String())
}

func TestIdentityFromToken_RejectsNonNumericSubject(t *testing.T) {
	issuer := auth.NewTokenIssuer("middleware-test-secret", time.Hour)
	token, err := issuer.Issue("abc", "a@b.c", "user", "a")
	require.NoError(t, err)
	_, ok := IdentityFromToken(issuer, token)
	assert.False(t, ok)
}

func TestRequireAuth(t *testing.T) {
	issuer := auth.NewTokenIssuer("middleware-test-secret", time.Hour)
	r := newRouter(issuer, RequireAuth())

	rec := do(r, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Authentication required"}`, rec.Body.String())

	token, _ := issuer.Issue("3", "a@b.c", "user", "a")
	assert.Equal(t, http.StatusOK, do(r, token).Code)
}

func TestRequireRole(t *testing.T) {
	issuer := auth.NewTokenIssuer("middleware-test-secret", time.Hour)
	r := newRouter(issuer, RequireRole("admin"))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)

	userToken, _ := issuer.Issue("3", "u@b.c", "user", "u")
	assert.Equal(t, http.StatusForbidden, do(r, userToken).Code)

	adminToken, _ := issuer.Issue("1", "a@b.c", "admin", "a")
	assert.Equal(t, http.StatusOK, do(r, adminToken).Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(auth.NewTokenIssuer("middleware-test-secret", time.Hour))

	rec := do(r, "")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "3f1c6c1e-6f53-4d0b-9a53-2b8f3f7b9d10")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "3f1c6c1e-6f53-4d0b-9a53-2b8f3f7b9d10", rec.Header().Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.GET("/x", NewRateLimiter(2).Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(r, "").Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/x", NewRateLimiter(0).Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusNoContent, do(r, "").Code)
	}
}

func TestEnableCORS(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := EnableCORS([]string{"http://localhost:3000"}, inner)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics_PassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	assert.Equal(t, http.StatusAccepted, do(r, "").Code)
	assert.Equal(t, http.StatusNotFound, do(gin.New(), "").Code)
}
