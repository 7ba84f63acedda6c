package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"mutual_aid/internal/auth"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

const testSecret = "controller-test-secret"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newIssuer() *auth.TokenIssuer { return auth.NewTokenIssuer(testSecret, time.Hour) }

func tokenFor(t *testing.T, issuer *auth.TokenIssuer, id uint, role string) string {
	t.Helper()
	tok, err := issuer.Issue(strconv.FormatUint(uint64(id), 10), "u@example.com", role, "u")
	require.NoError(t, err)
	return tok
}

func newEngine(issuer *auth.TokenIssuer) *gin.Engine {
	r := gin.New()
	r.Use(middleware.AttachUser(issuer))
	return r
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, _ := json.Marshal(b)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// memUsers is an in-memory account store.
type memUsers struct {
	mu     sync.Mutex
	rows   map[uint]*models.User
	nextID uint
}

func newMemUsers() *memUsers { return &memUsers{rows: map[uint]*models.User{}} }

func (m *memUsers) add(u models.User) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	m.rows[u.ID] = &u
	return &u
}

func (m *memUsers) Create(_ context.Context, name, email, hash string) (*models.User, error) {
	email = store.NormalizeEmail(email)
	m.mu.Lock()
	for _, u := range m.rows {
		if u.Email == email {
			m.mu.Unlock()
			return nil, store.ErrEmailTaken
		}
	}
	m.mu.Unlock()
	return m.add(models.User{Name: name, Email: email, Username: store.UsernameBase(email), Password: hash}), nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = store.NormalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = hash
	return nil
}

// memPosts is an in-memory post table honouring eq filters on type and status.
type memPosts struct {
	mu   sync.Mutex
	rows map[uint]*models.Post
	next uint
}

func newMemPosts() *memPosts { return &memPosts{rows: map[uint]*models.Post{}} }

func (m *memPosts) Create(_ context.Context, p *models.Post, _ *uint) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p.ID = m.next
	cp := *p
	m.rows[p.ID] = &cp
	return p.ID, nil
}

func (m *memPosts) List(_ context.Context, q store.ListQuery) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for id := uint(1); id <= m.next; id++ {
		p, ok := m.rows[id]
		if !ok || !postMatches(p, q.Filters) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func postMatches(p *models.Post, filters []store.Filter) bool {
	for _, f := range filters {
		switch f.Column {
		case "type":
			if p.Type != f.Value {
				return false
			}
		case "status":
			if p.Status != f.Value {
				return false
			}
		}
	}
	return true
}

func (m *memPosts) Get(_ context.Context, id uint) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) UpdateStatus(_ context.Context, id uint, status string, _ uint) (bool, error) {
	valid := false
	for _, s := range models.PostStatuses {
		valid = valid || s == status
	}
	if !valid {
		return false, store.ErrInvalidStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	p.Status = status
	return true, nil
}

func (m *memPosts) UpdateFields(_ context.Context, id, ownerID uint, patch store.Patch) (bool, error) {
	return m.update(id, &ownerID, patch)
}

func (m *memPosts) UpdateFieldsAny(_ context.Context, id, _ uint, patch store.Patch) (bool, error) {
	return m.update(id, nil, patch)
}

func (m *memPosts) update(id uint, ownerID *uint, patch store.Patch) (bool, error) {
	if len(patch) == 0 {
		return false, store.ErrNothingToUpdate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || (ownerID != nil && (p.OwnerID == nil || *p.OwnerID != *ownerID)) {
		return false, nil
	}
	if v, ok := patch["title"].(string); ok {
		p.Title = v
	}
	if v, ok := patch["description"].(string); ok {
		p.Description = v
	}
	return true, nil
}

func (m *memPosts) Delete(_ context.Context, id, ownerID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.OwnerID == nil || *p.OwnerID != ownerID {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func (m *memPosts) DeleteAny(_ context.Context, id, _ uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

// memMessages records conversations and messages in memory.
type memMessages struct {
	mu       sync.Mutex
	convs    map[[2]uint]*models.Conversation
	messages []models.Message
	marked   [][2]uint
}

func newMemMessages() *memMessages {
	return &memMessages{convs: map[[2]uint]*models.Conversation{}}
}

func (m *memMessages) FindOrCreateConversation(_ context.Context, a, b uint) (*models.Conversation, error) {
	if a == b {
		return nil, store.ErrSelfMessage
	}
	low, high := models.CanonicalPair(a, b)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uint{low, high}
	if c, ok := m.convs[key]; ok {
		return c, nil
	}
	c := &models.Conversation{ID: uint(len(m.convs) + 1), UserLowID: low, UserHighID: high}
	m.convs[key] = c
	return c, nil
}

func (m *memMessages) SendMessage(_ context.Context, convID, sender, recipient uint, body string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := models.Message{
		ID:             uint(len(m.messages) + 1),
		ConversationID: convID,
		SenderID:       sender,
		RecipientID:    recipient,
		Content:        body,
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *memMessages) MarkRead(_ context.Context, userID, other uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, [2]uint{userID, other})
	var n int64
	for i := range m.messages {
		if m.messages[i].RecipientID == userID && m.messages[i].SenderID == other && !m.messages[i].IsRead {
			m.messages[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memMessages) UnreadCount(_ context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.messages {
		if msg.RecipientID == userID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memMessages) ListConversation(_ context.Context, a, b uint, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if (msg.SenderID == a && msg.RecipientID == b) || (msg.SenderID == b && msg.RecipientID == a) {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memMessages) ListConversations(_ context.Context, _ uint) ([]models.ConversationSummary, error) {
	return nil, nil
}

type published struct {
	userID  uint
	payload interface{}
}

// recordingHub captures frames instead of writing to sockets.
type recordingHub struct {
	mu     sync.Mutex
	frames []published
}

func (h *recordingHub) Publish(userID uint, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, published{userID, payload})
}

func (h *recordingHub) Serve(uint, *websocket.Conn) {}
