package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mutual_aid/internal/metrics"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/models"
	"mutual_aid/internal/store"
)

type Messenger interface {
	FindOrCreateConversation(ctx context.Context, a, b uint) (*models.Conversation, error)
	SendMessage(ctx context.Context, conversationID, senderID, recipientID uint, body string) (*models.Message, error)
	MarkRead(ctx context.Context, userID, otherUserID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	ListConversation(ctx context.Context, a, b uint, limit int) ([]models.Message, error)
	ListConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Realtime delivers frames to connected users.
type Realtime interface {
	Publish(userID uint, payload interface{})
	Serve(userID uint, conn *websocket.Conn)
}

// MessageFrame is pushed to a recipient's open websockets.
type MessageFrame struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

type MessageController struct {
	Messages Messenger
	Users    UserFinder
	Hub      Realtime
	Verifier middleware.TokenVerifier
	Upgrader websocket.Upgrader
}

// NewMessageController builds the controller. Websocket upgrades are
// accepted from the listed origins, or from any origin when none are given.
func NewMessageController(messages Messenger, users UserFinder, hub Realtime, verifier middleware.TokenVerifier, origins []string) *MessageController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &MessageController{
		Messages: messages,
		Users:    users,
		Hub:      hub,
		Verifier: verifier,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed[origin]
			},
		},
	}
}

func (mc *MessageController) Send(c *gin.Context) {
	var body struct {
		RecipientID flexID `json:"recipientId"`
		Content     string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.RecipientID == 0 || blank(body.Content) {
		badRequest(c, "Recipient and content are required")
		return
	}

	ctx := c.Request.Context()
	me := currentUser(c)
	recipient := uint(body.RecipientID)
	if recipient == me.ID {
		respondError(c, store.ErrSelfMessage)
		return
	}
	if _, err := mc.Users.FindByID(ctx, recipient); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Recipient not found"})
			return
		}
		respondError(c, err)
		return
	}

	conv, err := mc.Messages.FindOrCreateConversation(ctx, me.ID, recipient)
	if err != nil {
		respondError(c, err)
		return
	}
	msg, err := mc.Messages.SendMessage(ctx, conv.ID, me.ID, recipient, body.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordMessageSent()
	if mc.Hub != nil {
		mc.Hub.Publish(recipient, MessageFrame{Type: "message", Message: msg})
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "messageId": msg.ID})
}

// Conversation returns the thread with :userId, oldest first, and marks the
// caller's incoming messages in it as read.
func (mc *MessageController) Conversation(c *gin.Context) {
	other, ok := parseIDParam(c, "userId", "user")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	me := currentUser(c)

	messages, err := mc.Messages.ListConversation(ctx, me.ID, other, queryLimit(c, 50))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := mc.Messages.MarkRead(ctx, me.ID, other); err != nil {
		logrus.WithError(err).WithField("user_id", me.ID).Warn("mark read failed")
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (mc *MessageController) Conversations(c *gin.Context) {
	convs, err := mc.Messages.ListConversations(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if convs == nil {
		convs = []models.ConversationSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (mc *MessageController) UnreadCount(c *gin.Context) {
	n, err := mc.Messages.UnreadCount(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": n})
}

// Stream upgrades to a websocket that receives the caller's new messages.
// Browsers cannot set headers on upgrades, so ?token= is accepted as well.
func (mc *MessageController) Stream(c *gin.Context) {
	ident, ok := middleware.CurrentUser(c)
	if !ok {
		ident, ok = middleware.IdentityFromToken(mc.Verifier, c.Query("token"))
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}

	conn, err := mc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).WithField("user_id", ident.ID).Warn("websocket upgrade failed")
		return
	}
	logrus.WithField("user_id", ident.ID).Debug("realtime client connected")
	mc.Hub.Serve(ident.ID, conn)
}
