package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mutual_aid/internal/models"
)

const defaultConversationLimit = 200

// MessageStore persists direct messages between users.
type MessageStore struct {
	db      *gorm.DB
	history *History
	now     func() time.Time
}

// FindOrCreateConversation returns the conversation between a and b,
// creating it on first contact. Argument order does not matter.
func (s *MessageStore) FindOrCreateConversation(ctx context.Context, a, b uint) (*models.Conversation, error) {
	if a == b {
		return nil, ErrSelfMessage
	}
	low, high := models.CanonicalPair(a, b)
	db := s.db.WithContext(ctx)

	conv := models.Conversation{UserLowID: low, UserHighID: high}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
		DoNothing: true,
	}).Create(&conv).Error
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	var found models.Conversation
	if err := db.Where("user_low_id = ? AND user_high_id = ?", low, high).First(&found).Error; err != nil {
		return nil, notFound(err)
	}
	return &found, nil
}

// SendMessage appends a message to a conversation and touches its
// last-activity timestamp.
func (s *MessageStore) SendMessage(ctx context.Context, conversationID, senderID, recipientID uint, body string) (*models.Message, error) {
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	msg := models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        body,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("last_message_at", msg.CreatedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		_, err := s.history.appendTx(tx, senderID, "message_sent", models.LogMeta{
			EntityID:    models.UintPtr(msg.ID),
			RecipientID: models.UintPtr(recipientID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead flags every unread message from otherUserID to userID as read.
func (s *MessageStore) MarkRead(ctx context.Context, userID, otherUserID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", userID, otherUserID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// UnreadCount counts messages addressed to userID that are still unread.
func (s *MessageStore) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// ListConversation returns up to limit of the latest messages between a and
// b, oldest first.
func (s *MessageStore) ListConversation(ctx context.Context, a, b uint, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultConversationLimit
	}
	low, high := models.CanonicalPair(a, b)
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.user_low_id = ? AND conversations.user_high_id = ?", low, high).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListConversations returns a user's inbox ordered by last activity.
func (s *MessageStore) ListConversations(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	db := s.db.WithContext(ctx)
	var convs []models.Conversation
	err := db.Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("last_message_at DESC NULLS LAST, id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summary := models.ConversationSummary{ConversationID: c.ID, LastMessageAt: c.LastMessageAt}
		if err := db.First(&summary.OtherUser, c.Other(userID)).Error; err != nil {
			if err = notFound(err); err != ErrNotFound {
				return nil, err
			}
		}
		var last models.Message
		if err := db.Where("conversation_id = ?", c.ID).Order("created_at DESC, id DESC").Limit(1).Find(&last).Error; err != nil {
			return nil, err
		}
		summary.LastMessage = last.Content
		if err := db.Model(&models.Message{}).
			Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", c.ID, userID, false).
			Count(&summary.UnreadCount).Error; err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}
