package models

import "time"

// Conversation groups the messages between one unordered pair of users.
// UserLowID is always the smaller id.
type Conversation struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserLowID     uint       `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:1" json:"user_low_id"`
	UserHighID    uint       `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:2;index" json:"user_high_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	UserLow  *User `gorm:"foreignKey:UserLowID;constraint:OnDelete:CASCADE;" json:"-"`
	UserHigh *User `gorm:"foreignKey:UserHighID;constraint:OnDelete:CASCADE;" json:"-"`
}

// CanonicalPair orders two user ids as they are stored on a Conversation.
func CanonicalPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID uint) uint {
	if c.UserLowID == userID {
		return c.UserHighID
	}
	return c.UserLowID
}

type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	RecipientID    uint      `gorm:"not null;index:idx_message_unread,priority:1" json:"recipient_id"`
	Content        string    `gorm:"not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false;index:idx_message_unread,priority:2" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Conversation *Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE;" json:"-"`
	Sender       *User         `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE;" json:"-"`
	Recipient    *User         `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE;" json:"-"`
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	ConversationID uint       `json:"conversation_id"`
	OtherUser      PublicUser `json:"other_user"`
	LastMessage    string     `json:"last_message"`
	LastMessageAt  *time.Time `json:"last_message_at"`
	UnreadCount    int64      `json:"unread_count"`
}
