package models

import "time"

// Conversation is the thread between exactly two users. The pair is
// stored normalized (UserAID < UserBID lexicographically) so the
// unique index enforces at most one conversation per unordered pair.
type Conversation struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserAID string `gorm:"not null;index;uniqueIndex:idx_conversations_pair" json:"user_a_id"`
	UserBID string `gorm:"not null;uniqueIndex:idx_conversations_pair" json:"user_b_id"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizePair orders two user IDs for conversation lookup.
func NormalizePair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Message is a single direct message inside a conversation.
type Message struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ConversationID string `gorm:"not null;index" json:"conversation_id"`
	SenderID       string `gorm:"not null;index" json:"sender_id"`
	ReceiverID     string `gorm:"not null" json:"receiver_id"`
	Body           string `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
