package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a conversation message. Assistant messages are
// created as empty placeholders before generation and filled in once
// when the stream completes.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	OwnerID        string    `json:"owner_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Cost           int64     `json:"cost"`
	Paid           bool      `json:"paid"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// UpdateMessageRequest patches a stored message and, optionally, the
// conversation's suggested follow-up questions.
type UpdateMessageRequest struct {
	Content            *string  `json:"content,omitempty"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}
