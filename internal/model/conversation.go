// Package model defines data structures for the consultation platform.
package model

import (
	"time"
)

// Conversation represents a consultation thread between a user and a
// persona, optionally enriched by attached profiles.
type Conversation struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"owner_id"`
	Title              string    `json:"title"`
	PersonaID          string    `json:"persona_id,omitempty"`
	ProfileIDs         []string  `json:"profile_ids,omitempty"`
	SuggestedQuestions []string  `json:"suggested_questions,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Populated on detail reads.
	Messages []Message `json:"messages,omitempty"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title      string   `json:"title"`
	PersonaID  string   `json:"persona_id,omitempty"`
	ProfileIDs []string `json:"profile_ids,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	HasMore       bool           `json:"has_more"`
}
