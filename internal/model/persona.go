package model

import (
	"time"
)

// Persona is a named system-prompt preset with a per-reply credit cost.
// Personas are shared, read-mostly records referenced by conversations.
type Persona struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Avatar       string    `json:"avatar,omitempty"`
	SystemPrompt string    `json:"system_prompt"`
	MessageCost  int64     `json:"message_cost"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreatePersonaRequest is the admin request to register a persona.
type CreatePersonaRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Avatar       string `json:"avatar,omitempty"`
	SystemPrompt string `json:"system_prompt"`
	MessageCost  int64  `json:"message_cost"`
}
