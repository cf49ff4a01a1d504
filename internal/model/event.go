package model

import (
	"time"
)

// EventType represents the type of billing/conversation event.
type EventType string

const (
	EventMessageBilled     EventType = "message_billed"
	EventMessageCompleted  EventType = "message_completed"
	EventGenerationRefund  EventType = "generation_refund"
	EventPersistenceFailed EventType = "persistence_failed"
)

// BillingEvent is the audit record published for every billed message
// outcome. Refund events carry enough detail for manual reconciliation
// when compensation does not complete.
type BillingEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	WalletID       string    `json:"wallet_id"`
	Amount         int64     `json:"amount"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
