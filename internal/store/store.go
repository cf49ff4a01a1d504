// Package store provides persistence for wallets, personas, profiles,
// conversations and messages.
package store

import (
	"context"
	"errors"

	"github.com/astrodesk/consult-platform/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for the platform.
type Store interface {
	// Wallets. EnsureWallet is idempotent: it creates the wallet with
	// the welcome balance and a welcome_bonus transaction at most once
	// per owner, serialized by a uniqueness constraint. DebitWallet is
	// an atomic check-and-decrement.
	EnsureWallet(ctx context.Context, ownerID string, welcomeBonus int64) (*model.Wallet, bool, error)
	GetWalletByOwner(ctx context.Context, ownerID string) (*model.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*model.Wallet, error)
	DebitWallet(ctx context.Context, walletID string, amount int64, txType model.TransactionType, description string) (*model.Wallet, error)
	CreditWallet(ctx context.Context, walletID string, amount int64, txType model.TransactionType, description string) (*model.Wallet, error)
	ListTransactions(ctx context.Context, walletID string, limit int) ([]model.Transaction, error)

	// Personas
	CreatePersona(ctx context.Context, persona *model.Persona) error
	GetPersona(ctx context.Context, id string) (*model.Persona, error)
	ListActivePersonas(ctx context.Context) ([]model.Persona, error)

	// Profiles
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	ListProfilesByOwner(ctx context.Context, ownerID string) ([]model.Profile, error)
	DeleteProfile(ctx context.Context, id string) error

	// Conversations
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversationsByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Conversation, int, error)
	UpdateConversationTitle(ctx context.Context, id, title string) error
	UpdateSuggestedQuestions(ctx context.Context, id string, questions []string) error
	DeleteConversation(ctx context.Context, id string) error

	// Messages
	CreateMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	UpdateMessageContent(ctx context.Context, id, content string) error
	DeleteMessage(ctx context.Context, id string) error
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	Close() error
}
