package model

import (
	"time"
)

// TransactionType classifies a wallet ledger entry.
type TransactionType string

const (
	TransactionWelcomeBonus TransactionType = "welcome_bonus"
	TransactionMessageFee   TransactionType = "message_fee"
	TransactionRefund       TransactionType = "refund"
	TransactionRecharge     TransactionType = "recharge"
)

// Wallet holds a user's prepaid credit balance.
type Wallet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is an immutable ledger entry. Positive amounts are
// credits, negative amounts are debits; the sum of a wallet's
// transaction amounts equals its balance.
type Transaction struct {
	ID          string          `json:"id"`
	WalletID    string          `json:"wallet_id"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WalletResponse is the wallet endpoint payload.
type WalletResponse struct {
	Balance      int64         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// RechargeRequest is the request to credit a wallet.
type RechargeRequest struct {
	Amount      int64  `json:"amount"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}
