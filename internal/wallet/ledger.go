// Package wallet implements the prepaid credit ledger.
package wallet

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/store"
	"github.com/astrodesk/consult-platform/pkg/logger"
	"github.com/astrodesk/consult-platform/pkg/metrics"
)

// Ledger owns wallet balances and their append-only transaction
// history. Every balance change appends a matching transaction in the
// same storage transaction, so balance == sum(transactions) holds at
// all times.
type Ledger struct {
	store        store.Store
	welcomeBonus int64
	logger       *logger.Logger
}

// NewLedger creates a ledger granting welcomeBonus credits on first
// provisioning.
func NewLedger(st store.Store, welcomeBonus int64, log *logger.Logger) *Ledger {
	return &Ledger{
		store:        st,
		welcomeBonus: welcomeBonus,
		logger:       log,
	}
}

// Ensure returns the owner's wallet, provisioning it with the welcome
// grant if absent. Safe under concurrent calls for the same owner.
func (l *Ledger) Ensure(ctx context.Context, ownerID string) (*model.Wallet, error) {
	wallet, created, err := l.store.EnsureWallet(ctx, ownerID, l.welcomeBonus)
	if err != nil {
		return nil, fmt.Errorf("ensuring wallet: %w", err)
	}
	if created {
		l.logger.Info("wallet provisioned",
			zap.String("wallet_id", wallet.ID),
			zap.Int64("welcome_bonus", l.welcomeBonus),
		)
		metrics.RecordWalletTransaction(string(model.TransactionWelcomeBonus), l.welcomeBonus)
	}
	return wallet, nil
}

// Debit charges amount credits, failing with
// *model.InsufficientCreditsError when the balance is too low. The
// check and decrement are atomic in the store.
func (l *Ledger) Debit(ctx context.Context, walletID string, amount int64, txType model.TransactionType, description string) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	wallet, err := l.store.DebitWallet(ctx, walletID, amount, txType, description)
	if err != nil {
		return nil, err
	}
	metrics.RecordWalletTransaction(string(txType), -amount)
	return wallet, nil
}

// Credit adds amount credits. Used for recharges and for
// refund-on-failure compensation.
func (l *Ledger) Credit(ctx context.Context, walletID string, amount int64, txType model.TransactionType, description string) (*model.Wallet, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	wallet, err := l.store.CreditWallet(ctx, walletID, amount, txType, description)
	if err != nil {
		return nil, err
	}
	metrics.RecordWalletTransaction(string(txType), amount)
	return wallet, nil
}

// Get returns the owner's wallet with its most recent transactions,
// provisioning the wallet if it does not exist yet.
func (l *Ledger) Get(ctx context.Context, ownerID string, txLimit int) (*model.Wallet, []model.Transaction, error) {
	wallet, err := l.Ensure(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	txns, err := l.store.ListTransactions(ctx, wallet.ID, txLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("listing transactions: %w", err)
	}
	return wallet, txns, nil
}
