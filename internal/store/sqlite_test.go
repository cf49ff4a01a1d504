package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrodesk/consult-platform/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func balanceFromTransactions(t *testing.T, s *SQLiteStore, walletID string) int64 {
	t.Helper()
	txns, err := s.ListTransactions(context.Background(), walletID, 1000)
	require.NoError(t, err)
	var sum int64
	for _, tx := range txns {
		sum += tx.Amount
	}
	return sum
}

func TestEnsureWalletProvisionsOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w1, created, err := s.EnsureWallet(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(50), w1.Balance)

	txns, err := s.ListTransactions(ctx, w1.ID, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TransactionWelcomeBonus, txns[0].Type)
	assert.Equal(t, int64(50), txns[0].Amount)

	w2, created, err := s.EnsureWallet(ctx, "user-1", 50)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, w1.ID, w2.ID)
	assert.Equal(t, int64(50), w2.Balance)

	txns, err = s.ListTransactions(ctx, w1.ID, 10)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestDebitWallet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, _, err := s.EnsureWallet(ctx, "user-1", 10)
	require.NoError(t, err)

	w, err = s.DebitWallet(ctx, w.ID, 10, model.TransactionMessageFee, "Message fee")
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)

	// A second debit of 10 fails and leaves the balance unchanged.
	_, err = s.DebitWallet(ctx, w.ID, 10, model.TransactionMessageFee, "Message fee")
	var insufficient *model.InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(0), insufficient.Balance)
	assert.Equal(t, int64(10), insufficient.Required)

	got, err := s.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Balance)
	assert.Equal(t, got.Balance, balanceFromTransactions(t, s, w.ID))
}

func TestDebitWalletNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DebitWallet(context.Background(), uuid.NewString(), 5, model.TransactionMessageFee, "fee")
	assert.ErrorIs(t, err, model.ErrWalletNotFound)
}

func TestCreditWallet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, _, err := s.EnsureWallet(ctx, "user-1", 50)
	require.NoError(t, err)

	w, err = s.CreditWallet(ctx, w.ID, 100, model.TransactionRecharge, "Wallet recharge")
	require.NoError(t, err)
	assert.Equal(t, int64(150), w.Balance)
	assert.Equal(t, w.Balance, balanceFromTransactions(t, s, w.ID))

	_, err = s.CreditWallet(ctx, uuid.NewString(), 100, model.TransactionRecharge, "Wallet recharge")
	assert.ErrorIs(t, err, model.ErrWalletNotFound)
}

func TestBalanceMatchesLedgerAcrossOperations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, _, err := s.EnsureWallet(ctx, "user-1", 50)
	require.NoError(t, err)

	_, err = s.DebitWallet(ctx, w.ID, 15, model.TransactionMessageFee, "fee")
	require.NoError(t, err)
	_, err = s.CreditWallet(ctx, w.ID, 15, model.TransactionRefund, "refund")
	require.NoError(t, err)
	_, err = s.CreditWallet(ctx, w.ID, 25, model.TransactionRecharge, "recharge")
	require.NoError(t, err)
	w, err = s.DebitWallet(ctx, w.ID, 40, model.TransactionMessageFee, "fee")
	require.NoError(t, err)

	assert.Equal(t, int64(35), w.Balance)
	assert.Equal(t, w.Balance, balanceFromTransactions(t, s, w.ID))
}

func TestListTransactionsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, _, err := s.EnsureWallet(ctx, "user-1", 50)
	require.NoError(t, err)
	_, err = s.DebitWallet(ctx, w.ID, 10, model.TransactionMessageFee, "first fee")
	require.NoError(t, err)
	_, err = s.CreditWallet(ctx, w.ID, 5, model.TransactionRecharge, "top up")
	require.NoError(t, err)

	txns, err := s.ListTransactions(ctx, w.ID, 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, model.TransactionRecharge, txns[0].Type)
	assert.Equal(t, model.TransactionMessageFee, txns[1].Type)
}

func createTestConversation(t *testing.T, s *SQLiteStore, ownerID string, profileIDs ...string) *model.Conversation {
	t.Helper()
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:         uuid.Must(uuid.NewV7()).String(),
		OwnerID:    ownerID,
		Title:      "New Consultation",
		ProfileIDs: profileIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateConversation(context.Background(), conv))
	return conv
}

func TestConversationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	profile := &model.Profile{
		ID:           uuid.Must(uuid.NewV7()).String(),
		OwnerID:      "user-1",
		FullName:     "Asha Rao",
		DateOfBirth:  time.Date(1990, 4, 12, 6, 30, 0, 0, time.UTC),
		PlaceOfBirth: "Pune",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.CreateProfile(ctx, profile))

	conv := createTestConversation(t, s, "user-1", profile.ID)

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.Title, got.Title)
	assert.Equal(t, []string{profile.ID}, got.ProfileIDs)

	msg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		OwnerID:        "user-1",
		Role:           model.RoleUser,
		Content:        "What does my chart say?",
		Paid:           true,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.CreateMessage(ctx, msg))

	msgs, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.Content, msgs[0].Content)

	require.NoError(t, s.UpdateSuggestedQuestions(ctx, conv.ID, []string{"What about next year?"}))
	got, err = s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"What about next year?"}, got.SuggestedQuestions)

	// Delete cascades to messages and profile links.
	require.NoError(t, s.DeleteConversation(ctx, conv.ID))
	_, err = s.GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	msgs, err = s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestUpdateMessageContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv := createTestConversation(t, s, "user-1")
	msg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		OwnerID:        "user-1",
		Role:           model.RoleAssistant,
		Content:        "",
		Cost:           10,
		Paid:           true,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.CreateMessage(ctx, msg))

	require.NoError(t, s.UpdateMessageContent(ctx, msg.ID, "Om Namah Shivaya"))
	got, err := s.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Om Namah Shivaya", got.Content)
	assert.Equal(t, int64(10), got.Cost)

	assert.ErrorIs(t, s.UpdateMessageContent(ctx, uuid.NewString(), "x"), ErrNotFound)
}

func TestListConversationsByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTestConversation(t, s, "user-1")
	createTestConversation(t, s, "user-1")
	createTestConversation(t, s, "user-2")

	convs, total, err := s.ListConversationsByOwner(ctx, "user-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, convs, 2)

	convs, total, err = s.ListConversationsByOwner(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, convs, 1)
}
