package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/store"
	"github.com/astrodesk/consult-platform/pkg/logger"
)

func newTestLedger(t *testing.T, welcomeBonus int64) *Ledger {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log, err := logger.New("error")
	require.NoError(t, err)
	return NewLedger(st, welcomeBonus, log)
}

func TestEnsureGrantsWelcomeBonusOnce(t *testing.T) {
	ledger := newTestLedger(t, 50)
	ctx := context.Background()

	w, err := ledger.Ensure(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), w.Balance)

	again, err := ledger.Ensure(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)

	_, txns, err := ledger.Get(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.TransactionWelcomeBonus, txns[0].Type)
}

func TestDebitRejectsNonPositiveAmounts(t *testing.T) {
	ledger := newTestLedger(t, 50)
	ctx := context.Background()

	w, err := ledger.Ensure(ctx, "user-1")
	require.NoError(t, err)

	_, err = ledger.Debit(ctx, w.ID, 0, model.TransactionMessageFee, "fee")
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = ledger.Debit(ctx, w.ID, -5, model.TransactionMessageFee, "fee")
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = ledger.Credit(ctx, w.ID, 0, model.TransactionRecharge, "recharge")
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestDebitToZeroThenInsufficient(t *testing.T) {
	ledger := newTestLedger(t, 10)
	ctx := context.Background()

	w, err := ledger.Ensure(ctx, "user-1")
	require.NoError(t, err)

	w, err = ledger.Debit(ctx, w.ID, 10, model.TransactionMessageFee, "fee")
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)

	_, err = ledger.Debit(ctx, w.ID, 10, model.TransactionMessageFee, "fee")
	var insufficient *model.InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(0), insufficient.Balance)
	assert.Equal(t, int64(10), insufficient.Required)
}

func TestRefundRestoresBalance(t *testing.T) {
	ledger := newTestLedger(t, 50)
	ctx := context.Background()

	w, err := ledger.Ensure(ctx, "user-1")
	require.NoError(t, err)

	w, err = ledger.Debit(ctx, w.ID, 15, model.TransactionMessageFee, "fee")
	require.NoError(t, err)
	assert.Equal(t, int64(35), w.Balance)

	w, err = ledger.Credit(ctx, w.ID, 15, model.TransactionRefund, "Refund for failed response")
	require.NoError(t, err)
	assert.Equal(t, int64(50), w.Balance)

	_, txns, err := ledger.Get(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	var sum int64
	for _, tx := range txns {
		sum += tx.Amount
	}
	assert.Equal(t, w.Balance, sum)
}
