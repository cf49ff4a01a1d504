package handler

import (
	"encoding/json"
	"net/http"

	"github.com/astrodesk/consult-platform/internal/middleware"
	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/wallet"
	"github.com/astrodesk/consult-platform/pkg/logger"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	ledger  *wallet.Ledger
	txLimit int
	logger  *logger.Logger
}

// NewWalletHandler creates a new wallet handler.
func NewWalletHandler(ledger *wallet.Ledger, txLimit int, log *logger.Logger) *WalletHandler {
	return &WalletHandler{
		ledger:  ledger,
		txLimit: txLimit,
		logger:  log,
	}
}

// Get handles GET /api/v1/wallet
//
// Lazily provisions a wallet with the welcome bonus if none exists.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	wlt, txns, err := h.ledger.Get(ctx, userID, h.txLimit)
	if err != nil {
		h.logger.Error("failed to get wallet")
		writeError(w, http.StatusInternalServerError, "failed to get wallet")
		return
	}

	if txns == nil {
		txns = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, model.WalletResponse{
		Balance:      wlt.Balance,
		Transactions: txns,
	})
}

// Recharge handles POST /api/v1/wallet
func (h *WalletHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, model.ErrInvalidAmount.Error())
		return
	}

	wlt, err := h.ledger.Ensure(ctx, userID)
	if err != nil {
		h.logger.Error("failed to ensure wallet")
		writeError(w, http.StatusInternalServerError, "failed to recharge wallet")
		return
	}

	description := req.Description
	if description == "" {
		description = "Wallet recharge"
	}

	wlt, err = h.ledger.Credit(ctx, wlt.ID, req.Amount, model.TransactionRecharge, description)
	if err != nil {
		writeDomainError(w, err, "failed to recharge wallet")
		return
	}

	_, txns, err := h.ledger.Get(ctx, userID, h.txLimit)
	if err != nil {
		h.logger.Error("failed to list transactions")
		txns = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, model.WalletResponse{
		Balance:      wlt.Balance,
		Transactions: txns,
	})
}
