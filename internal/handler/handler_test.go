package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrodesk/consult-platform/internal/llm"
	"github.com/astrodesk/consult-platform/internal/middleware"
	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/service"
	"github.com/astrodesk/consult-platform/internal/store"
	"github.com/astrodesk/consult-platform/internal/wallet"
	"github.com/astrodesk/consult-platform/pkg/logger"
)

type stubLLM struct {
	chunks []string
}

func (s *stubLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: strings.Join(s.chunks, "")}, nil
}

func (s *stubLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	for i, chunk := range s.chunks {
		if err := callback(chunk, i); err != nil {
			return nil, err
		}
	}
	return &llm.CompletionResponse{Content: strings.Join(s.chunks, ""), Model: "stub"}, nil
}

func (s *stubLLM) Name() string     { return "stub" }
func (s *stubLLM) Models() []string { return []string{"stub"} }

type testEnv struct {
	store  *store.SQLiteStore
	ledger *wallet.Ledger
	router *chi.Mux
}

// authAs fakes the auth middleware for a given user.
func authAs(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestEnv(t *testing.T, welcomeBonus int64, client llm.Client) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log, err := logger.New("error")
	require.NoError(t, err)

	ledger := wallet.NewLedger(st, welcomeBonus, log)
	pipeline := service.NewMessagePipeline(st, ledger, client, nil, 10, "stub", log)
	convSvc := service.NewConversationService(st, log)

	walletHandler := NewWalletHandler(ledger, 50, log)
	messageHandler := NewMessageHandler(pipeline, convSvc, log)

	r := chi.NewRouter()
	r.Use(authAs("user-1"))
	r.Get("/wallet", walletHandler.Get)
	r.Post("/wallet", walletHandler.Recharge)
	r.Post("/conversations/{id}/messages", messageHandler.Send)

	return &testEnv{store: st, ledger: ledger, router: r}
}

func (e *testEnv) seedConversation(t *testing.T, personaCost int64) string {
	t.Helper()
	ctx := context.Background()

	persona := &model.Persona{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Name:         "Pandit Surya",
		SystemPrompt: "You are a patient vedic astrologer.",
		MessageCost:  personaCost,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, e.store.CreatePersona(ctx, persona))

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		OwnerID:   "user-1",
		Title:     "Consultation with Pandit Surya",
		PersonaID: persona.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.store.CreateConversation(ctx, conv))
	return conv.ID
}

func TestWalletGetProvisionsOnce(t *testing.T) {
	env := newTestEnv(t, 50, &stubLLM{})

	var resp model.WalletResponse
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wallet", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}

	assert.Equal(t, int64(50), resp.Balance)
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, model.TransactionWelcomeBonus, resp.Transactions[0].Type)
}

func TestWalletRecharge(t *testing.T) {
	env := newTestEnv(t, 50, &stubLLM{})

	body := bytes.NewBufferString(`{"amount": 100}`)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/wallet", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.WalletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(150), resp.Balance)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, model.TransactionRecharge, resp.Transactions[0].Type)
	assert.Equal(t, int64(100), resp.Transactions[0].Amount)
}

func TestWalletRechargeRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t, 50, &stubLLM{})

	for _, amount := range []int64{0, -25} {
		body := bytes.NewBufferString(fmt.Sprintf(`{"amount": %d}`, amount))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/wallet", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestSendMessageStreams(t *testing.T) {
	env := newTestEnv(t, 50, &stubLLM{chunks: []string{"Om ", "Namah ", "Shivaya"}})
	convID := env.seedConversation(t, 20)

	body := bytes.NewBufferString(`{"content": "What does my chart say?"}`)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+convID+"/messages", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Om Namah Shivaya", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Message-Id"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	// The streamed bytes were billed.
	w, _, err := env.ledger.Get(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(30), w.Balance)
}

func TestSendMessageInsufficientCredits(t *testing.T) {
	env := newTestEnv(t, 5, &stubLLM{chunks: []string{"never"}})
	convID := env.seedConversation(t, 20)

	body := bytes.NewBufferString(`{"content": "Hello"}`)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+convID+"/messages", body))

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var resp insufficientCreditsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient credits", resp.Error)
	assert.Equal(t, int64(5), resp.Balance)
	assert.Equal(t, int64(20), resp.Required)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	env := newTestEnv(t, 50, &stubLLM{chunks: []string{"hi"}})

	body := bytes.NewBufferString(`{"content": "Hello"}`)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+uuid.NewString()+"/messages", body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	env := newTestEnv(t, 50, &stubLLM{chunks: []string{"hi"}})
	convID := env.seedConversation(t, 20)

	body := bytes.NewBufferString(`{"content": ""}`)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+convID+"/messages", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
