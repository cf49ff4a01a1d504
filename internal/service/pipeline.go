package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astrodesk/consult-platform/internal/llm"
	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/relay"
	"github.com/astrodesk/consult-platform/internal/store"
	"github.com/astrodesk/consult-platform/internal/wallet"
	"github.com/astrodesk/consult-platform/pkg/logger"
	"github.com/astrodesk/consult-platform/pkg/metrics"
)

// ErrGenerationFailed is returned when the model call or the relay
// fails after billing; the debit has been compensated by the time the
// caller sees it.
var ErrGenerationFailed = errors.New("failed to generate response")

// EventPublisher publishes billing audit events. Implementations must
// tolerate being handed events after request failure paths.
type EventPublisher interface {
	PublishBillingEvent(ctx context.Context, event *model.BillingEvent) error
}

// SendResult reports the outcome of a billed message send.
type SendResult struct {
	UserMessage      *model.Message
	AssistantMessage *model.Message
	Cost             int64
	Model            string
}

// MessagePipeline orchestrates a billed streaming message: funds
// check, debit, model stream teed to the caller, persistence, and
// compensating recovery when generation fails after the debit.
type MessagePipeline struct {
	store       store.Store
	ledger      *wallet.Ledger
	llmClient   llm.Client
	publisher   EventPublisher
	defaultCost int64
	modelName   string
	logger      *logger.Logger
}

// NewMessagePipeline creates a pipeline. publisher may be nil, in
// which case billing events are not published.
func NewMessagePipeline(
	st store.Store,
	ledger *wallet.Ledger,
	llmClient llm.Client,
	publisher EventPublisher,
	defaultCost int64,
	modelName string,
	log *logger.Logger,
) *MessagePipeline {
	return &MessagePipeline{
		store:       st,
		ledger:      ledger,
		llmClient:   llmClient,
		publisher:   publisher,
		defaultCost: defaultCost,
		modelName:   modelName,
		logger:      log,
	}
}

// Send processes one inbound user utterance on an existing
// conversation. onStart is invoked with the assistant placeholder's id
// before any content is generated; forward receives each chunk in
// order. User messages are persisted unconditionally and never billed;
// the assistant reply is billed up front and the debit is refunded if
// generation fails before the stream completes. A forward failure
// (caller disconnect) does not refund: the stream keeps accumulating
// and the paid-for answer is still persisted.
func (p *MessagePipeline) Send(
	ctx context.Context,
	userID, conversationID, content string,
	onStart func(assistantMessageID string),
	forward func(chunk string) error,
) (*SendResult, error) {
	conv, err := p.resolveConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	w, err := p.ledger.Ensure(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		OwnerID:        userID,
		Role:           model.RoleUser,
		Content:        content,
		Cost:           0,
		Paid:           true,
		CreatedAt:      now,
	}
	if err := p.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()

	log := p.logger.WithConversation(conversationID)

	if genericTitle(conv.Title) {
		if err := p.store.UpdateConversationTitle(ctx, conversationID, titleFromContent(content)); err != nil {
			log.Warn("failed to retitle conversation", zap.Error(err))
		}
	}

	var persona *model.Persona
	cost := p.defaultCost
	description := "Message fee"
	if conv.PersonaID != "" {
		persona, err = p.store.GetPersona(ctx, conv.PersonaID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("loading persona: %w", err)
		}
		if persona != nil {
			cost = persona.MessageCost
			description = fmt.Sprintf("Message fee for %s", persona.Name)
		}
	}

	// Atomic check-and-decrement: two concurrent sends cannot both
	// pass a balance check that only one can afford.
	w, err = p.ledger.Debit(ctx, w.ID, cost, model.TransactionMessageFee, description)
	if err != nil {
		var insufficient *model.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			metrics.InsufficientCreditsTotal.Inc()
			return nil, insufficient
		}
		return nil, err
	}

	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		OwnerID:        userID,
		Role:           model.RoleAssistant,
		Content:        "",
		Cost:           cost,
		Paid:           true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := p.store.CreateMessage(ctx, assistantMsg); err != nil {
		p.compensate(ctx, w.ID, cost, assistantMsg.ID, conversationID, "placeholder persistence failed", false)
		return nil, ErrGenerationFailed
	}

	if onStart != nil {
		onStart(assistantMsg.ID)
	}
	p.publish(ctx, model.EventMessageBilled, conversationID, assistantMsg.ID, w.ID, cost, "")

	profiles, err := p.attachedProfiles(ctx, conv)
	if err != nil {
		p.compensate(ctx, w.ID, cost, assistantMsg.ID, conversationID, "profile load failed", true)
		return nil, ErrGenerationFailed
	}

	history, err := p.chatHistory(ctx, conversationID, assistantMsg.ID)
	if err != nil {
		p.compensate(ctx, w.ID, cost, assistantMsg.ID, conversationID, "history load failed", true)
		return nil, ErrGenerationFailed
	}

	rel := relay.New(forward, func(full string) {
		if err := p.store.UpdateMessageContent(context.WithoutCancel(ctx), assistantMsg.ID, full); err != nil {
			// The caller already received the bytes; this failure is
			// logged and counted, not surfaced.
			metrics.PersistenceFailuresTotal.Inc()
			log.Error("failed to persist assistant content",
				zap.String("message_id", assistantMsg.ID),
				zap.String("wallet_id", w.ID),
				zap.Int64("amount", cost),
				zap.Error(err),
			)
			p.publish(ctx, model.EventPersistenceFailed, conversationID, assistantMsg.ID, w.ID, cost, err.Error())
		}
	})

	metrics.IncrementStreams()
	defer metrics.DecrementStreams()

	// The generation outlives a client disconnect: the debit is never
	// reversed solely because the caller went away.
	streamCtx := context.WithoutCancel(ctx)
	start := time.Now()
	resp, err := p.llmClient.CompleteStream(streamCtx, &llm.CompletionRequest{
		Model:    p.modelName,
		System:   buildSystemPrompt(persona, profiles),
		Messages: history,
	}, func(token string, index int) error {
		return rel.Write(token)
	})
	if err != nil {
		metrics.RecordLLMStream(p.modelName, "error", time.Since(start).Seconds(), 0, 0)
		p.compensate(ctx, w.ID, cost, assistantMsg.ID, conversationID, err.Error(), true)
		return nil, ErrGenerationFailed
	}

	rel.Close()
	assistantMsg.Content = rel.Text()

	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	metrics.RecordLLMStream(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	p.publish(ctx, model.EventMessageCompleted, conversationID, assistantMsg.ID, w.ID, cost, "")

	return &SendResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Cost:             cost,
		Model:            resp.Model,
	}, nil
}

// compensate reverses the debit and removes the placeholder after a
// post-debit failure. The refund is a separate corrective action, not
// transactional with the debit, so everything needed for manual
// reconciliation is logged and published before any step that can
// fail.
func (p *MessagePipeline) compensate(ctx context.Context, walletID string, amount int64, messageID, conversationID, reason string, deletePlaceholder bool) {
	ctx = context.WithoutCancel(ctx)

	p.logger.Error("generation failed after debit, refunding",
		zap.String("message_id", messageID),
		zap.String("wallet_id", walletID),
		zap.Int64("amount", amount),
		zap.String("reason", reason),
	)
	p.publish(ctx, model.EventGenerationRefund, conversationID, messageID, walletID, amount, reason)

	if _, err := p.ledger.Credit(ctx, walletID, amount, model.TransactionRefund, "Refund for failed response"); err != nil {
		p.logger.Error("refund failed; manual reconciliation required",
			zap.String("message_id", messageID),
			zap.String("wallet_id", walletID),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
		return
	}
	metrics.RefundsTotal.Inc()

	if deletePlaceholder {
		if err := p.store.DeleteMessage(ctx, messageID); err != nil && !errors.Is(err, store.ErrNotFound) {
			p.logger.Error("failed to delete placeholder message",
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
	}
}

func (p *MessagePipeline) publish(ctx context.Context, eventType model.EventType, conversationID, messageID, walletID string, amount int64, reason string) {
	if p.publisher == nil {
		return
	}
	event := &model.BillingEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Type:           eventType,
		ConversationID: conversationID,
		MessageID:      messageID,
		WalletID:       walletID,
		Amount:         amount,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
	if err := p.publisher.PublishBillingEvent(context.WithoutCancel(ctx), event); err != nil {
		p.logger.Warn("failed to publish billing event",
			zap.String("type", string(eventType)),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

func (p *MessagePipeline) resolveConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := p.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if conv.OwnerID != userID {
		return nil, model.ErrForbidden
	}
	return conv, nil
}

func (p *MessagePipeline) attachedProfiles(ctx context.Context, conv *model.Conversation) ([]model.Profile, error) {
	var profiles []model.Profile
	for _, profileID := range conv.ProfileIDs {
		profile, err := p.store.GetProfile(ctx, profileID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

// chatHistory renders the conversation's messages for the model,
// excluding the empty assistant placeholder.
func (p *MessagePipeline) chatHistory(ctx context.Context, conversationID, placeholderID string) ([]llm.ChatMessage, error) {
	msgs, err := p.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	history := make([]llm.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.ID == placeholderID {
			continue
		}
		history = append(history, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return history, nil
}
