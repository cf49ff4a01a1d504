// Package service provides business logic for the consultation platform.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/store"
	"github.com/astrodesk/consult-platform/pkg/logger"
	"github.com/astrodesk/consult-platform/pkg/metrics"
)

// ConversationService handles conversation operations.
type ConversationService struct {
	store  store.Store
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(st store.Store, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  st,
		logger: log,
	}
}

// Create creates a new conversation. The persona must exist and be
// active; every attached profile must belong to the requesting user.
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if req.PersonaID != "" {
		persona, err := s.store.GetPersona(ctx, req.PersonaID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("persona: %w", model.ErrNotFound)
			}
			return nil, fmt.Errorf("loading persona: %w", err)
		}
		if !persona.IsActive {
			return nil, fmt.Errorf("persona: %w", model.ErrNotFound)
		}
	}

	for _, profileID := range req.ProfileIDs {
		profile, err := s.store.GetProfile(ctx, profileID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("profile: %w", model.ErrNotFound)
			}
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		if profile.OwnerID != userID {
			return nil, model.ErrForbidden
		}
	}

	now := time.Now().UTC()
	title := req.Title
	if title == "" {
		title = "New Consultation"
	}

	conv := &model.Conversation{
		ID:         uuid.Must(uuid.NewV7()).String(),
		OwnerID:    userID,
		Title:      title,
		PersonaID:  req.PersonaID,
		ProfileIDs: req.ProfileIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("persona_id", conv.PersonaID),
		zap.Int("profiles", len(conv.ProfileIDs)),
	)
	metrics.ConversationsTotal.Inc()

	return conv, nil
}

// Get retrieves a conversation owned by userID, with its messages.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.resolve(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	conv.Messages = msgs
	return conv, nil
}

// List retrieves the user's conversations.
func (s *ConversationService) List(ctx context.Context, userID string, limit, offset int) (*model.ListConversationsResponse, error) {
	convs, total, err := s.store.ListConversationsByOwner(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return &model.ListConversationsResponse{
		Conversations: convs,
		Total:         total,
		HasMore:       offset+len(convs) < total,
	}, nil
}

// Delete removes a conversation and, by cascade, its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if _, err := s.resolve(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(ctx, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

// UpdateMessage patches a stored message's content and/or the
// conversation's suggested follow-up questions. Used after a stream
// completes to persist structured data parsed from the response tail.
func (s *ConversationService) UpdateMessage(ctx context.Context, userID, conversationID, messageID string, req *model.UpdateMessageRequest) (*model.Message, error) {
	if _, err := s.resolve(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("loading message: %w", err)
	}
	if msg.ConversationID != conversationID {
		return nil, model.ErrNotFound
	}

	if req.Content != nil {
		if err := s.store.UpdateMessageContent(ctx, messageID, *req.Content); err != nil {
			return nil, fmt.Errorf("updating message content: %w", err)
		}
		msg.Content = *req.Content
	}

	if req.SuggestedQuestions != nil {
		if err := s.store.UpdateSuggestedQuestions(ctx, conversationID, req.SuggestedQuestions); err != nil {
			return nil, fmt.Errorf("updating suggested questions: %w", err)
		}
	}

	return msg, nil
}

// resolve loads a conversation and verifies ownership. Absent
// conversations map to ErrNotFound, foreign ones to ErrForbidden.
func (s *ConversationService) resolve(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
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
