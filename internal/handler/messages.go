package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/astrodesk/consult-platform/internal/middleware"
	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/service"
	"github.com/astrodesk/consult-platform/pkg/logger"
)

// MessageHandler handles the billed streaming message endpoints.
type MessageHandler struct {
	pipeline            *service.MessagePipeline
	conversationService *service.ConversationService
	logger              *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(
	pipeline *service.MessagePipeline,
	convSvc *service.ConversationService,
	log *logger.Logger,
) *MessageHandler {
	return &MessageHandler{
		pipeline:            pipeline,
		conversationService: convSvc,
		logger:              log,
	}
}

// Send handles POST /api/v1/conversations/:id/messages
//
// On success the response body is the raw model output, streamed
// chunk-at-a-time, with the assistant placeholder's id in the
// X-Message-Id header before the first byte. Billing failures surface
// as 402 with the current balance and required amount.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Headers stay mutable until the first chunk arrives, so failures
	// before any content still get a proper status code.
	started := false
	_, err := h.pipeline.Send(ctx, userID, conversationID, req.Content,
		func(assistantMessageID string) {
			w.Header().Set("X-Message-Id", assistantMessageID)
		},
		func(chunk string) error {
			if !started {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("X-Accel-Buffering", "no")
				w.WriteHeader(http.StatusOK)
				started = true
			}
			if _, err := w.Write([]byte(chunk)); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		},
	)

	if err != nil {
		if started {
			// The status line is gone; the caller sees a truncated
			// stream and the pipeline has already compensated.
			h.logger.Warn("stream failed after first byte",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
			return
		}
		writeDomainError(w, err, "failed to process message")
		return
	}

	if !started {
		// Empty completion: still a success.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

// Update handles PATCH /api/v1/conversations/:id/messages/:messageId
//
// Used once a stream completes, to persist parsed structured data the
// client extracted from the tail of the response.
func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	conversationID := chi.URLParam(r, "id")
	messageID := chi.URLParam(r, "messageId")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content != nil {
		if err := middleware.ValidateMessageContent(*req.Content); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	msg, err := h.conversationService.UpdateMessage(ctx, userID, conversationID, messageID, &req)
	if err != nil {
		writeDomainError(w, err, "failed to update message")
		return
	}

	writeJSON(w, http.StatusOK, msg)
}
