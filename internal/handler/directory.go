package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/astrodesk/consult-platform/internal/middleware"
	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/service"
	"github.com/astrodesk/consult-platform/pkg/logger"
)

// DirectoryHandler handles the persona and profile endpoints the
// session setup flow selects from.
type DirectoryHandler struct {
	service *service.DirectoryService
	logger  *logger.Logger
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(svc *service.DirectoryService, log *logger.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		service: svc,
		logger:  log,
	}
}

// ListPersonas handles GET /api/v1/personas
func (h *DirectoryHandler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := h.service.ListPersonas(r.Context())
	if err != nil {
		h.logger.Error("failed to list personas")
		writeError(w, http.StatusInternalServerError, "failed to list personas")
		return
	}
	if personas == nil {
		personas = []model.Persona{}
	}
	writeJSON(w, http.StatusOK, personas)
}

// CreatePersona handles POST /api/v1/personas (admin scope)
func (h *DirectoryHandler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MessageCost <= 0 {
		writeError(w, http.StatusBadRequest, "message_cost must be a positive integer")
		return
	}

	persona, err := h.service.CreatePersona(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create persona")
		writeError(w, http.StatusInternalServerError, "failed to create persona")
		return
	}

	writeJSON(w, http.StatusCreated, persona)
}

// ListProfiles handles GET /api/v1/profiles
func (h *DirectoryHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profiles, err := h.service.ListProfiles(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list profiles")
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

// CreateProfile handles POST /api/v1/profiles
func (h *DirectoryHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateName(req.FullName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DateOfBirth.IsZero() {
		writeError(w, http.StatusBadRequest, "date_of_birth is required")
		return
	}

	profile, err := h.service.CreateProfile(r.Context(), userID, &req)
	if err != nil {
		h.logger.Error("failed to create profile")
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

// DeleteProfile handles DELETE /api/v1/profiles/:id
func (h *DirectoryHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	profileID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(profileID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.DeleteProfile(r.Context(), userID, profileID); err != nil {
		writeDomainError(w, err, "failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
