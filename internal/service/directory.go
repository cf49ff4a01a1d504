package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/astrodesk/consult-platform/internal/model"
	"github.com/astrodesk/consult-platform/internal/store"
)

// DirectoryService handles the read-mostly setup data the session flow
// selects from: personas and the user's profiles.
type DirectoryService struct {
	store store.Store
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(st store.Store) *DirectoryService {
	return &DirectoryService{store: st}
}

// ListPersonas retrieves all active personas.
func (s *DirectoryService) ListPersonas(ctx context.Context) ([]model.Persona, error) {
	personas, err := s.store.ListActivePersonas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing personas: %w", err)
	}
	return personas, nil
}

// CreatePersona registers a new persona. Admin-only at the HTTP layer.
func (s *DirectoryService) CreatePersona(ctx context.Context, req *model.CreatePersonaRequest) (*model.Persona, error) {
	persona := &model.Persona{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Name:         req.Name,
		Description:  req.Description,
		Avatar:       req.Avatar,
		SystemPrompt: req.SystemPrompt,
		MessageCost:  req.MessageCost,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreatePersona(ctx, persona); err != nil {
		return nil, fmt.Errorf("creating persona: %w", err)
	}
	return persona, nil
}

// ListProfiles retrieves the user's profiles.
func (s *DirectoryService) ListProfiles(ctx context.Context, userID string) ([]model.Profile, error) {
	profiles, err := s.store.ListProfilesByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	return profiles, nil
}

// CreateProfile creates a profile owned by userID.
func (s *DirectoryService) CreateProfile(ctx context.Context, userID string, req *model.CreateProfileRequest) (*model.Profile, error) {
	profile := &model.Profile{
		ID:           uuid.Must(uuid.NewV7()).String(),
		OwnerID:      userID,
		FullName:     req.FullName,
		DateOfBirth:  req.DateOfBirth,
		PlaceOfBirth: req.PlaceOfBirth,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	return profile, nil
}

// DeleteProfile removes a profile after verifying ownership.
func (s *DirectoryService) DeleteProfile(ctx context.Context, userID, profileID string) error {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("loading profile: %w", err)
	}
	if profile.OwnerID != userID {
		return model.ErrForbidden
	}
	if err := s.store.DeleteProfile(ctx, profileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}
