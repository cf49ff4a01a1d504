package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrodesk/consult-platform/internal/model"
)

type fakeBackend struct {
	personas []model.Persona
	profiles []model.Profile

	created     *model.CreateConversationRequest
	createCalls int
}

func (f *fakeBackend) ListActivePersonas(ctx context.Context) ([]model.Persona, error) {
	return f.personas, nil
}

func (f *fakeBackend) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	return f.profiles, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	f.created = req
	f.createCalls++
	return &model.Conversation{
		ID:         "conv-1",
		Title:      req.Title,
		PersonaID:  req.PersonaID,
		ProfileIDs: req.ProfileIDs,
	}, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		personas: []model.Persona{
			{ID: "p-1", Name: "Pandit Surya", MessageCost: 20, IsActive: true},
		},
		profiles: []model.Profile{
			{ID: "k-1", OwnerID: "user-1", FullName: "Asha Rao", DateOfBirth: time.Date(1990, 4, 12, 6, 30, 0, 0, time.UTC), PlaceOfBirth: "Pune"},
		},
	}
}

func TestLinearSetupFlow(t *testing.T) {
	backend := newBackend()
	m := NewMachine(backend, true)
	ctx := context.Background()

	assert.Equal(t, StateInitial, m.State())
	require.NoError(t, m.Start(ctx))
	assert.Equal(t, StateSelectingPersona, m.State())
	assert.Len(t, m.Personas(), 1)

	require.NoError(t, m.SelectPersona(ctx, "p-1"))
	assert.Equal(t, StateSelectingProfile, m.State())
	assert.Len(t, m.Profiles(), 1)

	require.NoError(t, m.SelectProfiles(ctx, "k-1"))
	assert.Equal(t, StateReady, m.State())
	require.NotNil(t, m.Conversation())
	assert.Equal(t, "Consultation with Pandit Surya for Asha Rao", backend.created.Title)
	assert.Equal(t, "p-1", backend.created.PersonaID)
	assert.Equal(t, []string{"k-1"}, backend.created.ProfileIDs)

	m.NoteMessageSent()
	assert.Equal(t, StateChatting, m.State())

	// Chatting is terminal for setup; sends stay permitted.
	m.NoteMessageSent()
	assert.Equal(t, StateChatting, m.State())
}

func TestSendGating(t *testing.T) {
	backend := newBackend()
	m := NewMachine(backend, true)
	ctx := context.Background()

	// No network call is made before the conversation exists.
	var stateErr *StateError
	assert.False(t, m.CanSend())
	require.ErrorAs(t, m.CheckSend(), &stateErr)
	assert.Equal(t, StateInitial, stateErr.State)

	require.NoError(t, m.Start(ctx))
	assert.False(t, m.CanSend())

	require.NoError(t, m.SelectPersona(ctx, "p-1"))
	assert.False(t, m.CanSend())
	assert.Equal(t, 0, backend.createCalls)

	require.NoError(t, m.SelectProfiles(ctx, "k-1"))
	assert.True(t, m.CanSend())
	m.NoteMessageSent()
	assert.True(t, m.CanSend())
}

func TestTransitionsAreIrreversible(t *testing.T) {
	backend := newBackend()
	m := NewMachine(backend, true)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	assert.Error(t, m.Start(ctx))

	require.NoError(t, m.SelectPersona(ctx, "p-1"))
	assert.Error(t, m.SelectPersona(ctx, "p-1"))

	require.NoError(t, m.SelectProfiles(ctx, "k-1"))
	assert.Error(t, m.SelectProfiles(ctx, "k-1"))
	assert.Error(t, m.Proceed(ctx))
	assert.Equal(t, 1, backend.createCalls)
}

func TestSelectUnknownPersona(t *testing.T) {
	m := NewMachine(newBackend(), true)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	assert.Error(t, m.SelectPersona(ctx, "nope"))
	assert.Equal(t, StateSelectingPersona, m.State())
}

func TestProceedWithoutProfile(t *testing.T) {
	backend := newBackend()
	m := NewMachine(backend, true)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.SelectPersona(ctx, "p-1"))
	require.NoError(t, m.Proceed(ctx))

	assert.Equal(t, StateReady, m.State())
	assert.Empty(t, backend.created.ProfileIDs)
	assert.Equal(t, "Consultation with Pandit Surya", backend.created.Title)
}

func TestProceedRejectedWhenProfileRequired(t *testing.T) {
	backend := newBackend()
	m := NewMachine(backend, false)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.SelectPersona(ctx, "p-1"))

	assert.ErrorIs(t, m.Proceed(ctx), ErrNoProfileNotAllowed)
	assert.Equal(t, StateSelectingProfile, m.State())
	assert.Equal(t, 0, backend.createCalls)

	// Selecting a profile still completes setup.
	require.NoError(t, m.SelectProfiles(ctx, "k-1"))
	assert.Equal(t, StateReady, m.State())
}
