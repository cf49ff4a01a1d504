// Package session implements the client-side setup flow for opening a
// billed conversation: pick a persona, pick a profile, then chat. The
// machine is linear and never returns to an earlier state.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/astrodesk/consult-platform/internal/model"
)

// State is a setup-flow state.
type State string

const (
	StateInitial          State = "initial"
	StateSelectingPersona State = "selecting_persona"
	StateSelectingProfile State = "selecting_profile"
	StateReady            State = "ready"
	StateChatting         State = "chatting"
)

// ErrNoProfileNotAllowed is returned by Proceed when the machine was
// configured to require at least one profile.
var ErrNoProfileNotAllowed = errors.New("a profile must be selected before chatting")

// StateError reports an operation attempted in the wrong state.
type StateError struct {
	State State
	Op    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Op, e.State)
}

// PersonaLister fetches the active persona list.
type PersonaLister interface {
	ListActivePersonas(ctx context.Context) ([]model.Persona, error)
}

// ProfileLister fetches the user's profiles.
type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]model.Profile, error)
}

// ConversationCreator opens a conversation server-side.
type ConversationCreator interface {
	CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error)
}

// Backend is the API surface the machine drives.
type Backend interface {
	PersonaLister
	ProfileLister
	ConversationCreator
}

// Machine walks a new conversation through persona selection, profile
// selection and into chat. It gates message sends client-side: CanSend
// is false until the conversation exists.
type Machine struct {
	backend        Backend
	allowNoProfile bool

	state        State
	personas     []model.Persona
	profiles     []model.Profile
	persona      *model.Persona
	selected     []model.Profile
	conversation *model.Conversation
}

// NewMachine creates a machine in the Initial state. allowNoProfile
// permits Proceed, the zero-profile path.
func NewMachine(backend Backend, allowNoProfile bool) *Machine {
	return &Machine{
		backend:        backend,
		allowNoProfile: allowNoProfile,
		state:          StateInitial,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Personas returns the fetched persona list.
func (m *Machine) Personas() []model.Persona {
	return m.personas
}

// Profiles returns the fetched profile list.
func (m *Machine) Profiles() []model.Profile {
	return m.profiles
}

// Conversation returns the conversation created when setup completed,
// or nil before Ready.
func (m *Machine) Conversation() *model.Conversation {
	return m.conversation
}

// Start fetches the active persona list and enters SelectingPersona.
// An empty list is a degraded but valid state.
func (m *Machine) Start(ctx context.Context) error {
	if m.state != StateInitial {
		return &StateError{State: m.state, Op: "start"}
	}
	personas, err := m.backend.ListActivePersonas(ctx)
	if err != nil {
		return fmt.Errorf("fetching personas: %w", err)
	}
	m.personas = personas
	m.state = StateSelectingPersona
	return nil
}

// SelectPersona records the chosen persona, fetches the profile list
// and enters SelectingProfile.
func (m *Machine) SelectPersona(ctx context.Context, personaID string) error {
	if m.state != StateSelectingPersona {
		return &StateError{State: m.state, Op: "select persona"}
	}
	for i := range m.personas {
		if m.personas[i].ID == personaID {
			m.persona = &m.personas[i]
			break
		}
	}
	if m.persona == nil {
		return fmt.Errorf("persona %s is not in the active list", personaID)
	}
	profiles, err := m.backend.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("fetching profiles: %w", err)
	}
	m.profiles = profiles
	m.state = StateSelectingProfile
	return nil
}

// SelectProfiles attaches the chosen profiles, creates the conversation
// and enters Ready.
func (m *Machine) SelectProfiles(ctx context.Context, profileIDs ...string) error {
	if m.state != StateSelectingProfile {
		return &StateError{State: m.state, Op: "select profile"}
	}
	if len(profileIDs) == 0 {
		return m.Proceed(ctx)
	}
	var selected []model.Profile
	for _, id := range profileIDs {
		found := false
		for _, p := range m.profiles {
			if p.ID == id {
				selected = append(selected, p)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("profile %s is not in the owner's list", id)
		}
	}
	m.selected = selected
	return m.createConversation(ctx)
}

// Proceed completes setup without attaching a profile. Allowed only
// when the machine was built with allowNoProfile.
func (m *Machine) Proceed(ctx context.Context) error {
	if m.state != StateSelectingProfile {
		return &StateError{State: m.state, Op: "proceed"}
	}
	if !m.allowNoProfile {
		return ErrNoProfileNotAllowed
	}
	m.selected = nil
	return m.createConversation(ctx)
}

func (m *Machine) createConversation(ctx context.Context) error {
	req := &model.CreateConversationRequest{
		Title: deriveTitle(m.persona, m.selected),
	}
	if m.persona != nil {
		req.PersonaID = m.persona.ID
	}
	for _, p := range m.selected {
		req.ProfileIDs = append(req.ProfileIDs, p.ID)
	}

	conv, err := m.backend.CreateConversation(ctx, req)
	if err != nil {
		return fmt.Errorf("creating conversation: %w", err)
	}
	m.conversation = conv
	m.state = StateReady
	return nil
}

// CanSend reports whether a chat message may be sent to the pipeline.
// Only Ready and Chatting permit it; earlier states reject before any
// network call.
func (m *Machine) CanSend() bool {
	return m.state == StateReady || m.state == StateChatting
}

// CheckSend returns a StateError when sending is not permitted.
func (m *Machine) CheckSend() error {
	if !m.CanSend() {
		return &StateError{State: m.state, Op: "send message"}
	}
	return nil
}

// NoteMessageSent records the first successful real send, moving
// Ready to the terminal Chatting state.
func (m *Machine) NoteMessageSent() {
	if m.state == StateReady {
		m.state = StateChatting
	}
}

func deriveTitle(persona *model.Persona, profiles []model.Profile) string {
	switch {
	case persona != nil && len(profiles) > 0:
		return fmt.Sprintf("Consultation with %s for %s", persona.Name, profiles[0].FullName)
	case persona != nil:
		return fmt.Sprintf("Consultation with %s", persona.Name)
	default:
		return "New Consultation"
	}
}
