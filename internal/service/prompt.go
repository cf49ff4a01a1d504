package service

import (
	"fmt"
	"strings"

	"github.com/astrodesk/consult-platform/internal/model"
)

const defaultSystemPrompt = "You are a knowledgeable consultation assistant. " +
	"Answer the user's questions thoughtfully and concisely."

// buildSystemPrompt assembles the persona's system prompt with a
// structured rendering of every attached profile.
func buildSystemPrompt(persona *model.Persona, profiles []model.Profile) string {
	var b strings.Builder

	if persona != nil && persona.SystemPrompt != "" {
		b.WriteString(persona.SystemPrompt)
	} else {
		b.WriteString(defaultSystemPrompt)
	}

	for _, p := range profiles {
		b.WriteString("\n\n")
		fmt.Fprintf(&b, "Profile: %s\n", p.FullName)
		fmt.Fprintf(&b, "Date of birth: %s\n", p.DateOfBirth.Format("2006-01-02 15:04 MST"))
		fmt.Fprintf(&b, "Place of birth: %s", p.PlaceOfBirth)
	}

	return b.String()
}

// genericTitle reports whether a conversation title is still a
// setup-derived default eligible for retitling from the first real
// user utterance.
func genericTitle(title string) bool {
	return title == "" ||
		title == "New Consultation" ||
		strings.HasPrefix(title, "Consultation with ")
}

// titleFromContent derives a short title from a user utterance.
func titleFromContent(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	runes := []rune(title)
	if len(runes) > 48 {
		title = strings.TrimSpace(string(runes[:48])) + "..."
	}
	return title
}
