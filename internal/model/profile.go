package model

import (
	"time"
)

// Profile is a user-owned biographical record attached to conversations
// to personalize responses.
type Profile struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	FullName     string    `json:"full_name"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	PlaceOfBirth string    `json:"place_of_birth"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateProfileRequest is the request to create a profile.
type CreateProfileRequest struct {
	FullName     string    `json:"full_name"`
	DateOfBirth  time.Time `json:"date_of_birth"`
	PlaceOfBirth string    `json:"place_of_birth"`
}
