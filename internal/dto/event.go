package dto

import "time"

// StatusEventRequest is a status change delivered over HTTP.
type StatusEventRequest struct {
	CommunityID string     `json:"community_id" binding:"required,numeric"`
	UserID      string     `json:"user_id" binding:"required,numeric"`
	Status      *string    `json:"status"`
	Offline     bool       `json:"offline"`
	At          *time.Time `json:"at"`
}

// ProfileEventRequest is a profile change delivered over HTTP. Omitted fields
// are left untouched, an empty string clears the field.
type ProfileEventRequest struct {
	UserID   string     `json:"user_id" binding:"required,numeric"`
	Bio      *string    `json:"bio"`
	Pronouns *string    `json:"pronouns"`
	At       *time.Time `json:"at"`
}

// ProfileEventResponse reports the fan-out of a profile change.
type ProfileEventResponse struct {
	UserID    string `json:"user_id"`
	Scheduled int    `json:"scheduled"`
}
