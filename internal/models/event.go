package models

import "time"

// Trigger identifies which producer requested an evaluation.
type Trigger string

const (
	TriggerStatus  Trigger = "status"
	TriggerProfile Trigger = "profile"
	TriggerSweep   Trigger = "sweep"
	TriggerManual  Trigger = "manual"
)

// StatusChange is fired per user per community when the live status changes.
type StatusChange struct {
	CommunityID string
	UserID      string
	// Status is the custom status text, nil when the presence carries none.
	Status  *string
	Offline bool
	At      time.Time
}

// ProfileChange is fired per user, globally, when bio or pronouns change.
type ProfileChange struct {
	UserID  string
	Profile Profile
	At      time.Time
}

// EvaluationRequest asks the engine to reconcile one (community, user) pair
// against the latest observed signals.
type EvaluationRequest struct {
	CommunityID string
	UserID      string
	Trigger     Trigger
}

// Key returns the serialization key of the request.
func (r EvaluationRequest) Key() string {
	return r.CommunityID + ":" + r.UserID
}
