package models

// Signals is the set of observed text signals for a user. A nil field means
// the signal was not observed, which never counts as a match.
type Signals struct {
	Status   *string `json:"status,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Pronouns *string `json:"pronouns,omitempty"`
}

// Profile is the global (cross-community) part of a user's signals.
type Profile struct {
	Bio      *string `json:"bio,omitempty"`
	Pronouns *string `json:"pronouns,omitempty"`
}

// Empty reports whether no profile field was observed.
func (p Profile) Empty() bool {
	return p.Bio == nil && p.Pronouns == nil
}

// Snapshot is the ephemeral input of a single reconciliation. It is built
// fresh per evaluation and never cached.
type Snapshot struct {
	CommunityID      string
	UserID           string
	Signals          Signals
	CurrentlyHasRole bool
}

// StringPtr returns a pointer to value.
func StringPtr(value string) *string {
	return &value
}
