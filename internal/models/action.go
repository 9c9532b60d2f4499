package models

// ActionKind enumerates the mutations the reconciliation engine can emit.
type ActionKind string

const (
	ActionGrantRole     ActionKind = "grant_role"
	ActionRevokeRole    ActionKind = "revoke_role"
	ActionAnnounce      ActionKind = "announce"
	ActionMarkAnnounced ActionKind = "mark_announced"
)

// Action is a single planned mutation.
type Action struct {
	Kind        ActionKind `json:"kind"`
	CommunityID string     `json:"community_id"`
	UserID      string     `json:"user_id"`
	RoleID      string     `json:"role_id,omitempty"`
	ChannelID   string     `json:"channel_id,omitempty"`
}
