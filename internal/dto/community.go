package dto

// SetRoleRequest sets the role granted to tagged members.
type SetRoleRequest struct {
	RoleID string `json:"role_id" binding:"required"`
}

// SetChannelRequest sets the announcement channel.
type SetChannelRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
}

// SetMessageRequest replaces the announcement body. Lines are separated by
// newlines or `{nl}`.
type SetMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// LedgerResetResponse reports how many entries a reset removed.
type LedgerResetResponse struct {
	CommunityID string `json:"community_id"`
	Removed     int64  `json:"removed"`
}
