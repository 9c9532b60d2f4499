package models

import "time"

// CommunityConfig holds per-community automation settings. It is mutated only
// by the admin surfaces; the reconciliation engine reads it.
type CommunityConfig struct {
	CommunityID   string    `db:"community_id" json:"community_id"`
	RoleID        *string   `db:"role_id" json:"role_id,omitempty"`
	ChannelID     *string   `db:"channel_id" json:"channel_id,omitempty"`
	AnnounceLines []string  `db:"-" json:"announce_lines,omitempty"`
	UpdatedBy     *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Configured reports whether both the target role and the announcement
// channel are set. Unconfigured communities are inert.
func (c *CommunityConfig) Configured() bool {
	if c == nil {
		return false
	}
	return c.RoleID != nil && *c.RoleID != "" && c.ChannelID != nil && *c.ChannelID != ""
}

// Role returns the target role id or an empty string.
func (c *CommunityConfig) Role() string {
	if c == nil || c.RoleID == nil {
		return ""
	}
	return *c.RoleID
}

// Channel returns the announcement channel id or an empty string.
func (c *CommunityConfig) Channel() string {
	if c == nil || c.ChannelID == nil {
		return ""
	}
	return *c.ChannelID
}

// Clone returns a deep copy safe to hand out of caches.
func (c CommunityConfig) Clone() CommunityConfig {
	out := c
	if c.RoleID != nil {
		v := *c.RoleID
		out.RoleID = &v
	}
	if c.ChannelID != nil {
		v := *c.ChannelID
		out.ChannelID = &v
	}
	if c.UpdatedBy != nil {
		v := *c.UpdatedBy
		out.UpdatedBy = &v
	}
	if c.AnnounceLines != nil {
		out.AnnounceLines = append([]string(nil), c.AnnounceLines...)
	}
	return out
}
