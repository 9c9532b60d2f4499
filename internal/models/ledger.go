package models

import "time"

// LedgerEntry records that a user already received the one-time announcement
// in a community.
type LedgerEntry struct {
	CommunityID string    `db:"community_id" json:"community_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	AnnouncedAt time.Time `db:"announced_at" json:"announced_at"`
}
