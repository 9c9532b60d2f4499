package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/vanity-bot/internal/models"
)

// DefaultAnnounceLines is used for communities that never set their own text.
var DefaultAnnounceLines = []string{
	"_ _     thank you for repping us    　  𓂃 　 ",
	"> **pic** __perms__",
	"> **sticker** __perms__",
	"> **cam** __perms__",
}

// BuildAnnouncement renders the one-time message for userID.
func BuildAnnouncement(cfg *models.CommunityConfig, userID, tag, footer string) models.Announcement {
	lines := DefaultAnnounceLines
	if cfg != nil && len(cfg.AnnounceLines) > 0 {
		lines = cfg.AnnounceLines
	}
	if strings.TrimSpace(footer) == "" {
		footer = fmt.Sprintf("rep %s in your status for perks", tag)
	}
	return models.Announcement{
		Content: fmt.Sprintf("<@%s> has repped **%s**", userID, tag),
		Lines:   append([]string(nil), lines...),
		Footer:  footer,
		UserID:  userID,
	}
}
