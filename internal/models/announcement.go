package models

// Announcement is the rendered one-time message for a user.
type Announcement struct {
	Content string   `json:"content"`
	Lines   []string `json:"lines"`
	Footer  string   `json:"footer"`
	UserID  string   `json:"user_id"`
}
