package models

// Member is the directory's view of a user inside one community.
type Member struct {
	CommunityID string
	UserID      string
	RoleIDs     []string
	Online      bool
	Bot         bool
	// Status is the live custom status text when the directory has it.
	Status *string
	// Profile carries bio/pronouns when the directory exposes them.
	Profile Profile
}

// HasRole reports whether roleID is currently held.
func (m *Member) HasRole(roleID string) bool {
	if m == nil || roleID == "" {
		return false
	}
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
