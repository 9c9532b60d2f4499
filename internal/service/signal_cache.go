package service

import (
	"sync"

	"github.com/noah-isme/vanity-bot/internal/models"
)

// SignalCache keeps the last observed signals. Status is scoped to a
// community, profile fields are global per user.
type SignalCache struct {
	mu       sync.RWMutex
	statuses map[string]*string
	profiles map[string]models.Profile
}

// NewSignalCache returns an empty cache.
func NewSignalCache() *SignalCache {
	return &SignalCache{
		statuses: make(map[string]*string),
		profiles: make(map[string]models.Profile),
	}
}

func statusKey(communityID, userID string) string {
	return communityID + ":" + userID
}

// SetStatus records the latest status text. A nil status means the user has
// no custom status right now.
func (c *SignalCache) SetStatus(communityID, userID string, status *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status == nil {
		c.statuses[statusKey(communityID, userID)] = nil
		return
	}
	v := *status
	c.statuses[statusKey(communityID, userID)] = &v
}

// SetProfile merges a profile observation. Nil fields keep the previous
// value, an empty string clears it.
func (c *SignalCache) SetProfile(userID string, update models.Profile) models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.profiles[userID]
	current.Bio = mergeField(current.Bio, update.Bio)
	current.Pronouns = mergeField(current.Pronouns, update.Pronouns)
	if current.Empty() {
		delete(c.profiles, userID)
	} else {
		c.profiles[userID] = current
	}
	return current
}

func mergeField(current, update *string) *string {
	if update == nil {
		return current
	}
	if *update == "" {
		return nil
	}
	v := *update
	return &v
}

// Signals returns the cached signals for a (community, user) pair.
func (c *SignalCache) Signals(communityID, userID string) models.Signals {
	c.mu.RLock()
	defer c.mu.RUnlock()
	profile := c.profiles[userID]
	return models.Signals{
		Status:   c.statuses[statusKey(communityID, userID)],
		Bio:      profile.Bio,
		Pronouns: profile.Pronouns,
	}
}

// HasStatus reports whether a status was ever observed for the pair. A
// recorded nil status counts as observed.
func (c *SignalCache) HasStatus(communityID, userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.statuses[statusKey(communityID, userID)]
	return ok
}

// Forget drops the status of a user who left a community.
func (c *SignalCache) Forget(communityID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, statusKey(communityID, userID))
}

// Len returns the number of cached status entries.
func (c *SignalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statuses)
}
