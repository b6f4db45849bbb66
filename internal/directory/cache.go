// Package directory caches the signed-in user's own profile and the
// contact list, refreshed once per session establishment.
package directory

import (
	"context"
	"sync"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"go.uber.org/zap"
)

// LoadState distinguishes "no data" from "fetch failed" (the fetch
// failure itself is logged, never alerted).
type LoadState int

const (
	LoadIdle LoadState = iota
	Loading
	Loaded
	LoadFailed
)

// Source fetches profile rows from the platform.
type Source interface {
	GetProfile(ctx context.Context, id string) (platform.Profile, error)
	ListOtherProfiles(ctx context.Context, selfID string) ([]platform.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch map[string]any) error
}

// Cache holds the session's profile directory.
type Cache struct {
	source Source
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.RWMutex
	self     platform.Profile
	contacts []platform.Profile
	state    LoadState
}

// NewCache creates an empty directory cache.
func NewCache(source Source, b *bus.Bus, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{source: source, bus: b, logger: logger}
}

// Refresh loads the own profile and the contact list for selfID.
// Failures degrade to the empty directory and are reported through the
// load state only.
func (c *Cache) Refresh(ctx context.Context, selfID string) {
	c.mu.Lock()
	c.state = Loading
	c.mu.Unlock()

	self, selfErr := c.source.GetProfile(ctx, selfID)
	contacts, listErr := c.source.ListOtherProfiles(ctx, selfID)

	c.mu.Lock()
	if selfErr == nil {
		c.self = self
	}
	if listErr == nil {
		c.contacts = contacts
		c.state = Loaded
	} else {
		c.contacts = nil
		c.state = LoadFailed
	}
	c.mu.Unlock()

	if selfErr != nil {
		c.logger.Warn("own profile fetch failed", zap.Error(selfErr))
	}
	if listErr != nil {
		c.logger.Warn("contact list fetch failed", zap.Error(listErr))
	}
	if c.bus != nil {
		c.bus.Emit(bus.KindDirectoryChanged, nil)
	}
}

// Self returns the signed-in user's profile.
func (c *Cache) Self() platform.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self
}

// Contacts returns a snapshot of the contact list in ingestion order.
func (c *Cache) Contacts() []platform.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]platform.Profile(nil), c.contacts...)
}

// Lookup finds a contact (or the self profile) by id.
func (c *Cache) Lookup(id string) (platform.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id == c.self.ID {
		return c.self, true
	}
	for _, p := range c.contacts {
		if p.ID == id {
			return p, true
		}
	}
	return platform.Profile{}, false
}

// DisplayName returns the username for an id, or the id itself when the
// profile is unknown.
func (c *Cache) DisplayName(id string) string {
	if p, ok := c.Lookup(id); ok && p.Username != "" {
		return p.Username
	}
	return id
}

// State returns the directory load state.
func (c *Cache) State() LoadState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SaveProfile persists username/avatar edits of the own profile and
// updates the cached copy. Errors propagate so the UI can alert.
func (c *Cache) SaveProfile(ctx context.Context, username, avatarURL string) error {
	c.mu.RLock()
	selfID := c.self.ID
	c.mu.RUnlock()

	patch := map[string]any{}
	if username != "" {
		patch["username"] = username
	}
	if avatarURL != "" {
		patch["avatar_url"] = avatarURL
	}
	if len(patch) == 0 {
		return nil
	}
	if err := c.source.UpdateProfile(ctx, selfID, patch); err != nil {
		return err
	}

	c.mu.Lock()
	if username != "" {
		c.self.Username = username
	}
	if avatarURL != "" {
		c.self.AvatarURL = avatarURL
	}
	c.mu.Unlock()
	return nil
}

// Reset clears all cached profiles. Called on sign-out so no state
// leaks into a subsequent session.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.self = platform.Profile{}
	c.contacts = nil
	c.state = LoadIdle
	c.mu.Unlock()
}
