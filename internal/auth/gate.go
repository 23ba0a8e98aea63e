// Package auth implements the owner session gate.
//
// A single shared credential pair grants "owner mode". Sessions are held in
// memory only, so elevated access never survives a server restart — the same
// scope a browsing-session flag would have. The settings record itself is
// persisted durably through the repository.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabiehflowers/storefront/internal/domain"
	"github.com/rabiehflowers/storefront/internal/store"
)

// Gate holds the owner settings record and the set of active owner sessions.
type Gate struct {
	repo store.Repository

	mu       sync.Mutex
	settings domain.Settings
	sessions map[string]time.Time // token -> issued at
	ttl      time.Duration
}

// NewGate loads the settings record from the repository, falling back to the
// built-in default when none has been saved yet.
func NewGate(ctx context.Context, repo store.Repository, ttl time.Duration) *Gate {
	g := &Gate{
		repo:     repo,
		settings: domain.DefaultSettings(),
		sessions: make(map[string]time.Time),
		ttl:      ttl,
	}

	saved, err := repo.GetSettings(ctx)
	switch {
	case err != nil:
		slog.Warn("Failed to load settings, using defaults", "error", err)
	case saved != nil:
		g.settings = *saved
	}

	return g
}

// CheckLogin validates the supplied credentials against the current settings
// record. Both values are compared verbatim. On success a new session token
// is issued; on mismatch no state changes.
func (g *Gate) CheckLogin(email, password string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if email != g.settings.Email || password != g.settings.Password {
		return "", false
	}

	token := uuid.NewString()
	g.sessions[token] = time.Now()
	return token, true
}

// Logout invalidates the given session token. Unknown tokens are ignored.
func (g *Gate) Logout(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, token)
}

// Elevated reports whether the given token belongs to an active owner session.
// Expired sessions are pruned on access.
func (g *Gate) Elevated(token string) bool {
	if token == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	issued, ok := g.sessions[token]
	if !ok {
		return false
	}
	if g.ttl > 0 && time.Since(issued) > g.ttl {
		delete(g.sessions, token)
		return false
	}
	return true
}

// Settings returns a copy of the current settings record.
func (g *Gate) Settings() domain.Settings {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.settings
}

// UpdateSettings replaces the settings record wholesale and persists it.
// Subsequent logins validate against the new values. Existing sessions stay
// active. A persistence failure is logged but does not roll back the
// in-memory update.
func (g *Gate) UpdateSettings(ctx context.Context, settings domain.Settings) {
	g.mu.Lock()
	g.settings = settings
	g.mu.Unlock()

	if err := g.repo.SaveSettings(ctx, &settings); err != nil {
		slog.Error("Failed to persist settings", "error", err)
	}
}

// SessionTTL returns the configured session lifetime.
func (g *Gate) SessionTTL() time.Duration {
	return g.ttl
}
