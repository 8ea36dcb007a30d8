package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fluxobpm/fluxo/internal/config"
	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/store"
	gocache "github.com/patrickmn/go-cache"
)

const cacheCleanupInterval = 10 * time.Minute

// Manager hands out per-user chat sessions. Sessions live in an expiring
// cache keyed by user id; an idle session is evicted after the configured
// TTL and rebuilt from its persisted snapshot on the next request.
type Manager struct {
	cfg       config.ChatConfig
	completer Completer
	bridge    Applier
	repo      store.Repository

	mu       sync.Mutex
	sessions *gocache.Cache
}

// NewManager creates a session manager.
func NewManager(cfg config.ChatConfig, completer Completer, bridge Applier, repo store.Repository) *Manager {
	c := gocache.New(cfg.SessionIdleTTL, cacheCleanupInterval)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
	})
	return &Manager{
		cfg:       cfg,
		completer: completer,
		bridge:    bridge,
		repo:      repo,
		sessions:  c,
	}
}

// Session returns the user's session, creating it if necessary. Each access
// refreshes the idle TTL. A newly created session is seeded from the stored
// conversation snapshot so a chat survives eviction and restarts.
func (m *Manager) Session(ctx context.Context, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.sessions.Get(userID); ok {
		s := v.(*Session)
		m.sessions.SetDefault(userID, s)
		return s
	}

	s := NewSession(userID, m.cfg, m.completer, m.bridge, m.repo, m.loadSeed(ctx, userID))
	m.sessions.SetDefault(userID, s)
	return s
}

// Drop evicts a user's session, stopping its timers.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions.Delete(userID)
}

func (m *Manager) loadSeed(ctx context.Context, userID string) []domain.Message {
	conv, err := m.repo.GetConversation(ctx, userID)
	if err != nil {
		slog.Warn("Failed to load conversation snapshot", "user_id", userID, "error", err)
		return nil
	}
	if conv == nil {
		return nil
	}
	return conv.Messages
}
