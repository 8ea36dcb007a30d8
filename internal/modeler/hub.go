package modeler

import (
	"log/slog"
	"sync"
)

// Hub tracks the connected editor widget for each user. A user has at most
// one live widget; a reconnect replaces the previous one.
type Hub struct {
	mu      sync.RWMutex
	widgets map[string]Widget
}

// NewHub creates an empty widget hub.
func NewHub() *Hub {
	return &Hub{
		widgets: make(map[string]Widget),
	}
}

// Get returns the user's widget, or nil if none is connected.
func (h *Hub) Get(userID string) Widget {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.widgets[userID]
}

// Register attaches a widget for a user, replacing any previous one.
func (h *Hub) Register(userID string, w Widget) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.widgets[userID] = w
	slog.Info("Modeler widget registered", "user_id", userID)
}

// Unregister detaches a widget for a user. Stale unregisters (a newer widget
// already replaced this one) are ignored.
func (h *Hub) Unregister(userID string, w Widget) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.widgets[userID]; ok && current == w {
		delete(h.widgets, userID)
		slog.Info("Modeler widget unregistered", "user_id", userID)
	}
}
