package modeler

import (
	"context"
	"log/slog"
	"time"
)

// defaultRetryDelay is how long Apply waits for a widget that is not yet
// ready before its single retry.
const defaultRetryDelay = 500 * time.Millisecond

// Bridge drives extracted diagram XML into the user's editor widget and
// reports the outcome. It tolerates the widget's asynchronous startup by
// retrying once after a short delay.
type Bridge struct {
	hub        *Hub
	retryDelay time.Duration
}

// NewBridge creates a bridge over the given widget hub.
func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub, retryDelay: defaultRetryDelay}
}

// NewBridgeWithRetryDelay creates a bridge with a custom not-ready retry
// delay. Used by tests.
func NewBridgeWithRetryDelay(hub *Hub, delay time.Duration) *Bridge {
	return &Bridge{hub: hub, retryDelay: delay}
}

// Apply imports xml into the user's widget. If the widget is absent or not
// ready it retries once after the configured delay, then fails with
// ErrNotReady. A widget rejection surfaces as *ImportError. On success the
// viewport is re-fit; fit failures are logged and ignored.
func (b *Bridge) Apply(ctx context.Context, userID, xml string) error {
	w := b.readyWidget(userID)
	if w == nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryDelay):
		}
		w = b.readyWidget(userID)
	}
	if w == nil {
		return ErrNotReady
	}

	if err := w.ImportXML(ctx, xml); err != nil {
		return err
	}

	if err := w.FitViewport(ctx); err != nil {
		slog.Debug("viewport fit failed after import", "user_id", userID, "error", err)
	}
	return nil
}

// CurrentXML exports the widget's current document, or ErrNotReady when no
// widget is connected.
func (b *Bridge) CurrentXML(ctx context.Context, userID string) (string, error) {
	w := b.readyWidget(userID)
	if w == nil {
		return "", ErrNotReady
	}
	return w.SaveXML(ctx)
}

func (b *Bridge) readyWidget(userID string) Widget {
	w := b.hub.Get(userID)
	if w == nil || !w.Ready() {
		return nil
	}
	return w
}
