package modeler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/fluxobpm/fluxo/internal/identity"
)

// commandTimeout bounds how long an import/export round-trip to the browser
// may take before the command fails.
const commandTimeout = 10 * time.Second

// wsMessage is the wire format exchanged with the browser widget.
type wsMessage struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	XML     string `json:"xml,omitempty"`
	Element string `json:"element,omitempty"`
	OK      bool   `json:"ok,omitempty"`
	Error   string `json:"error,omitempty"`
}

type wsResult struct {
	ok  bool
	xml string
	err string
}

// WidgetChannel adapts a WebSocket connection to the Widget interface.
// Commands flow down to the browser; results and edit events flow back up.
type WidgetChannel struct {
	conn   *websocket.Conn
	ready  atomic.Bool
	nextID atomic.Int64

	mu          sync.Mutex
	pending     map[string]chan wsResult
	onSelection func(elementID string)
	onModel     func(xml string)
}

// NewWidgetChannel wraps an accepted WebSocket connection.
func NewWidgetChannel(conn *websocket.Conn) *WidgetChannel {
	return &WidgetChannel{
		conn:    conn,
		pending: make(map[string]chan wsResult),
	}
}

// Ready reports whether the browser widget has announced readiness.
func (c *WidgetChannel) Ready() bool {
	return c.ready.Load()
}

// OnSelectionChanged registers the selection event callback.
func (c *WidgetChannel) OnSelectionChanged(fn func(elementID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSelection = fn
}

// OnModelChanged registers the hand-edit event callback.
func (c *WidgetChannel) OnModelChanged(fn func(xml string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onModel = fn
}

// ImportXML sends the document to the widget and waits for its verdict.
func (c *WidgetChannel) ImportXML(ctx context.Context, xml string) error {
	res, err := c.roundTrip(ctx, wsMessage{Type: "import", XML: xml})
	if err != nil {
		return err
	}
	if !res.ok {
		return &ImportError{Reason: res.err}
	}
	return nil
}

// SaveXML asks the widget to export its current document.
func (c *WidgetChannel) SaveXML(ctx context.Context) (string, error) {
	res, err := c.roundTrip(ctx, wsMessage{Type: "export"})
	if err != nil {
		return "", err
	}
	if res.err != "" {
		return "", fmt.Errorf("widget export failed: %s", res.err)
	}
	return res.xml, nil
}

// FitViewport sends a fire-and-forget viewport fit command.
func (c *WidgetChannel) FitViewport(ctx context.Context) error {
	return c.write(ctx, wsMessage{Type: "fit"})
}

func (c *WidgetChannel) roundTrip(ctx context.Context, msg wsMessage) (wsResult, error) {
	msg.ID = strconv.FormatInt(c.nextID.Add(1), 10)
	ch := make(chan wsResult, 1)

	c.mu.Lock()
	c.pending[msg.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	if err := c.write(ctx, msg); err != nil {
		return wsResult{}, err
	}

	select {
	case <-ctx.Done():
		return wsResult{}, ctx.Err()
	case <-time.After(commandTimeout):
		return wsResult{}, fmt.Errorf("widget %s command timed out", msg.Type)
	case res := <-ch:
		return res, nil
	}
}

func (c *WidgetChannel) write(ctx context.Context, msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode widget message: %w", err)
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write widget message: %w", err)
	}
	return nil
}

// run reads widget messages until the connection drops. It marks the channel
// not-ready on exit so in-flight Apply calls fail fast instead of timing out.
func (c *WidgetChannel) run(ctx context.Context) {
	defer c.ready.Store(false)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			slog.Debug("widget channel closed", "error", err)
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("malformed widget message", "error", err)
			continue
		}
		c.dispatch(msg)
	}
}

func (c *WidgetChannel) dispatch(msg wsMessage) {
	switch msg.Type {
	case "ready":
		c.ready.Store(true)
	case "import-result", "export-result":
		c.mu.Lock()
		ch := c.pending[msg.ID]
		c.mu.Unlock()
		if ch != nil {
			ch <- wsResult{ok: msg.OK, xml: msg.XML, err: msg.Error}
		}
	case "model-changed":
		c.mu.Lock()
		fn := c.onModel
		c.mu.Unlock()
		if fn != nil {
			fn(msg.XML)
		}
	case "selection-changed":
		c.mu.Lock()
		fn := c.onSelection
		c.mu.Unlock()
		if fn != nil {
			fn(msg.Element)
		}
	default:
		slog.Debug("unknown widget message type", "type", msg.Type)
	}
}

// WebSocketHandler upgrades /ws/modeler requests and attaches the browser
// widget to the hub for the logged-in user.
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler creates the modeler WebSocket handler.
func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "not logged in", http.StatusUnauthorized)
		return
	}
	slog.Info("Modeler WebSocket connection request", "user_id", userID, "ip", r.RemoteAddr)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept modeler WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close modeler websocket", "error", closeErr, "user_id", userID)
		}
	}()

	ch := NewWidgetChannel(ws)
	h.hub.Register(userID, ch)
	defer h.hub.Unregister(userID, ch)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch.run(ctx)
}
