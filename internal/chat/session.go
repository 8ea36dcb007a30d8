// Package chat implements the conversational assistant: the per-user
// conversation state machine and the HTTP chat surface.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fluxobpm/fluxo/internal/bpmn"
	"github.com/fluxobpm/fluxo/internal/config"
	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/store"
	"github.com/google/uuid"
)

// ErrBusy is returned when a submission arrives while a completion request
// is already in flight. At most one request may be outstanding per session.
var ErrBusy = errors.New("a request is already in flight")

// ErrEmptyMessage is returned for blank submissions. Nothing is mutated.
var ErrEmptyMessage = errors.New("message is empty")

// ErrNoDiagram is returned when applying a message that carries no diagram.
var ErrNoDiagram = errors.New("message has no diagram")

// Completer produces assistant replies from conversation history. Implemented
// by the completion backend client and the local template generator.
type Completer interface {
	Complete(ctx context.Context, history []domain.Message, currentXML string) (string, error)
	Configured() bool
	Model() string
}

// Applier drives diagram XML into the user's editor widget.
type Applier interface {
	Apply(ctx context.Context, userID, xml string) error
	CurrentXML(ctx context.Context, userID string) (string, error)
}

// State is a point-in-time snapshot of a conversation session.
type State struct {
	Messages   []domain.Message       `json:"messages"`
	Pending    bool                   `json:"pending"`
	Connection domain.ConnectionState `json:"connection"`
	LastApply  domain.ApplyState      `json:"lastApply,omitempty"`
	Diagnostic string                 `json:"diagnostic,omitempty"`
}

// Session is one user's conversation state machine. The message log is
// append-only; pending is true only between request dispatch and response
// arrival; connection and lastApply are display indicators reset by cosmetic
// timers, never correctness state.
type Session struct {
	userID    string
	cfg       config.ChatConfig
	completer Completer
	bridge    Applier
	repo      store.Repository

	mu         sync.Mutex
	messages   []domain.Message
	pending    bool
	connection domain.ConnectionState
	lastApply  domain.ApplyState
	diagnostic string
	connTimer  *time.Timer
	applyTimer *time.Timer
}

// NewSession creates a session for a user, optionally seeded with a
// previously persisted message log.
func NewSession(userID string, cfg config.ChatConfig, completer Completer, bridge Applier, repo store.Repository, seed []domain.Message) *Session {
	return &Session{
		userID:     userID,
		cfg:        cfg,
		completer:  completer,
		bridge:     bridge,
		repo:       repo,
		messages:   seed,
		connection: domain.ConnectionConnected,
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]domain.Message, len(s.messages))
	copy(msgs, s.messages)
	return State{
		Messages:   msgs,
		Pending:    s.pending,
		Connection: s.connection,
		LastApply:  s.lastApply,
		Diagnostic: s.diagnostic,
	}
}

// Submit runs one chat turn: append the user message, call the completion
// backend with the full history and the current diagram, extract the reply's
// diagram, and drive it into the editor. Empty text and double submissions
// while a request is in flight are rejected before any mutation.
func (s *Session) Submit(ctx context.Context, text, currentXML string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.pending = true
	s.messages = append(s.messages, domain.Message{
		ID:      uuid.NewString(),
		Role:    domain.RoleUser,
		Content: text,
	})
	history := make([]domain.Message, len(s.messages))
	copy(history, s.messages)
	s.mu.Unlock()

	if currentXML == "" {
		// Fall back to the live editor document when the caller didn't
		// send one. Absence of a widget is not an error here.
		if xml, err := s.bridge.CurrentXML(ctx, s.userID); err == nil {
			currentXML = xml
		}
	}

	reply, err := s.completer.Complete(ctx, history, currentXML)

	s.mu.Lock()
	s.pending = false
	if err != nil {
		s.connection = domain.ConnectionError
		s.diagnostic = err.Error()
		s.scheduleConnectionResetLocked()
		s.mu.Unlock()
		s.snapshot(ctx)
		return nil, err
	}

	ext := bpmn.Extract(reply)
	assistant := domain.Message{
		ID:         uuid.NewString(),
		Role:       domain.RoleAssistant,
		Content:    ext.Prose,
		DiagramXML: ext.DiagramXML,
	}
	s.messages = append(s.messages, assistant)
	s.connection = domain.ConnectionConnected
	s.diagnostic = ""
	s.mu.Unlock()

	if ext.HasDiagram() {
		s.applyToWidget(ctx, ext.DiagramXML)
	}

	s.snapshot(ctx)
	return &assistant, nil
}

// ApplyDiagram replays the diagram of a past assistant message into the
// editor. Independent of the request/reply cycle; may run while a completion
// is in flight.
func (s *Session) ApplyDiagram(ctx context.Context, messageID string) error {
	s.mu.Lock()
	var xml string
	for _, m := range s.messages {
		if m.ID == messageID && m.Role == domain.RoleAssistant {
			xml = m.DiagramXML
			break
		}
	}
	s.mu.Unlock()

	if xml == "" {
		return ErrNoDiagram
	}
	return s.applyToWidget(ctx, xml)
}

// applyToWidget drives xml into the editor and records the outcome banner.
func (s *Session) applyToWidget(ctx context.Context, xml string) error {
	err := s.bridge.Apply(ctx, s.userID, xml)

	s.mu.Lock()
	if err != nil {
		s.lastApply = domain.ApplyError
		s.diagnostic = err.Error()
		slog.Warn("Diagram apply failed", "user_id", s.userID, "error", err)
	} else {
		s.lastApply = domain.ApplySuccess
	}
	s.scheduleApplyClearLocked()
	s.mu.Unlock()
	return err
}

// TestConnection is the side-channel health probe. It only touches the
// connection indicator and may interleave freely with an in-flight turn.
func (s *Session) TestConnection(ctx context.Context) domain.ConnectionState {
	s.mu.Lock()
	s.connection = domain.ConnectionTesting
	s.mu.Unlock()

	state := domain.ConnectionConnected
	if !s.completer.Configured() {
		state = domain.ConnectionError
	}

	s.mu.Lock()
	s.connection = state
	s.mu.Unlock()
	return state
}

// Reset drops the message log and the persisted snapshot.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.messages = nil
	s.pending = false
	s.lastApply = domain.ApplyNone
	s.diagnostic = ""
	s.connection = domain.ConnectionConnected
	s.mu.Unlock()

	if err := s.repo.DeleteConversation(ctx, s.userID); err != nil {
		slog.Warn("Failed to delete conversation snapshot", "user_id", s.userID, "error", err)
	}
}

// Close stops the session's cosmetic timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connTimer != nil {
		s.connTimer.Stop()
	}
	if s.applyTimer != nil {
		s.applyTimer.Stop()
	}
}

// scheduleConnectionResetLocked reverts the connection indicator to
// "connected" after the configured delay. Cosmetic only; the failed request
// is never retried.
func (s *Session) scheduleConnectionResetLocked() {
	if s.connTimer != nil {
		s.connTimer.Stop()
	}
	s.connTimer = time.AfterFunc(s.cfg.ConnectionResetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.connection == domain.ConnectionError {
			s.connection = domain.ConnectionConnected
			s.diagnostic = ""
		}
	})
}

// scheduleApplyClearLocked clears the last-apply banner after the configured
// display delay.
func (s *Session) scheduleApplyClearLocked() {
	if s.applyTimer != nil {
		s.applyTimer.Stop()
	}
	s.applyTimer = time.AfterFunc(s.cfg.ApplyBannerDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lastApply = domain.ApplyNone
	})
}

// snapshot persists the message log. Best effort: a failed write is logged,
// not surfaced, since the in-memory session remains authoritative.
func (s *Session) snapshot(ctx context.Context) {
	s.mu.Lock()
	msgs := make([]domain.Message, len(s.messages))
	copy(msgs, s.messages)
	s.mu.Unlock()

	conv := &domain.Conversation{UserID: s.userID, Messages: msgs}
	if err := s.repo.UpsertConversation(ctx, conv); err != nil {
		slog.Warn("Failed to persist conversation snapshot", "user_id", s.userID, "error", err)
	}
}
