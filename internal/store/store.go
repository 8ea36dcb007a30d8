// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/fluxobpm/fluxo/internal/domain"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for persisting users, process definitions,
// process instances, and conversation snapshots.
type Repository interface {
	// GetUser retrieves a user by id. Returns (nil, nil) if absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// DeleteUser removes a user record (logout).
	DeleteUser(ctx context.Context, userID string) error

	// GetProcess retrieves a process definition by id. Returns (nil, nil) if absent.
	GetProcess(ctx context.Context, id string) (*domain.ProcessDefinition, error)

	// ListProcesses returns all saved definitions ordered by creation time.
	ListProcesses(ctx context.Context) ([]*domain.ProcessDefinition, error)

	// UpsertProcess creates or replaces a definition by id.
	UpsertProcess(ctx context.Context, def *domain.ProcessDefinition) error

	// DeleteProcess removes a definition. Instances are untouched.
	DeleteProcess(ctx context.Context, id string) error

	// GetInstance retrieves a process instance by id. Returns (nil, nil) if absent.
	GetInstance(ctx context.Context, id string) (*domain.ProcessInstance, error)

	// ListInstances returns all instances ordered by start time.
	ListInstances(ctx context.Context) ([]*domain.ProcessInstance, error)

	// InsertInstance stores a newly started instance.
	InsertInstance(ctx context.Context, inst *domain.ProcessInstance) error

	// UpdateInstance replaces a stored instance. Returns ErrNotFound if absent.
	UpdateInstance(ctx context.Context, inst *domain.ProcessInstance) error

	// GetConversation retrieves the chat snapshot for a user. Returns (nil, nil) if absent.
	GetConversation(ctx context.Context, userID string) (*domain.Conversation, error)

	// UpsertConversation persists the chat snapshot for a user.
	UpsertConversation(ctx context.Context, conv *domain.Conversation) error

	// DeleteConversation removes the chat snapshot for a user.
	DeleteConversation(ctx context.Context, userID string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
