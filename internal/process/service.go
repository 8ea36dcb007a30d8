// Package process manages saved BPMN process definitions and their
// executions.
package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluxobpm/fluxo/internal/bpmn"
	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/store"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a definition or instance does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidProcess is returned for definitions that fail validation.
var ErrInvalidProcess = errors.New("invalid process definition")

// Service implements the process lifecycle on top of the store.
type Service struct {
	repo store.Repository
}

// NewService creates the process service.
func NewService(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// SaveProcess creates or replaces a definition. Saving under an existing id
// is a full replacement, so repeating the same save is idempotent. A missing
// id gets a generated one; invalid form field types are rejected.
func (s *Service) SaveProcess(ctx context.Context, def *domain.ProcessDefinition) (*domain.ProcessDefinition, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProcess)
	}
	for elementID, fields := range def.Forms {
		for _, f := range fields {
			if !domain.ValidFieldType(f.Type) {
				return nil, fmt.Errorf("%w: form %q field %q has unknown type %q",
					ErrInvalidProcess, elementID, f.ID, f.Type)
			}
		}
	}

	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now()
	}
	if err := s.repo.UpsertProcess(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to save process: %w", err)
	}
	return def, nil
}

// GetProcess retrieves a definition.
func (s *Service) GetProcess(ctx context.Context, id string) (*domain.ProcessDefinition, error) {
	def, err := s.repo.GetProcess(ctx, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, ErrNotFound
	}
	return def, nil
}

// ListProcesses returns all saved definitions.
func (s *Service) ListProcesses(ctx context.Context) ([]*domain.ProcessDefinition, error) {
	return s.repo.ListProcesses(ctx)
}

// DeleteProcess removes a definition. Instances started from it are kept as
// historical records.
func (s *Service) DeleteProcess(ctx context.Context, id string) error {
	return s.repo.DeleteProcess(ctx, id)
}

// StartProcess creates a running instance of a definition. The instance
// starts at the diagram's start event, or at the conventional default when
// the diagram has none that can be resolved. An unknown process id creates
// nothing.
func (s *Service) StartProcess(ctx context.Context, processID, startedBy string, data map[string]any) (*domain.ProcessInstance, error) {
	def, err := s.repo.GetProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, ErrNotFound
	}

	startNode := domain.DefaultStartNodeID
	if doc, err := bpmn.ParseDocument(def.DiagramXML); err == nil {
		if id := doc.StartNodeID(); id != "" {
			startNode = id
		}
	}

	if data == nil {
		data = map[string]any{}
	}
	inst := &domain.ProcessInstance{
		ID:            uuid.NewString(),
		ProcessID:     def.ID,
		ProcessName:   def.Name,
		CurrentNodeID: startNode,
		Status:        domain.InstanceRunning,
		Data:          data,
		StartedBy:     startedBy,
		StartedAt:     time.Now(),
	}
	if err := s.repo.InsertInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to start process: %w", err)
	}
	return inst, nil
}

// GetInstance retrieves an instance.
func (s *Service) GetInstance(ctx context.Context, id string) (*domain.ProcessInstance, error) {
	inst, err := s.repo.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrNotFound
	}
	return inst, nil
}

// ListInstances returns all instances.
func (s *Service) ListInstances(ctx context.Context) ([]*domain.ProcessInstance, error) {
	return s.repo.ListInstances(ctx)
}

// InstancePatch is a partial instance update. Nil fields are left unchanged.
type InstancePatch struct {
	CurrentNodeID *string                `json:"currentNodeId"`
	Status        *domain.InstanceStatus `json:"status"`
	Data          map[string]any         `json:"data"`
}

// UpdateInstance applies a partial update to an instance. Patch data is
// merged key-by-key into the instance data rather than replacing it.
func (s *Service) UpdateInstance(ctx context.Context, id string, patch InstancePatch) (*domain.ProcessInstance, error) {
	inst, err := s.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.CurrentNodeID != nil {
		inst.CurrentNodeID = *patch.CurrentNodeID
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domain.InstanceRunning, domain.InstanceCompleted, domain.InstancePaused:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidProcess, *patch.Status)
		}
		inst.Status = *patch.Status
		if inst.Status == domain.InstanceCompleted && inst.CompletedAt == nil {
			now := time.Now()
			inst.CompletedAt = &now
		}
	}
	if inst.Data == nil {
		inst.Data = map[string]any{}
	}
	for k, v := range patch.Data {
		inst.Data[k] = v
	}

	if err := s.repo.UpdateInstance(ctx, inst); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inst, nil
}

// CompleteTask records the submitted form data and finishes the instance.
// nodeID, when given, is stamped as the node the form was collected at.
// Completion is unconditional regardless of the instance's position in the
// diagram; intermediate routing is not executed.
func (s *Service) CompleteTask(ctx context.Context, instanceID, nodeID string, data map[string]any) (*domain.ProcessInstance, error) {
	inst, err := s.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if nodeID != "" {
		inst.CurrentNodeID = nodeID
	}
	if inst.Data == nil {
		inst.Data = map[string]any{}
	}
	for k, v := range data {
		inst.Data[k] = v
	}
	inst.Status = domain.InstanceCompleted
	now := time.Now()
	inst.CompletedAt = &now

	if err := s.repo.UpdateInstance(ctx, inst); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inst, nil
}
