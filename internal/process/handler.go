package process

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fluxobpm/fluxo/internal/api"
	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/identity"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the process REST surface.
type Handler struct {
	service *Service
}

// NewHandler creates the process HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the process and instance routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/processes", h.ListProcesses)
	r.Post("/api/processes", h.SaveProcess)
	r.Get("/api/processes/{id}", h.GetProcess)
	r.Delete("/api/processes/{id}", h.DeleteProcess)
	r.Post("/api/processes/{id}/start", h.StartProcess)
	r.Get("/api/instances", h.ListInstances)
	r.Get("/api/instances/{id}", h.GetInstance)
	r.Patch("/api/instances/{id}", h.UpdateInstance)
	r.Post("/api/instances/{id}/complete", h.CompleteTask)
}

// ListProcesses returns all saved definitions.
func (h *Handler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	defs, err := h.service.ListProcesses(r.Context())
	if err != nil {
		slog.Error("Failed to list processes", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to list processes")
		return
	}
	if defs == nil {
		defs = []*domain.ProcessDefinition{}
	}
	api.JSON(w, http.StatusOK, defs)
}

// SaveProcess creates or replaces a definition.
func (h *Handler) SaveProcess(w http.ResponseWriter, r *http.Request) {
	var def domain.ProcessDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if def.CreatedBy == "" {
		def.CreatedBy = identity.UserIDFromContext(r.Context())
	}

	saved, err := h.service.SaveProcess(r.Context(), &def)
	if err != nil {
		if errors.Is(err, ErrInvalidProcess) {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Failed to save process", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to save process")
		return
	}
	slog.Info("Process saved", "process_id", saved.ID, "name", saved.Name)
	api.JSON(w, http.StatusOK, saved)
}

// GetProcess returns one definition.
func (h *Handler) GetProcess(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.GetProcess(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.Error(w, http.StatusNotFound, "process not found")
			return
		}
		slog.Error("Failed to load process", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load process")
		return
	}
	api.JSON(w, http.StatusOK, def)
}

// DeleteProcess removes a definition. Instances survive the delete.
func (h *Handler) DeleteProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteProcess(r.Context(), id); err != nil {
		slog.Error("Failed to delete process", "process_id", id, "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to delete process")
		return
	}
	slog.Info("Process deleted", "process_id", id)
	api.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type startRequest struct {
	Data map[string]any `json:"data"`
}

// StartProcess starts a new instance of a definition.
func (h *Handler) StartProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req startRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	inst, err := h.service.StartProcess(r.Context(), id, identity.UserIDFromContext(r.Context()), req.Data)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.Error(w, http.StatusNotFound, "process not found")
			return
		}
		slog.Error("Failed to start process", "process_id", id, "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to start process")
		return
	}
	slog.Info("Process started", "process_id", id, "instance_id", inst.ID)
	api.JSON(w, http.StatusCreated, inst)
}

// ListInstances returns all instances.
func (h *Handler) ListInstances(w http.ResponseWriter, r *http.Request) {
	insts, err := h.service.ListInstances(r.Context())
	if err != nil {
		slog.Error("Failed to list instances", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to list instances")
		return
	}
	if insts == nil {
		insts = []*domain.ProcessInstance{}
	}
	api.JSON(w, http.StatusOK, insts)
}

// GetInstance returns one instance.
func (h *Handler) GetInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := h.service.GetInstance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.Error(w, http.StatusNotFound, "instance not found")
			return
		}
		slog.Error("Failed to load instance", "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to load instance")
		return
	}
	api.JSON(w, http.StatusOK, inst)
}

// UpdateInstance applies a partial update to an instance.
func (h *Handler) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch InstancePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inst, err := h.service.UpdateInstance(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			api.Error(w, http.StatusNotFound, "instance not found")
		case errors.Is(err, ErrInvalidProcess):
			api.Error(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("Failed to update instance", "instance_id", id, "error", err)
			api.Error(w, http.StatusInternalServerError, "failed to update instance")
		}
		return
	}
	api.JSON(w, http.StatusOK, inst)
}

type completeRequest struct {
	NodeID string         `json:"nodeId"`
	Data   map[string]any `json:"data"`
}

// CompleteTask records form data and finishes the instance.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req completeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	inst, err := h.service.CompleteTask(r.Context(), id, req.NodeID, req.Data)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.Error(w, http.StatusNotFound, "instance not found")
			return
		}
		slog.Error("Failed to complete task", "instance_id", id, "error", err)
		api.Error(w, http.StatusInternalServerError, "failed to complete task")
		return
	}
	slog.Info("Task completed", "instance_id", id)
	api.JSON(w, http.StatusOK, inst)
}
