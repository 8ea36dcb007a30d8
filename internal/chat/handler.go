package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fluxobpm/fluxo/internal/api"
	"github.com/fluxobpm/fluxo/internal/completion"
	"github.com/fluxobpm/fluxo/internal/config"
	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/identity"
	"github.com/go-chi/chi/v5"
)

// streamFrameDelay paces the simulated chunk stream.
const streamFrameDelay = 30 * time.Millisecond

// Handler exposes the chat endpoints.
type Handler struct {
	cfg     *config.Config
	manager *Manager
}

// NewHandler creates the chat HTTP handler.
func NewHandler(cfg *config.Config, manager *Manager) *Handler {
	return &Handler{cfg: cfg, manager: manager}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/chat", h.Health)
	r.Post("/api/chat", h.Chat)
	r.Get("/api/conversation", h.Conversation)
	r.Post("/api/conversation/apply", h.Apply)
	r.Post("/api/conversation/reset", h.Reset)
}

// Health reports whether the diagram generator is usable. When the caller
// has a session, the probe also refreshes that session's connection
// indicator.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	configured := h.manager.completer.Configured()
	model := "N/A"
	mode := "API Key não configurada"
	if configured {
		model = h.manager.completer.Model()
		mode = string(h.cfg.Generator)
	}

	if userID := identity.UserIDFromContext(r.Context()); userID != "" {
		h.manager.Session(r.Context(), userID).TestConnection(r.Context())
	}

	api.JSON(w, http.StatusOK, map[string]interface{}{
		"status":     "API Chat funcionando",
		"mode":       mode,
		"configured": configured,
		"model":      model,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

type chatRequest struct {
	Messages       []domain.Message `json:"messages"`
	CurrentBpmnXML string           `json:"currentBpmnXml"`
	Stream         bool             `json:"stream"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
	BpmnXML string `json:"bpmnXml"`
}

// Chat runs one conversation turn and returns the assistant message. The
// request carries the client's view of the history; only the latest user
// message is submitted, since the server session is authoritative for the
// log.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		api.ErrorWithDetails(w, http.StatusBadRequest,
			"Messages são obrigatórias",
			"O array de mensagens deve conter pelo menos uma mensagem")
		return
	}

	text := latestUserText(req.Messages)
	session := h.manager.Session(r.Context(), userID)
	msg, err := session.Submit(r.Context(), text, req.CurrentBpmnXML)
	if err != nil {
		h.writeChatError(w, err)
		return
	}

	resp := chatResponse{
		ID:      msg.ID,
		Role:    msg.Role,
		Content: msg.Content,
		BpmnXML: msg.DiagramXML,
	}
	if req.Stream || h.cfg.Chat.Streaming {
		h.streamResponse(w, resp)
		return
	}
	api.JSON(w, http.StatusOK, resp)
}

// Conversation returns the caller's session snapshot.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "not logged in")
		return
	}
	api.JSON(w, http.StatusOK, h.manager.Session(r.Context(), userID).State())
}

type applyRequest struct {
	MessageID string `json:"messageId"`
}

// Apply replays the diagram of a past assistant message into the editor.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "not logged in")
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MessageID == "" {
		api.Error(w, http.StatusBadRequest, "messageId is required")
		return
	}

	session := h.manager.Session(r.Context(), userID)
	if err := session.ApplyDiagram(r.Context(), req.MessageID); err != nil {
		if errors.Is(err, ErrNoDiagram) {
			api.Error(w, http.StatusNotFound, "message has no diagram")
			return
		}
		slog.Error("Diagram apply failed", "user_id", userID, "message_id", req.MessageID, "error", err)
		api.Error(w, http.StatusBadGateway, "failed to apply diagram")
		return
	}
	api.JSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// Reset clears the caller's conversation.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "not logged in")
		return
	}
	h.manager.Session(r.Context(), userID).Reset(r.Context())
	api.JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// writeChatError maps a submission failure to the wire shape the chat UI
// understands.
func (h *Handler) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		api.ErrorWithDetails(w, http.StatusBadRequest,
			"Messages são obrigatórias",
			"A mensagem do usuário não pode ser vazia")
	case errors.Is(err, ErrBusy):
		api.ErrorWithDetails(w, http.StatusConflict,
			"Requisição em andamento",
			"Aguarde a resposta anterior antes de enviar outra mensagem")
	case errors.Is(err, completion.ErrNotConfigured):
		api.ErrorWithDetails(w, http.StatusInternalServerError,
			"API Key não configurada",
			"Configure a variável de ambiente COMPLETION_API_KEY para usar o chat IA")
	default:
		slog.Error("Chat turn failed", "error", err)
		api.ErrorWithDetails(w, http.StatusInternalServerError,
			"Erro interno do servidor", err.Error())
	}
}

// streamResponse simulates chunked delivery: the final text is sliced into
// fixed-size pieces emitted on a timer, followed by a terminator frame. The
// diagram travels on the last content frame only.
func (h *Handler) streamResponse(w http.ResponseWriter, resp chatResponse) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	size := h.cfg.Chat.StreamChunkSize
	if size <= 0 {
		size = len(resp.Content)
	}

	runes := []rune(resp.Content)
	for start := 0; start < len(runes) || start == 0; start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		frame := chatResponse{ID: resp.ID, Role: resp.Role, Content: string(runes[start:end])}
		if end == len(runes) {
			frame.BpmnXML = resp.BpmnXML
		}
		writeFrame(w, flusher, frame)
		if end == len(runes) {
			break
		}
		time.Sleep(streamFrameDelay)
	}

	if _, err := w.Write([]byte("data: [DONE]\n\n")); err != nil {
		slog.Warn("Failed to write stream terminator", "error", err)
	}
	if flusher != nil {
		flusher.Flush()
	}
}

func writeFrame(w http.ResponseWriter, flusher http.Flusher, frame chatResponse) {
	payload, err := json.Marshal(frame)
	if err != nil {
		slog.Warn("Failed to encode stream frame", "error", err)
		return
	}
	if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
		slog.Warn("Failed to write stream frame", "error", err)
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
}

// latestUserText picks the newest user-authored message from the client's
// history. Falls back to the last message of any role.
func latestUserText(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return messages[len(messages)-1].Content
}
