package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fluxobpm/fluxo/internal/completion"
	"github.com/fluxobpm/fluxo/internal/config"
	"github.com/fluxobpm/fluxo/internal/identity"
	"github.com/go-chi/chi/v5"
)

func newTestHandler(completer Completer) *Handler {
	cfg := &config.Config{Generator: config.GeneratorLLM, Chat: testChatConfig()}
	manager := NewManager(cfg.Chat, completer, &fakeBridge{}, newMemRepo())
	return NewHandler(cfg, manager)
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(identity.WithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatHealth(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{configured: true}))

	w := doRequest(t, router, http.MethodGet, "/api/chat", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["configured"] != true {
		t.Errorf("Expected configured=true, got %v", got["configured"])
	}
	if got["model"] != "fake" {
		t.Errorf("Expected model fake, got %v", got["model"])
	}
	if got["timestamp"] == "" {
		t.Error("Expected a timestamp")
	}
}

func TestChatHealthUnconfigured(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{configured: false}))

	w := doRequest(t, router, http.MethodGet, "/api/chat", "", "")

	var got map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["configured"] != false {
		t.Errorf("Expected configured=false, got %v", got["configured"])
	}
	if got["model"] != "N/A" {
		t.Errorf("Expected model N/A, got %v", got["model"])
	}
}

func TestChatTurn(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{reply: testReply, configured: true}))

	body := `{"messages":[{"role":"user","content":"Crie um processo"}],"currentBpmnXml":""}`
	w := doRequest(t, router, http.MethodPost, "/api/chat", body, "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["id"] == "" {
		t.Error("Expected an id")
	}
	if got["role"] != "assistant" {
		t.Errorf("Expected assistant role, got %q", got["role"])
	}
	if got["content"] != "Aqui está." {
		t.Errorf("Unexpected content: %q", got["content"])
	}
	if got["bpmnXml"] != "<bpmn:definitions/>" {
		t.Errorf("Unexpected bpmnXml: %q", got["bpmnXml"])
	}
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{reply: testReply}))

	for _, body := range []string{`{}`, `{"messages":[]}`} {
		w := doRequest(t, router, http.MethodPost, "/api/chat", body, "u1")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", body, w.Code)
		}

		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if got["error"] == "" || got["details"] == "" {
			t.Errorf("Expected error and details fields, got %v", got)
		}
	}
}

func TestChatUnconfiguredBackend(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{err: completion.ErrNotConfigured}))

	body := `{"messages":[{"role":"user","content":"oi"}]}`
	w := doRequest(t, router, http.MethodPost, "/api/chat", body, "u1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.Contains(got["error"], "API Key") {
		t.Errorf("Unexpected error: %v", got)
	}
}

func TestChatRequiresSession(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{reply: testReply}))

	body := `{"messages":[{"role":"user","content":"oi"}]}`
	w := doRequest(t, router, http.MethodPost, "/api/chat", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
}

func TestChatStreaming(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{reply: testReply, configured: true}))

	body := `{"messages":[{"role":"user","content":"oi"}],"stream":true}`
	w := doRequest(t, router, http.MethodPost, "/api/chat", body, "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	out := w.Body.String()
	if !strings.HasPrefix(out, "data: ") {
		t.Errorf("Expected data frames, got %q", out)
	}
	if !strings.HasSuffix(out, "data: [DONE]\n\n") {
		t.Errorf("Expected [DONE] terminator, got %q", out)
	}

	// Reassemble the content from the frames.
	var content string
	var sawDiagram bool
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "data: ") || line == "data: [DONE]" {
			continue
		}
		var frame map[string]string
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("Bad frame %q: %v", line, err)
		}
		content += frame["content"]
		if frame["bpmnXml"] != "" {
			sawDiagram = true
		}
	}
	if content != "Aqui está." {
		t.Errorf("Reassembled content mismatch: %q", content)
	}
	if !sawDiagram {
		t.Error("Expected the diagram on the final frame")
	}
}

func TestConversationEndpoints(t *testing.T) {
	router := newTestRouter(newTestHandler(&fakeCompleter{reply: testReply, configured: true}))

	body := `{"messages":[{"role":"user","content":"oi"}]}`
	if w := doRequest(t, router, http.MethodPost, "/api/chat", body, "u1"); w.Code != http.StatusOK {
		t.Fatalf("Chat turn failed: %d", w.Code)
	}

	w := doRequest(t, router, http.MethodGet, "/api/conversation", "", "u1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var state State
	if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if len(state.Messages) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(state.Messages))
	}

	applyBody := `{"messageId":"` + state.Messages[1].ID + `"}`
	if w := doRequest(t, router, http.MethodPost, "/api/conversation/apply", applyBody, "u1"); w.Code != http.StatusOK {
		t.Errorf("Apply failed: %d %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, router, http.MethodPost, "/api/conversation/apply", `{"messageId":"nope"}`, "u1"); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown message, got %d", w.Code)
	}

	if w := doRequest(t, router, http.MethodPost, "/api/conversation/reset", "", "u1"); w.Code != http.StatusOK {
		t.Errorf("Reset failed: %d", w.Code)
	}
	w = doRequest(t, router, http.MethodGet, "/api/conversation", "", "u1")
	if err := json.NewDecoder(w.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if len(state.Messages) != 0 {
		t.Errorf("Expected empty log after reset, got %d", len(state.Messages))
	}
}
