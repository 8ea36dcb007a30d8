package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fluxobpm/fluxo/internal/bpmn"
	"github.com/fluxobpm/fluxo/internal/config"
	"github.com/fluxobpm/fluxo/internal/domain"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Completion: config.CompletionConfig{
			APIKey:      "test-key",
			BaseURL:     baseURL,
			Model:       "deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   4000,
		},
	}
}

func TestCompleteSendsSystemPromptAndHistory(t *testing.T) {
	var gotReq wireRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"resposta"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "Crie um processo"},
		{Role: domain.RoleAssistant, Content: "Aqui está."},
		{Role: domain.RoleUser, Content: "Adicione um gateway"},
	}

	reply, err := c.Complete(context.Background(), history, "<bpmn:definitions/>")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "resposta" {
		t.Errorf("Unexpected reply: %q", reply)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Unexpected auth header: %q", gotAuth)
	}

	if gotReq.Model != "deepseek-chat" {
		t.Errorf("Unexpected model: %q", gotReq.Model)
	}
	if gotReq.Temperature != 0.7 || gotReq.MaxTokens != 4000 {
		t.Errorf("Unexpected sampling params: %+v", gotReq)
	}
	if len(gotReq.Messages) != 4 {
		t.Fatalf("Expected system + 3 history messages, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" {
		t.Errorf("Expected leading system message, got %q", gotReq.Messages[0].Role)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "<bpmn:definitions/>") {
		t.Error("Current diagram not embedded in the system prompt")
	}
	if !strings.Contains(gotReq.Messages[0].Content, bpmn.StartMarker) {
		t.Error("System prompt does not mention the sentinel markers")
	}
	if gotReq.Messages[3].Content != "Adicione um gateway" {
		t.Errorf("History order wrong: %+v", gotReq.Messages)
	}
}

func TestCompleteNotConfigured(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Completion.APIKey = ""

	c := NewClient(cfg)
	if c.Configured() {
		t.Error("Expected unconfigured client")
	}
	if _, err := c.Complete(context.Background(), nil, ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}

	cfg.Completion.APIKey = config.PlaceholderAPIKey
	if NewClient(cfg).Configured() {
		t.Error("Placeholder key must count as unconfigured")
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Complete(context.Background(), []domain.Message{{Role: "user", Content: "oi"}}, "")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusInternalServerError {
		t.Errorf("Unexpected status: %d", upstream.Status)
	}
	if !strings.Contains(upstream.Body, "boom") {
		t.Errorf("Expected body excerpt, got %q", upstream.Body)
	}
}

func TestCompleteTransportError(t *testing.T) {
	c := NewClient(testConfig("http://127.0.0.1:1"))

	_, err := c.Complete(context.Background(), []domain.Message{{Role: "user", Content: "oi"}}, "")

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if _, err := c.Complete(context.Background(), []domain.Message{{Role: "user", Content: "oi"}}, ""); err == nil {
		t.Fatal("Expected an error for empty choices")
	}
}

func TestLocalGeneratorReplyIsExtractable(t *testing.T) {
	g := NewLocalGenerator()
	if !g.Configured() {
		t.Error("Local generator is always configured")
	}

	reply, err := g.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Crie um processo simples"},
	}, "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	ext := bpmn.Extract(reply)
	if !ext.HasDiagram() {
		t.Fatal("Expected an extractable diagram")
	}
	if ext.DiagramXML != bpmn.TemplateSimple {
		t.Error("Expected the simple template for a simple request")
	}
}
