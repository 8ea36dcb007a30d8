package process

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/identity"
	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(newTestService(t)).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(identity.WithUserID(req.Context(), "u1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcessLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	// Save.
	w := doRequest(t, router, http.MethodPost, "/api/processes", `{"name":"Onboarding","bpmnXml":""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Save: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var def domain.ProcessDefinition
	if err := json.NewDecoder(w.Body).Decode(&def); err != nil {
		t.Fatalf("Failed to decode definition: %v", err)
	}
	if def.CreatedBy != "u1" {
		t.Errorf("Expected creator from session, got %q", def.CreatedBy)
	}

	// List.
	w = doRequest(t, router, http.MethodGet, "/api/processes", "")
	var defs []domain.ProcessDefinition
	if err := json.NewDecoder(w.Body).Decode(&defs); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("Expected 1 definition, got %d", len(defs))
	}

	// Start.
	w = doRequest(t, router, http.MethodPost, "/api/processes/"+def.ID+"/start", `{"data":{"setor":"TI"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Start: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var inst domain.ProcessInstance
	if err := json.NewDecoder(w.Body).Decode(&inst); err != nil {
		t.Fatalf("Failed to decode instance: %v", err)
	}
	if inst.StartedBy != "u1" || inst.Status != domain.InstanceRunning {
		t.Errorf("Unexpected instance: %+v", inst)
	}

	// Patch.
	w = doRequest(t, router, http.MethodPatch, "/api/instances/"+inst.ID, `{"currentNodeId":"Task_1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Patch: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Complete.
	w = doRequest(t, router, http.MethodPost, "/api/instances/"+inst.ID+"/complete", `{"nodeId":"Task_1","data":{"ok":"sim"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Complete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var done domain.ProcessInstance
	if err := json.NewDecoder(w.Body).Decode(&done); err != nil {
		t.Fatalf("Failed to decode instance: %v", err)
	}
	if done.Status != domain.InstanceCompleted || done.CompletedAt == nil {
		t.Errorf("Expected completed instance, got %+v", done)
	}

	// Delete; the instance stays listed.
	if w := doRequest(t, router, http.MethodDelete, "/api/processes/"+def.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("Delete: expected 200, got %d", w.Code)
	}
	w = doRequest(t, router, http.MethodGet, "/api/instances", "")
	var insts []domain.ProcessInstance
	if err := json.NewDecoder(w.Body).Decode(&insts); err != nil {
		t.Fatalf("Failed to decode instances: %v", err)
	}
	if len(insts) != 1 {
		t.Errorf("Expected instance to survive definition delete, got %d", len(insts))
	}
}

func TestProcessNotFoundResponses(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/processes/missing"},
		{http.MethodPost, "/api/processes/missing/start"},
		{http.MethodGet, "/api/instances/missing"},
		{http.MethodPost, "/api/instances/missing/complete"},
	}
	for _, c := range cases {
		if w := doRequest(t, router, c.method, c.path, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", c.method, c.path, w.Code)
		}
	}
}

func TestSaveProcessRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	if w := doRequest(t, router, http.MethodPost, "/api/processes", "{"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed json, got %d", w.Code)
	}
	if w := doRequest(t, router, http.MethodPost, "/api/processes", `{"name":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank name, got %d", w.Code)
	}
}
