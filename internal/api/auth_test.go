package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fluxobpm/fluxo/internal/domain"
	"github.com/fluxobpm/fluxo/internal/identity"
	"github.com/fluxobpm/fluxo/internal/store"
	"github.com/go-chi/chi/v5"
)

func newAuthRouter(t *testing.T) (*chi.Mux, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	r := chi.NewRouter()
	r.Use(identity.Middleware())
	NewAuthHandler(repo, true).RegisterRoutes(r)
	return r, repo
}

func TestLogin(t *testing.T) {
	router, repo := newAuthRouter(t)

	body := `{"email":"ana@example.com","role":"modeler"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var user domain.User
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}
	if user.Email != "ana@example.com" || user.Role != domain.RoleModeler {
		t.Errorf("Unexpected user: %+v", user)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != identity.SessionCookieName {
		t.Fatalf("Expected a session cookie, got %v", cookies)
	}
	if cookies[0].Value != user.UserID {
		t.Error("Cookie does not carry the user id")
	}

	stored, err := repo.GetUser(req.Context(), user.UserID)
	if err != nil || stored == nil {
		t.Fatalf("User not persisted: %v", err)
	}
}

func TestLoginValidation(t *testing.T) {
	router, _ := newAuthRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"missing email", `{"role":"modeler"}`},
		{"bad email", `{"email":"not-an-email","role":"modeler"}`},
		{"bad role", `{"email":"ana@example.com","role":"admin"}`},
		{"missing role", `{"email":"ana@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
		})
	}
}

func TestMeAndLogout(t *testing.T) {
	router, _ := newAuthRouter(t)

	// No session.
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without session, got %d", w.Code)
	}

	// Login, then echo the session back.
	body := `{"email":"ana@example.com","role":"executor"}`
	req = httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	cookie := w.Result().Cookies()[0]

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var user domain.User
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}
	if user.Role != domain.RoleExecutor {
		t.Errorf("Unexpected role: %q", user.Role)
	}

	// Logout clears the cookie and forgets the user.
	req = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Logout failed: %d", w.Code)
	}
	if w.Result().Cookies()[0].MaxAge != -1 {
		t.Error("Expected cookie expiry on logout")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", w.Code)
	}
}
