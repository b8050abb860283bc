package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"portfoliosite/portfolio/internal/credentials"
)

type fakeNavigator struct {
	mu       sync.Mutex
	loc      string
	replaced []string
}

func (n *fakeNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loc
}

func (n *fakeNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loc = path
	n.replaced = append(n.replaced, path)
}

func (n *fakeNavigator) replacements() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.replaced...)
}

func newTestClient(t *testing.T, baseURL string, nav *fakeNavigator) (*Client, *credentials.Store) {
	t.Helper()
	store, err := credentials.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	client, err := New(Config{BaseURL: baseURL}, store, nav)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client, store
}

func TestAttachesTokenWhenPresent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/"}
	client, store := newTestClient(t, srv.URL, nav)

	if _, err := client.Portfolio.ListProjects(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header before login, got %q", gotAuth)
	}

	if err := store.Save("token-123", credentials.Profile{ID: "u-1", Username: "admin"}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}
	if _, err := client.Portfolio.ListProjects(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer token-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/login" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode login request: %v", err)
		}
		if req.Username != "admin" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "token-123",
			"user":  map[string]string{"id": "u-1", "username": "admin", "role": "admin"},
		})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/admin/login"}
	client, store := newTestClient(t, srv.URL, nav)

	user, err := client.Admin.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Username != "admin" {
		t.Fatalf("expected username admin, got %q", user.Username)
	}

	token, ok := store.Token()
	if !ok || token != "token-123" {
		t.Fatalf("expected stored token token-123, got %q ok=%v", token, ok)
	}
	profile, ok := store.Profile()
	if !ok || profile.ID != "u-1" {
		t.Fatalf("expected stored profile, got %+v ok=%v", profile, ok)
	}
}

func TestLoginRejectedLeavesNoSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/admin/login"}
	client, store := newTestClient(t, srv.URL, nav)

	_, err := client.Admin.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Fatalf("expected no stored token after rejected login")
	}
	if got := nav.replacements(); len(got) != 0 {
		t.Fatalf("expected no redirect from the login page, got %v", got)
	}
}

func TestRejectionClearsAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/admin/dashboard"}
	client, store := newTestClient(t, srv.URL, nav)
	if err := store.Save("stale-token", credentials.Profile{ID: "u-1", Username: "admin"}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}

	_, err := client.Admin.DashboardStats(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Fatalf("expected credentials cleared after rejection")
	}
	got := nav.replacements()
	if len(got) != 1 || got[0] != "/admin/login" {
		t.Fatalf("expected one redirect to /admin/login, got %v", got)
	}
}

func TestRejectionOutsideAdminDoesNotRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/"}
	client, store := newTestClient(t, srv.URL, nav)
	if err := store.Save("stale-token", credentials.Profile{}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}

	_, err := client.Portfolio.ListProjects(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Fatalf("expected credentials cleared after rejection")
	}
	if got := nav.replacements(); len(got) != 0 {
		t.Fatalf("expected no redirect outside the admin area, got %v", got)
	}
}

func TestConcurrentRejectionsRedirectOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/admin/dashboard"}
	client, store := newTestClient(t, srv.URL, nav)
	if err := store.Save("stale-token", credentials.Profile{}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}

	const calls = 8
	var wg sync.WaitGroup
	errs := make([]error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Admin.DashboardStats(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("call %d: expected ErrUnauthorized, got %v", i, err)
		}
	}
	got := nav.replacements()
	if len(got) != 1 || got[0] != "/admin/login" {
		t.Fatalf("expected exactly one redirect, got %v", got)
	}
}

func TestTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/admin/dashboard"}
	store, err := credentials.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	client, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, store, nav)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if err := store.Save("token-123", credentials.Profile{}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}

	_, err = client.Admin.DashboardStats(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	// A slow server is not a rejection: the session stays.
	if _, ok := store.Token(); !ok {
		t.Fatalf("expected token to survive a timeout")
	}
	if got := nav.replacements(); len(got) != 0 {
		t.Fatalf("expected no redirect on timeout, got %v", got)
	}
}

func TestUnreachableClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	nav := &fakeNavigator{loc: "/"}
	client, _ := newTestClient(t, srv.URL, nav)

	_, err := client.Portfolio.ListProjects(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestServerErrorSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "database exploded"})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/admin/dashboard"}
	client, store := newTestClient(t, srv.URL, nav)
	if err := store.Save("token-123", credentials.Profile{}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}

	_, err := client.Admin.DashboardStats(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "database exploded" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	// Only a 401 touches the stored session.
	if _, ok := store.Token(); !ok {
		t.Fatalf("expected token to survive a server error")
	}
}

func TestLogoutClearsLocallyEvenWhenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/admin/dashboard"}
	client, store := newTestClient(t, srv.URL, nav)
	if err := store.Save("stale-token", credentials.Profile{Username: "admin"}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}

	if err := client.Admin.Logout(context.Background()); err != nil {
		t.Fatalf("logout with stale token should still succeed locally, got %v", err)
	}
	if _, ok := store.Token(); ok {
		t.Fatalf("expected credentials cleared after logout")
	}
}

func TestCanceledContextIsNotATimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/"}
	client, _ := newTestClient(t, srv.URL, nav)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := client.Portfolio.ListProjects(ctx)
	if err == nil {
		t.Fatalf("expected error from canceled context")
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatalf("cancellation should not classify as timeout: %v", err)
	}
}

func TestDeadlineExceededIsATimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	nav := &fakeNavigator{loc: "/"}
	client, _ := newTestClient(t, srv.URL, nav)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := client.Portfolio.ListProjects(ctx)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout for exceeded deadline, got %v", err)
	}
}
