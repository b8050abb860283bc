package integration

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"portfoliosite/portfolio/internal/auth"
	"portfoliosite/portfolio/internal/contact"
	"portfoliosite/portfolio/internal/project"
)

func openTestPostgres(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("PORTFOLIO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PORTFOLIO_TEST_POSTGRES_DSN not set; skipping Postgres integration tests")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open() error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := db.Ping(); err != nil {
		t.Fatalf("db.Ping() error: %v", err)
	}
	return db
}

func TestPostgresAuthUserAndSessionRoundTrip(t *testing.T) {
	db := openTestPostgres(t)

	userStore, err := auth.NewPostgresUserStore(db)
	if err != nil {
		t.Fatalf("NewPostgresUserStore() error: %v", err)
	}
	sessionStore, err := auth.NewPostgresSessionStore(db)
	if err != nil {
		t.Fatalf("NewPostgresSessionStore() error: %v", err)
	}

	svc, err := auth.NewService(userStore, auth.ServiceConfig{
		PasswordPepper: "integration-pepper",
		JWTSecret:      "integration-signing-secret",
		SessionTTL:     time.Minute,
		SessionStore:   sessionStore,
	})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	username := fmt.Sprintf("itest_auth_%d", time.Now().UnixNano())
	u := auth.User{
		ID:           fmt.Sprintf("u-%d", time.Now().UnixNano()),
		Username:     username,
		PasswordHash: svc.HashPassword("Password123!"),
		Role:         "admin",
	}
	if err := userStore.Put(u); err != nil {
		t.Fatalf("userStore.Put() error: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM admin_sessions WHERE username = $1", username)
		_, _ = db.Exec("DELETE FROM admin_users WHERE username = $1", username)
	})

	session, _, err := svc.Login(username, "Password123!")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if session.Token == "" || session.ID == "" {
		t.Fatalf("expected non-empty session token and id")
	}

	restarted, err := auth.NewService(userStore, auth.ServiceConfig{
		PasswordPepper: "integration-pepper",
		JWTSecret:      "integration-signing-secret",
		SessionTTL:     time.Minute,
		SessionStore:   sessionStore,
	})
	if err != nil {
		t.Fatalf("NewService() restart error: %v", err)
	}
	if err := restarted.LoadSessionState(); err != nil {
		t.Fatalf("LoadSessionState() error: %v", err)
	}
	if _, err := restarted.ValidateToken(session.Token); err != nil {
		t.Fatalf("ValidateToken() after restart error: %v", err)
	}

	if err := restarted.Logout(session.Token); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if _, err := restarted.ValidateToken(session.Token); err == nil {
		t.Fatalf("expected revoked token to be rejected")
	}
}

func TestPostgresProjectLifecycle(t *testing.T) {
	db := openTestPostgres(t)

	svc, err := project.NewPGService(db)
	if err != nil {
		t.Fatalf("NewPGService() error: %v", err)
	}

	created, err := svc.Create(project.Project{
		Title:            fmt.Sprintf("itest project %d", time.Now().UnixNano()),
		Description:      "integration test project",
		ShortDescription: "itest",
		Technologies:     []string{"Go", "Postgres"},
		Featured:         true,
	})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM projects WHERE id = $1", created.ID)
	})

	got, err := svc.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got.Technologies) != 2 {
		t.Fatalf("expected technologies to round-trip, got %v", got.Technologies)
	}

	featured := svc.Featured()
	found := false
	for _, p := range featured {
		if p.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected created project in featured list")
	}

	if _, err := svc.Update(created.ID, project.Project{
		Title:            got.Title,
		Description:      got.Description,
		ShortDescription: got.ShortDescription,
		Status:           "completed",
	}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}

func TestPostgresContactLifecycle(t *testing.T) {
	db := openTestPostgres(t)

	svc, err := contact.NewPGService(db)
	if err != nil {
		t.Fatalf("NewPGService() error: %v", err)
	}

	created, err := svc.Submit(contact.Submission{
		Name:    "Integration Tester",
		Email:   fmt.Sprintf("itest_%d@example.com", time.Now().UnixNano()),
		Message: "integration test message",
	})
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM contacts WHERE id = $1", created.ID)
	})

	updated, err := svc.UpdateStatus(created.ID, "read")
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if updated.Status != "read" {
		t.Fatalf("expected status read, got %q", updated.Status)
	}

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}
