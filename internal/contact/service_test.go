package contact

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSubmit(t *testing.T) {
	svc := NewService()

	created, err := svc.Submit(Submission{
		Name:    "  Visitor  ",
		Email:   "visitor@example.com",
		Subject: "Hello",
		Message: "I would like to talk about a project.",
	})
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.Name != "Visitor" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.Status != "new" {
		t.Fatalf("expected status new, got %q", created.Status)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService()

	cases := []struct {
		name string
		sub  Submission
	}{
		{"missing name", Submission{Email: "a@b.c", Message: "m"}},
		{"missing email", Submission{Name: "n", Message: "m"}},
		{"bad email", Submission{Name: "n", Email: "not-an-email", Message: "m"}},
		{"missing message", Submission{Name: "n", Email: "a@b.c"}},
		{"message too long", Submission{Name: "n", Email: "a@b.c", Message: strings.Repeat("a", 5001)}},
	}
	for _, tc := range cases {
		if _, err := svc.Submit(tc.sub); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := NewService()
	created, err := svc.Submit(Submission{Name: "n", Email: "a@b.c", Message: "m"})
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	updated, err := svc.UpdateStatus(created.ID, "READ")
	if err != nil {
		t.Fatalf("UpdateStatus() error: %v", err)
	}
	if updated.Status != "read" {
		t.Fatalf("expected normalized status read, got %q", updated.Status)
	}

	if _, err := svc.UpdateStatus(created.ID, "spam"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
	if _, err := svc.UpdateStatus("missing", "read"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := NewService()
	created, _ := svc.Submit(Submission{Name: "n", Email: "a@b.c", Message: "m"})

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := svc.Delete(created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc := NewService()

	first, _ := svc.Submit(Submission{Name: "a", Email: "a@b.c", Message: "m"})
	second, _ := svc.Submit(Submission{Name: "b", Email: "b@b.c", Message: "m"})
	_, _ = svc.Submit(Submission{Name: "c", Email: "c@b.c", Message: "m"})

	_, _ = svc.UpdateStatus(first.ID, "read")
	_, _ = svc.UpdateStatus(second.ID, "replied")

	stats := svc.Stats()
	if stats.Total != 3 || stats.New != 1 || stats.Read != 1 || stats.Replied != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc := NewService()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	svc.nowFunc = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	_, _ = svc.Submit(Submission{Name: "first", Email: "a@b.c", Message: "m"})
	second, _ := svc.Submit(Submission{Name: "second", Email: "b@b.c", Message: "m"})

	got := svc.List()
	if len(got) != 2 || got[0].ID != second.ID {
		t.Fatalf("expected newest first, got %v", got)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	stateFile := filepath.Join(t.TempDir(), "contacts.json")

	svc, err := NewServiceWithFile(stateFile)
	if err != nil {
		t.Fatalf("NewServiceWithFile() error: %v", err)
	}
	created, err := svc.Submit(Submission{Name: "n", Email: "a@b.c", Message: "m"})
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	reopened, err := NewServiceWithFile(stateFile)
	if err != nil {
		t.Fatalf("NewServiceWithFile() reopen error: %v", err)
	}
	got, err := reopened.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error: %v", err)
	}
	if got.Email != "a@b.c" || got.Status != "new" {
		t.Fatalf("unexpected reloaded contact: %+v", got)
	}
}
