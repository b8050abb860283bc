package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("contact not found")
	ErrInvalidInput = errors.New("invalid contact input")

	allowedStatuses = map[string]struct{}{"new": {}, "read": {}, "replied": {}}
)

const maxMessageLength = 5000

type Service struct {
	nowFunc   func() time.Time
	stateFile string

	mu       sync.RWMutex
	contacts map[string]Contact
}

func NewService() *Service {
	return &Service{
		nowFunc:  time.Now,
		contacts: make(map[string]Contact),
	}
}

func NewServiceWithFile(stateFile string) (*Service, error) {
	s := &Service{
		nowFunc:   time.Now,
		stateFile: strings.TrimSpace(stateFile),
		contacts:  make(map[string]Contact),
	}
	if s.stateFile == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if err := s.loadState(); err != nil {
		return nil, err
	}
	return s, nil
}

// Submit records a new contact-form submission with status "new".
func (s *Service) Submit(sub Submission) (Contact, error) {
	if err := validateSubmission(sub); err != nil {
		return Contact{}, err
	}

	now := s.nowFunc().UTC()
	c := Contact{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(sub.Name),
		Email:     strings.TrimSpace(sub.Email),
		Subject:   strings.TrimSpace(sub.Subject),
		Message:   strings.TrimSpace(sub.Message),
		Status:    "new",
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	prev := cloneContacts(s.contacts)
	s.contacts[c.ID] = c.Clone()
	if err := s.persistLocked(); err != nil {
		s.contacts = prev
		s.mu.Unlock()
		return Contact{}, err
	}
	s.mu.Unlock()

	return c, nil
}

func (s *Service) List() []Contact {
	s.mu.RLock()
	contacts := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		contacts = append(contacts, c.Clone())
	}
	s.mu.RUnlock()

	sortNewestFirst(contacts)
	return contacts
}

func (s *Service) Get(id string) (Contact, error) {
	s.mu.RLock()
	c, ok := s.contacts[id]
	s.mu.RUnlock()
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Service) UpdateStatus(id, status string) (Contact, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := allowedStatuses[status]; !ok {
		return Contact{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	s.mu.Lock()
	prev := cloneContacts(s.contacts)
	existing, ok := s.contacts[id]
	if !ok {
		s.mu.Unlock()
		return Contact{}, ErrNotFound
	}
	existing.Status = status
	existing.UpdatedAt = s.nowFunc().UTC()
	s.contacts[id] = existing.Clone()
	if err := s.persistLocked(); err != nil {
		s.contacts = prev
		s.mu.Unlock()
		return Contact{}, err
	}
	s.mu.Unlock()

	return existing, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := cloneContacts(s.contacts)
	if _, ok := s.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(s.contacts, id)
	if err := s.persistLocked(); err != nil {
		s.contacts = prev
		return err
	}
	return nil
}

func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Total: len(s.contacts)}
	for _, c := range s.contacts {
		switch c.Status {
		case "new":
			stats.New++
		case "read":
			stats.Read++
		case "replied":
			stats.Replied++
		}
	}
	return stats
}

func (s *Service) loadState() error {
	b, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read contact state: %w", err)
	}
	if len(b) == 0 {
		return nil
	}

	var decoded []Contact
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("decode contact state: %w", err)
	}
	for _, c := range decoded {
		if strings.TrimSpace(c.ID) == "" {
			continue
		}
		s.contacts[c.ID] = c
	}
	return nil
}

func (s *Service) persistLocked() error {
	if s.stateFile == "" {
		return nil
	}

	out := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, c)
	}
	sortNewestFirst(out)

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contact state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0o755); err != nil {
		return fmt.Errorf("mkdir contact state dir: %w", err)
	}
	if err := os.WriteFile(s.stateFile, b, 0o644); err != nil {
		return fmt.Errorf("write contact state: %w", err)
	}
	return nil
}

func validateSubmission(sub Submission) error {
	if strings.TrimSpace(sub.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email := strings.TrimSpace(sub.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	msg := strings.TrimSpace(sub.Message)
	if msg == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if len(msg) > maxMessageLength {
		return fmt.Errorf("%w: message cannot exceed %d characters", ErrInvalidInput, maxMessageLength)
	}
	return nil
}

func cloneContacts(in map[string]Contact) map[string]Contact {
	out := make(map[string]Contact, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func sortNewestFirst(contacts []Contact) {
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].CreatedAt.After(contacts[j].CreatedAt) })
}
