package project

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
	ErrNotFound     = errors.New("project not found")
	ErrInvalidInput = errors.New("invalid project input")

	allowedCategories = map[string]struct{}{
		"web-development": {}, "mobile-app": {}, "ui-design": {},
		"backend": {}, "fullstack": {}, "other": {},
	}
	allowedStatuses = map[string]struct{}{"active": {}, "inactive": {}, "completed": {}}
)

const (
	maxTitleLength     = 100
	maxShortDescLength = 200

	defaultCategory = "web-development"
	defaultStatus   = "active"
)

type Service struct {
	nowFunc   func() time.Time
	stateFile string

	mu       sync.RWMutex
	projects map[string]Project
}

func NewService() *Service {
	return &Service{
		nowFunc:  time.Now,
		projects: make(map[string]Project),
	}
}

func NewServiceWithFile(stateFile string) (*Service, error) {
	s := &Service{
		nowFunc:   time.Now,
		stateFile: strings.TrimSpace(stateFile),
		projects:  make(map[string]Project),
	}
	if s.stateFile == "" {
		return nil, fmt.Errorf("state file path is required")
	}
	if err := s.loadState(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) Create(p Project) (Project, error) {
	normalize(&p)
	if err := validate(p); err != nil {
		return Project{}, err
	}

	now := s.nowFunc().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.mu.Lock()
	prev := cloneProjects(s.projects)
	s.projects[p.ID] = p.Clone()
	if err := s.persistLocked(); err != nil {
		s.projects = prev
		s.mu.Unlock()
		return Project{}, err
	}
	s.mu.Unlock()

	return p, nil
}

func (s *Service) List() []Project {
	s.mu.RLock()
	projects := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p.Clone())
	}
	s.mu.RUnlock()

	sortNewestFirst(projects)
	return projects
}

// Featured returns the active featured projects, newest first.
func (s *Service) Featured() []Project {
	all := s.List()
	out := make([]Project, 0, len(all))
	for _, p := range all {
		if p.Featured && p.Status == "active" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) Get(id string) (Project, error) {
	s.mu.RLock()
	p, ok := s.projects[id]
	s.mu.RUnlock()
	if !ok {
		return Project{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *Service) Update(id string, p Project) (Project, error) {
	normalize(&p)
	if err := validate(p); err != nil {
		return Project{}, err
	}

	s.mu.Lock()
	prev := cloneProjects(s.projects)
	existing, ok := s.projects[id]
	if !ok {
		s.mu.Unlock()
		return Project{}, ErrNotFound
	}

	existing.Title = p.Title
	existing.Description = p.Description
	existing.ShortDescription = p.ShortDescription
	existing.Image = p.Image
	existing.Technologies = append([]string(nil), p.Technologies...)
	existing.GithubURL = p.GithubURL
	existing.LiveURL = p.LiveURL
	existing.Category = p.Category
	existing.Featured = p.Featured
	existing.Status = p.Status
	existing.UpdatedAt = s.nowFunc().UTC()
	s.projects[id] = existing.Clone()
	if err := s.persistLocked(); err != nil {
		s.projects = prev
		s.mu.Unlock()
		return Project{}, err
	}
	s.mu.Unlock()

	return existing, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := cloneProjects(s.projects)
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	if err := s.persistLocked(); err != nil {
		s.projects = prev
		return err
	}
	return nil
}

func (s *Service) loadState() error {
	b, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read project state: %w", err)
	}
	if len(b) == 0 {
		return nil
	}

	var decoded []Project
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("decode project state: %w", err)
	}
	for _, p := range decoded {
		if strings.TrimSpace(p.ID) == "" {
			continue
		}
		s.projects[p.ID] = p
	}
	return nil
}

func (s *Service) persistLocked() error {
	if s.stateFile == "" {
		return nil
	}

	out := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sortNewestFirst(out)

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0o755); err != nil {
		return fmt.Errorf("mkdir project state dir: %w", err)
	}
	if err := os.WriteFile(s.stateFile, b, 0o644); err != nil {
		return fmt.Errorf("write project state: %w", err)
	}
	return nil
}

func normalize(p *Project) {
	p.Title = strings.TrimSpace(p.Title)
	p.ShortDescription = strings.TrimSpace(p.ShortDescription)
	p.Image = strings.TrimSpace(p.Image)
	p.GithubURL = strings.TrimSpace(p.GithubURL)
	p.LiveURL = strings.TrimSpace(p.LiveURL)

	techs := make([]string, 0, len(p.Technologies))
	for _, t := range p.Technologies {
		if t = strings.TrimSpace(t); t != "" {
			techs = append(techs, t)
		}
	}
	p.Technologies = techs

	if p.Category == "" {
		p.Category = defaultCategory
	}
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	if p.Status == "" {
		p.Status = defaultStatus
	}
	p.Status = strings.ToLower(strings.TrimSpace(p.Status))
}

func validate(p Project) error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(p.Title) > maxTitleLength {
		return fmt.Errorf("%w: title cannot exceed %d characters", ErrInvalidInput, maxTitleLength)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if p.ShortDescription == "" {
		return fmt.Errorf("%w: short description is required", ErrInvalidInput)
	}
	if len(p.ShortDescription) > maxShortDescLength {
		return fmt.Errorf("%w: short description cannot exceed %d characters", ErrInvalidInput, maxShortDescLength)
	}
	if _, ok := allowedCategories[p.Category]; !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, p.Category)
	}
	if _, ok := allowedStatuses[p.Status]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, p.Status)
	}
	if err := validateURL(p.GithubURL); err != nil {
		return fmt.Errorf("%w: github url: %v", ErrInvalidInput, err)
	}
	if err := validateURL(p.LiveURL); err != nil {
		return fmt.Errorf("%w: live url: %v", ErrInvalidInput, err)
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return fmt.Errorf("must start with http:// or https://")
	}
	return nil
}

func cloneProjects(in map[string]Project) map[string]Project {
	out := make(map[string]Project, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func sortNewestFirst(projects []Project) {
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
}
