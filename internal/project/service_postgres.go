package project

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PGService struct {
	db      *sql.DB
	nowFunc func() time.Time
}

func NewPGService(db *sql.DB) (*PGService, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PGService{
		db:      db,
		nowFunc: time.Now,
	}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGService) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	short_description TEXT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	technologies JSONB NOT NULL DEFAULT '[]'::jsonb,
	github_url TEXT NOT NULL DEFAULT '',
	live_url TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	featured BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure projects schema: %w", err)
	}
	return nil
}

const projectColumns = `id, title, description, short_description, image, technologies, github_url, live_url, category, featured, status, created_at, updated_at`

func (s *PGService) Create(p Project) (Project, error) {
	normalize(&p)
	if err := validate(p); err != nil {
		return Project{}, err
	}

	now := s.nowFunc().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now

	techJSON, err := json.Marshal(p.Technologies)
	if err != nil {
		return Project{}, fmt.Errorf("encode technologies: %w", err)
	}

	const q = `
INSERT INTO projects
  (` + projectColumns + `)
VALUES
  ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := s.db.Exec(q, p.ID, p.Title, p.Description, p.ShortDescription, p.Image, techJSON, p.GithubURL, p.LiveURL, p.Category, p.Featured, p.Status, p.CreatedAt, p.UpdatedAt); err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (s *PGService) List() []Project {
	const q = `
SELECT ` + projectColumns + `
FROM projects
ORDER BY created_at DESC`
	return s.queryProjects(q)
}

func (s *PGService) Featured() []Project {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE featured = TRUE AND status = 'active'
ORDER BY created_at DESC`
	return s.queryProjects(q)
}

func (s *PGService) queryProjects(q string, args ...any) []Project {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()

	out := make([]Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *PGService) Get(id string) (Project, error) {
	if id == "" {
		return Project{}, ErrNotFound
	}
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1`
	p, err := scanProject(s.db.QueryRow(q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *PGService) Update(id string, p Project) (Project, error) {
	normalize(&p)
	if err := validate(p); err != nil {
		return Project{}, err
	}
	if id == "" {
		return Project{}, ErrNotFound
	}

	techJSON, err := json.Marshal(p.Technologies)
	if err != nil {
		return Project{}, fmt.Errorf("encode technologies: %w", err)
	}

	const q = `
UPDATE projects
SET title = $2,
	description = $3,
	short_description = $4,
	image = $5,
	technologies = $6,
	github_url = $7,
	live_url = $8,
	category = $9,
	featured = $10,
	status = $11,
	updated_at = $12
WHERE id = $1`
	res, err := s.db.Exec(q, id, p.Title, p.Description, p.ShortDescription, p.Image, techJSON, p.GithubURL, p.LiveURL, p.Category, p.Featured, p.Status, s.nowFunc().UTC())
	if err != nil {
		return Project{}, fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Project{}, fmt.Errorf("read update affected rows: %w", err)
	}
	if affected == 0 {
		return Project{}, ErrNotFound
	}
	return s.Get(id)
}

func (s *PGService) Delete(id string) error {
	if id == "" {
		return ErrNotFound
	}
	const q = `DELETE FROM projects WHERE id = $1`
	res, err := s.db.Exec(q, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read delete affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var techJSON []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.ShortDescription, &p.Image, &techJSON, &p.GithubURL, &p.LiveURL, &p.Category, &p.Featured, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Project{}, err
	}
	if len(techJSON) > 0 {
		if err := json.Unmarshal(techJSON, &p.Technologies); err != nil {
			return Project{}, fmt.Errorf("decode technologies: %w", err)
		}
	}
	return p, nil
}
