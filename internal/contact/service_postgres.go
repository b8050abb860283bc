package contact

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
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
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'new',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure contacts schema: %w", err)
	}
	return nil
}

const contactColumns = `id, name, email, subject, message, status, created_at, updated_at`

func (s *PGService) Submit(sub Submission) (Contact, error) {
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

	const q = `
INSERT INTO contacts
  (` + contactColumns + `)
VALUES
  ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.Exec(q, c.ID, c.Name, c.Email, c.Subject, c.Message, c.Status, c.CreatedAt, c.UpdatedAt); err != nil {
		return Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return c, nil
}

func (s *PGService) List() []Contact {
	const q = `
SELECT ` + contactColumns + `
FROM contacts
ORDER BY created_at DESC`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil
	}
	defer rows.Close()

	out := make([]Contact, 0)
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *PGService) Get(id string) (Contact, error) {
	if id == "" {
		return Contact{}, ErrNotFound
	}
	const q = `
SELECT ` + contactColumns + `
FROM contacts
WHERE id = $1`
	var c Contact
	if err := s.db.QueryRow(q, id).Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (s *PGService) UpdateStatus(id, status string) (Contact, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := allowedStatuses[status]; !ok {
		return Contact{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if id == "" {
		return Contact{}, ErrNotFound
	}

	const q = `
UPDATE contacts
SET status = $2,
	updated_at = $3
WHERE id = $1`
	res, err := s.db.Exec(q, id, status, s.nowFunc().UTC())
	if err != nil {
		return Contact{}, fmt.Errorf("update contact status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Contact{}, fmt.Errorf("read update affected rows: %w", err)
	}
	if affected == 0 {
		return Contact{}, ErrNotFound
	}
	return s.Get(id)
}

func (s *PGService) Delete(id string) error {
	if id == "" {
		return ErrNotFound
	}
	const q = `DELETE FROM contacts WHERE id = $1`
	res, err := s.db.Exec(q, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
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

func (s *PGService) Stats() Stats {
	const q = `SELECT status, COUNT(*) FROM contacts GROUP BY status`
	rows, err := s.db.Query(q)
	if err != nil {
		return Stats{}
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			continue
		}
		stats.Total += count
		switch status {
		case "new":
			stats.New = count
		case "read":
			stats.Read = count
		case "replied":
			stats.Replied = count
		}
	}
	return stats
}
