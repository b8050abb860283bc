package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Profile is the user record cached next to the session token. It is
// display data only; authorization always comes from the server.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

const (
	tokenEntry   = "token"
	profileEntry = "user.json"
)

// Store persists the session token and user profile as two named entries
// under a state directory. Both entries are written and removed together;
// the token is never parsed, only stored and forwarded.
type Store struct {
	dir string
	mu  sync.RWMutex
}

func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("credential state dir is required")
	}
	return &Store{dir: dir}, nil
}

// Save writes the token and profile, overwriting any prior values.
func (s *Store) Save(token string, p Profile) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir credential dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenEntry), []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token entry: %w", err)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, profileEntry), b, 0o600); err != nil {
		return fmt.Errorf("write profile entry: %w", err)
	}
	return nil
}

// Clear removes both entries. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{tokenEntry, profileEntry} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s entry: %w", name, err)
		}
	}
	return nil
}

// Token returns the stored session token, if any.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(filepath.Join(s.dir, tokenEntry))
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", false
	}
	return token, true
}

// Profile returns the cached user profile. A missing or unparseable
// entry reads as absent rather than failing.
func (s *Store) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(filepath.Join(s.dir, profileEntry))
	if err != nil {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return Profile{}, false
	}
	return p, true
}
