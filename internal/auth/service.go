package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakPassword       = errors.New("weak password")
	ErrUserExists         = errors.New("user already exists")
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
)

type Service struct {
	users        UserStore
	pepper       string
	jwtSecret    []byte
	ttl          time.Duration
	nowFunc      func() time.Time
	stateFile    string
	sessionStore SessionStore

	sessMu   sync.RWMutex
	sessions map[string]Session
}

type ServiceConfig struct {
	PasswordPepper   string
	JWTSecret        string
	SessionTTL       time.Duration
	SessionStateFile string
	SessionStore     SessionStore
}

type jwtClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewService(userStore UserStore, cfg ServiceConfig) (*Service, error) {
	if userStore == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if cfg.PasswordPepper == "" {
		return nil, fmt.Errorf("password pepper is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be > 0")
	}

	return &Service{
		users:        userStore,
		pepper:       cfg.PasswordPepper,
		jwtSecret:    []byte(cfg.JWTSecret),
		ttl:          cfg.SessionTTL,
		nowFunc:      time.Now,
		stateFile:    cfg.SessionStateFile,
		sessionStore: cfg.SessionStore,
		sessions:     make(map[string]Session),
	}, nil
}

func (s *Service) HashPassword(password string) string {
	sum := sha256.Sum256([]byte(s.pepper + ":" + password))
	return hex.EncodeToString(sum[:])
}

func (s *Service) VerifyPassword(password, storedHash string) bool {
	candidate := s.HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}

// Login verifies the credentials and issues a signed bearer token. The
// session is recorded so it can be revoked and survives restarts.
func (s *Service) Login(username, password string) (Session, User, error) {
	u, err := s.users.GetByUsername(username)
	if err != nil {
		return Session{}, User{}, ErrInvalidCredentials
	}

	if !s.VerifyPassword(password, u.PasswordHash) {
		return Session{}, User{}, ErrInvalidCredentials
	}

	now := s.nowFunc()
	sessionID := uuid.NewString()
	claims := jwtClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return Session{}, User{}, fmt.Errorf("sign token: %w", err)
	}

	session := Session{
		ID:        sessionID,
		Token:     token,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.sessMu.Lock()
	s.sessions[token] = session
	if err := s.persistSessionsLocked(); err != nil {
		delete(s.sessions, token)
		s.sessMu.Unlock()
		return Session{}, User{}, err
	}
	s.sessMu.Unlock()

	return session, u, nil
}

// ValidateToken accepts a token only when its signature checks out and
// the session is still recorded (not logged out) and not expired.
func (s *Service) ValidateToken(token string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.nowFunc() }))
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	s.sessMu.RLock()
	session, ok := s.sessions[token]
	s.sessMu.RUnlock()
	if !ok {
		return Session{}, ErrInvalidToken
	}

	if s.nowFunc().After(session.ExpiresAt) {
		s.sessMu.Lock()
		delete(s.sessions, token)
		_ = s.persistSessionsLocked()
		s.sessMu.Unlock()
		return Session{}, ErrInvalidToken
	}

	return session, nil
}

func (s *Service) Logout(token string) error {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return ErrInvalidToken
	}
	delete(s.sessions, token)
	if err := s.persistSessionsLocked(); err != nil {
		return err
	}
	return nil
}

// CreateUser registers a new admin account.
func (s *Service) CreateUser(username, password, email string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, fmt.Errorf("username is required")
	}
	if err := validatePasswordPolicy(password); err != nil {
		return User{}, ErrWeakPassword
	}
	if _, err := s.users.GetByUsername(username); err == nil {
		return User{}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("check existing user: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: s.HashPassword(password),
		Role:         "admin",
	}
	if err := s.users.Put(u); err != nil {
		return User{}, fmt.Errorf("store user: %w", err)
	}
	return u, nil
}

func (s *Service) ChangePassword(token, currentPassword, newPassword string) error {
	if err := validatePasswordPolicy(newPassword); err != nil {
		return ErrWeakPassword
	}

	session, err := s.ValidateToken(token)
	if err != nil {
		return err
	}

	user, err := s.users.GetByUsername(session.Username)
	if err != nil {
		return ErrInvalidCredentials
	}
	if !s.VerifyPassword(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	user.PasswordHash = s.HashPassword(newPassword)
	if err := s.users.Put(user); err != nil {
		return fmt.Errorf("store updated password: %w", err)
	}
	return nil
}

func validatePasswordPolicy(password string) error {
	if strings.TrimSpace(password) != password {
		return ErrWeakPassword
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return ErrWeakPassword
	}
	return nil
}

func (s *Service) LoadSessionState() error {
	if s.sessionStore != nil {
		state, err := s.sessionStore.Load()
		if err != nil {
			return fmt.Errorf("load session state: %w", err)
		}
		s.sessMu.Lock()
		s.sessions = state
		s.sessMu.Unlock()
		return nil
	}

	if s.stateFile == "" {
		return nil
	}
	b, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read session state: %w", err)
	}
	if len(b) == 0 {
		return nil
	}
	state := make(map[string]Session)
	if err := json.Unmarshal(b, &state); err != nil {
		return fmt.Errorf("decode session state: %w", err)
	}

	s.sessMu.Lock()
	s.sessions = state
	s.sessMu.Unlock()
	return nil
}

func (s *Service) persistSessionsLocked() error {
	if s.sessionStore != nil {
		if err := s.sessionStore.Save(s.sessions); err != nil {
			return fmt.Errorf("save session state: %w", err)
		}
		return nil
	}

	if s.stateFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0o755); err != nil {
		return fmt.Errorf("mkdir session state dir: %w", err)
	}
	b, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.WriteFile(s.stateFile, b, 0o600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}
