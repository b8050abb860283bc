package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"portfoliosite/portfolio/internal/credentials"
)

const defaultTimeout = 10 * time.Second

// CredentialStore is the client-local session state the gateway reads on
// every request and clears on rejection.
type CredentialStore interface {
	Token() (string, bool)
	Save(token string, p credentials.Profile) error
	Clear() error
}

// Navigator exposes the current navigation location and the forced
// replace-navigation used when a session is rejected inside the
// privileged area. Replace must move Location to the new path.
type Navigator interface {
	Location() string
	Replace(path string)
}

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string
	// Timeout bounds every outbound call; defaults to 10s.
	Timeout time.Duration
	// AdminPrefix and LoginPath describe the privileged area; rejection
	// redirects only fire inside it, and never from the login path itself.
	AdminPrefix string
	LoginPath   string
}

// Client is the single choke point for backend calls. Every request goes
// through do: the token is attached when present, and rejection, timeout
// and connectivity failures are classified uniformly so call sites never
// handle tokens or auth errors themselves.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	creds       CredentialStore
	nav         Navigator
	adminPrefix string
	loginPath   string

	rejectMu sync.Mutex

	Portfolio *PortfolioAPI
	Admin     *AdminAPI
	Contact   *ContactAPI
}

func New(cfg Config, creds CredentialStore, nav Navigator) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if nav == nil {
		return nil, fmt.Errorf("navigator is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AdminPrefix == "" {
		cfg.AdminPrefix = "/admin"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/admin/login"
	}

	c := &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		creds:       creds,
		nav:         nav,
		adminPrefix: cfg.AdminPrefix,
		loginPath:   cfg.LoginPath,
	}
	c.Portfolio = &PortfolioAPI{c: c}
	c.Admin = &AdminAPI{c: c}
	c.Contact = &ContactAPI{c: c}
	return c, nil
}

// do sends one request and decodes the response into out (when non-nil).
// No retries: a failed call surfaces after at most the rejection side
// effects.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token, ok := c.creds.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleRejection()
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// handleRejection performs the two global side effects of a session
// rejection: clear the credential store, and replace-navigate to the
// login path when the current location is inside the privileged area.
// The mutex serializes concurrent in-flight rejections so only the first
// one navigates; a rejection observed on the login path never redirects.
func (c *Client) handleRejection() {
	c.rejectMu.Lock()
	defer c.rejectMu.Unlock()

	_ = c.creds.Clear()

	loc := c.nav.Location()
	if strings.HasPrefix(loc, c.adminPrefix) && loc != c.loginPath {
		c.nav.Replace(c.loginPath)
	}
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func readErrorMessage(r io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
