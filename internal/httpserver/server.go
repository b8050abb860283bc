package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"portfoliosite/portfolio/internal/auth"
	"portfoliosite/portfolio/internal/config"
	"portfoliosite/portfolio/internal/contact"
	"portfoliosite/portfolio/internal/project"
)

type AuthService interface {
	Login(username, password string) (auth.Session, auth.User, error)
	ValidateToken(token string) (auth.Session, error)
	Logout(token string) error
	CreateUser(username, password, email string) (auth.User, error)
	ChangePassword(token, currentPassword, newPassword string) error
}

type ProjectService interface {
	Create(p project.Project) (project.Project, error)
	List() []project.Project
	Featured() []project.Project
	Get(id string) (project.Project, error)
	Update(id string, p project.Project) (project.Project, error)
	Delete(id string) error
}

type ContactService interface {
	Submit(s contact.Submission) (contact.Contact, error)
	List() []contact.Contact
	Get(id string) (contact.Contact, error)
	UpdateStatus(id, status string) (contact.Contact, error)
	Delete(id string) error
	Stats() contact.Stats
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

type Deps struct {
	Auth           AuthService
	Projects       ProjectService
	Contacts       ContactService
	Audit          AuditLogger
	AllowedOrigins []string
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(corsMiddleware(deps.AllowedOrigins, handler)),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "portfolio-api",
			"version": "1.0.0",
			"endpoints": map[string]string{
				"health":    "/health",
				"portfolio": "/api/portfolio",
				"admin":     "/api/admin",
				"contact":   "/api/contact",
			},
		})
	})

	registerPortfolioHandlers(mux, deps)
	registerAdminHandlers(mux, deps)
	registerContactHandlers(mux, deps)

	return mux
}

func registerPortfolioHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/api/portfolio/projects", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Projects == nil {
			writeError(w, http.StatusServiceUnavailable, "project service unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": deps.Projects.List()})
	})

	mux.HandleFunc("/api/portfolio/projects/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Projects == nil {
			writeError(w, http.StatusServiceUnavailable, "project service unavailable")
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/api/portfolio/projects/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		if id == "featured" {
			writeJSON(w, http.StatusOK, map[string]any{"items": deps.Projects.Featured()})
			return
		}

		p, err := deps.Projects.Get(id)
		if err != nil {
			if errors.Is(err, project.ErrNotFound) {
				writeError(w, http.StatusNotFound, "project not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "get project failed")
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
}

func registerAdminHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		session, user, err := deps.Auth.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				auditReq(deps.Audit, r, req.Username, "auth.login", "", "failed", "", "invalid credentials")
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			auditReq(deps.Audit, r, req.Username, "auth.login", "", "failed", "", err.Error())
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}
		auditReq(deps.Audit, r, session.Username, "auth.login", "", "success", session.ID, "")

		writeJSON(w, http.StatusOK, map[string]any{
			"token":      session.Token,
			"user":       userPayload(user),
			"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/api/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		session, _ := deps.Auth.ValidateToken(token)
		if err := deps.Auth.Logout(token); err != nil {
			auditReq(deps.Audit, r, session.Username, "auth.logout", "", "failed", session.ID, "invalid token")
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		auditReq(deps.Audit, r, session.Username, "auth.logout", "", "success", session.ID, "")
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/admin/create", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		adminSession, ok := requireSession(w, r, deps.Auth, "admin")
		if !ok {
			return
		}

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Email    string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		user, err := deps.Auth.CreateUser(req.Username, req.Password, req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrWeakPassword) {
				writeError(w, http.StatusBadRequest, "password does not meet policy")
				return
			}
			if errors.Is(err, auth.ErrUserExists) {
				writeError(w, http.StatusConflict, "username already taken")
				return
			}
			auditReq(deps.Audit, r, adminSession.Username, "admin.create", req.Username, "failed", adminSession.ID, err.Error())
			writeError(w, http.StatusInternalServerError, "create admin failed")
			return
		}
		auditReq(deps.Audit, r, adminSession.Username, "admin.create", user.Username, "success", adminSession.ID, "")
		writeJSON(w, http.StatusCreated, userPayload(user))
	})

	mux.HandleFunc("/api/admin/change-password", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Auth == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		session, _ := deps.Auth.ValidateToken(token)

		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.CurrentPassword == "" || req.NewPassword == "" {
			writeError(w, http.StatusBadRequest, "current_password and new_password are required")
			return
		}

		if err := deps.Auth.ChangePassword(token, req.CurrentPassword, req.NewPassword); err != nil {
			if errors.Is(err, auth.ErrWeakPassword) {
				auditReq(deps.Audit, r, session.Username, "auth.change_password", "", "failed", session.ID, "weak password")
				writeError(w, http.StatusBadRequest, "new password does not meet policy")
				return
			}
			if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrInvalidCredentials) {
				auditReq(deps.Audit, r, session.Username, "auth.change_password", "", "failed", session.ID, "invalid credentials or token")
				writeError(w, http.StatusUnauthorized, "invalid credentials or token")
				return
			}
			auditReq(deps.Audit, r, session.Username, "auth.change_password", "", "failed", session.ID, err.Error())
			writeError(w, http.StatusInternalServerError, "change password failed")
			return
		}
		auditReq(deps.Audit, r, session.Username, "auth.change_password", "", "success", session.ID, "")
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/api/admin/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if _, ok := requireSession(w, r, deps.Auth, "admin"); !ok {
			return
		}
		if deps.Projects == nil || deps.Contacts == nil {
			writeError(w, http.StatusServiceUnavailable, "content services unavailable")
			return
		}

		contactStats := deps.Contacts.Stats()
		writeJSON(w, http.StatusOK, map[string]int{
			"projects":          len(deps.Projects.List()),
			"featured_projects": len(deps.Projects.Featured()),
			"contacts":          contactStats.Total,
			"new_contacts":      contactStats.New,
		})
	})

	mux.HandleFunc("/api/admin/projects", func(w http.ResponseWriter, r *http.Request) {
		adminSession, ok := requireSession(w, r, deps.Auth, "admin")
		if !ok {
			return
		}
		if deps.Projects == nil {
			writeError(w, http.StatusServiceUnavailable, "project service unavailable")
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"items": deps.Projects.List()})
		case http.MethodPost:
			var req project.Project
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			created, err := deps.Projects.Create(req)
			if err != nil {
				if errors.Is(err, project.ErrInvalidInput) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "create project failed")
				return
			}
			auditReq(deps.Audit, r, adminSession.Username, "project.create", created.ID, "success", adminSession.ID, "")
			writeJSON(w, http.StatusCreated, created)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc("/api/admin/projects/", func(w http.ResponseWriter, r *http.Request) {
		adminSession, ok := requireSession(w, r, deps.Auth, "admin")
		if !ok {
			return
		}
		if deps.Projects == nil {
			writeError(w, http.StatusServiceUnavailable, "project service unavailable")
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/api/admin/projects/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			p, err := deps.Projects.Get(id)
			if err != nil {
				if errors.Is(err, project.ErrNotFound) {
					writeError(w, http.StatusNotFound, "project not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "get project failed")
				return
			}
			writeJSON(w, http.StatusOK, p)
		case http.MethodPut:
			var req project.Project
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			updated, err := deps.Projects.Update(id, req)
			if err != nil {
				if errors.Is(err, project.ErrInvalidInput) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				if errors.Is(err, project.ErrNotFound) {
					writeError(w, http.StatusNotFound, "project not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "update project failed")
				return
			}
			auditReq(deps.Audit, r, adminSession.Username, "project.update", updated.ID, "success", adminSession.ID, "")
			writeJSON(w, http.StatusOK, updated)
		case http.MethodDelete:
			err := deps.Projects.Delete(id)
			if err != nil {
				if errors.Is(err, project.ErrNotFound) {
					writeError(w, http.StatusNotFound, "project not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "delete project failed")
				return
			}
			auditReq(deps.Audit, r, adminSession.Username, "project.delete", id, "success", adminSession.ID, "")
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

func registerContactHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/api/contact", func(w http.ResponseWriter, r *http.Request) {
		if deps.Contacts == nil {
			writeError(w, http.StatusServiceUnavailable, "contact service unavailable")
			return
		}

		switch r.Method {
		case http.MethodPost:
			// Public contact-form submission; no session required.
			var req contact.Submission
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			created, err := deps.Contacts.Submit(req)
			if err != nil {
				if errors.Is(err, contact.ErrInvalidInput) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "submit contact failed")
				return
			}
			writeJSON(w, http.StatusCreated, created)
		case http.MethodGet:
			if _, ok := requireSession(w, r, deps.Auth, "admin"); !ok {
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": deps.Contacts.List()})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc("/api/contact/", func(w http.ResponseWriter, r *http.Request) {
		adminSession, ok := requireSession(w, r, deps.Auth, "admin")
		if !ok {
			return
		}
		if deps.Contacts == nil {
			writeError(w, http.StatusServiceUnavailable, "contact service unavailable")
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/api/contact/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusNotFound, "contact not found")
			return
		}
		if id == "stats" {
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, "method not allowed")
				return
			}
			writeJSON(w, http.StatusOK, deps.Contacts.Stats())
			return
		}

		switch r.Method {
		case http.MethodGet:
			c, err := deps.Contacts.Get(id)
			if err != nil {
				if errors.Is(err, contact.ErrNotFound) {
					writeError(w, http.StatusNotFound, "contact not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "get contact failed")
				return
			}
			writeJSON(w, http.StatusOK, c)
		case http.MethodPut:
			var req struct {
				Status string `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			updated, err := deps.Contacts.UpdateStatus(id, req.Status)
			if err != nil {
				if errors.Is(err, contact.ErrInvalidInput) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				if errors.Is(err, contact.ErrNotFound) {
					writeError(w, http.StatusNotFound, "contact not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "update contact failed")
				return
			}
			auditReq(deps.Audit, r, adminSession.Username, "contact.update_status", id, "success", adminSession.ID, req.Status)
			writeJSON(w, http.StatusOK, updated)
		case http.MethodDelete:
			err := deps.Contacts.Delete(id)
			if err != nil {
				if errors.Is(err, contact.ErrNotFound) {
					writeError(w, http.StatusNotFound, "contact not found")
					return
				}
				writeError(w, http.StatusInternalServerError, "delete contact failed")
				return
			}
			auditReq(deps.Audit, r, adminSession.Username, "contact.delete", id, "success", adminSession.ID, "")
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

func requireSession(w http.ResponseWriter, r *http.Request, authSvc AuthService, requiredRole string) (auth.Session, bool) {
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
		return auth.Session{}, false
	}
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
		return auth.Session{}, false
	}

	session, err := authSvc.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return auth.Session{}, false
	}

	if requiredRole != "" && !strings.EqualFold(strings.TrimSpace(session.Role), requiredRole) {
		writeError(w, http.StatusForbidden, "forbidden")
		return auth.Session{}, false
	}

	return session, true
}

func extractBearerToken(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func userPayload(u auth.User) map[string]any {
	payload := map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"role":     u.Role,
	}
	if u.Email != "" {
		payload["email"] = u.Email
	}
	return payload
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func corsMiddleware(allowedOrigins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = newRequestID()
		}
		w.Header().Set("X-Request-Id", reqID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
	})
}

type requestIDKey struct{}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func requestIDFromContext(ctx context.Context) string {
	v := ctx.Value(requestIDKey{})
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func auditReq(a AuditLogger, r *http.Request, actor, action, target, outcome, sessionID, detail string) {
	parts := []string{
		"rid=" + requestIDFromContext(r.Context()),
		"ip=" + clientIP(r),
		"ua=" + strings.TrimSpace(r.UserAgent()),
	}
	if sessionID != "" {
		parts = append(parts, "sid="+sessionID)
	}
	if strings.TrimSpace(detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(detail))
	}
	auditSafe(a, actor, action, target, outcome, strings.Join(parts, " | "))
}

func auditSafe(a AuditLogger, actor, action, target, outcome, detail string) {
	if a == nil {
		return
	}
	_ = a.Log(actor, action, target, outcome, detail)
}
