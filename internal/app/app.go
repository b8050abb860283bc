package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	"portfoliosite/portfolio/internal/audit"
	"portfoliosite/portfolio/internal/auth"
	"portfoliosite/portfolio/internal/config"
	"portfoliosite/portfolio/internal/contact"
	"portfoliosite/portfolio/internal/httpserver"
	"portfoliosite/portfolio/internal/observability"
	"portfoliosite/portfolio/internal/project"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *sql.DB
	server *httpserver.Server
}

func New(cfg config.Config) (*App, error) {
	logger := observability.NewLogger()

	var err error
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
	}

	var userStore auth.UserStore
	var sessionStore auth.SessionStore
	if db != nil {
		userStore, err = auth.NewPostgresUserStore(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres user store: %w", err)
		}
		sessionStore, err = auth.NewPostgresSessionStore(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres session store: %w", err)
		}
	} else {
		userStore, err = auth.NewFileUserStore(cfg.Auth.UserStateFile)
		if err != nil {
			return nil, fmt.Errorf("create user store: %w", err)
		}
	}
	authService, err := auth.NewService(userStore, auth.ServiceConfig{
		PasswordPepper:   cfg.Auth.PasswordPepper,
		JWTSecret:        cfg.Auth.JWTSecret,
		SessionTTL:       cfg.Auth.SessionTTL,
		SessionStateFile: cfg.Auth.SessionStateFile,
		SessionStore:     sessionStore,
	})
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	if err := authService.LoadSessionState(); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("load auth session state: %w", err)
	}

	if _, err := userStore.GetByUsername(cfg.Auth.BootstrapUsername); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			if err := userStore.Put(auth.User{
				ID:           "bootstrap-admin",
				Username:     cfg.Auth.BootstrapUsername,
				PasswordHash: authService.HashPassword(cfg.Auth.BootstrapPassword),
				Role:         "admin",
			}); err != nil {
				if db != nil {
					_ = db.Close()
				}
				return nil, fmt.Errorf("create bootstrap user: %w", err)
			}
			logger.Info("bootstrap admin user created", "username", cfg.Auth.BootstrapUsername)
		} else {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("check bootstrap user: %w", err)
		}
	}

	var projectService httpserver.ProjectService
	if db != nil {
		projectService, err = project.NewPGService(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres project service: %w", err)
		}
	} else {
		projectService, err = project.NewServiceWithFile(cfg.ProjectStateFile)
		if err != nil {
			return nil, fmt.Errorf("create project service: %w", err)
		}
	}

	var contactService httpserver.ContactService
	if db != nil {
		contactService, err = contact.NewPGService(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create postgres contact service: %w", err)
		}
	} else {
		contactService, err = contact.NewServiceWithFile(cfg.ContactStateFile)
		if err != nil {
			return nil, fmt.Errorf("create contact service: %w", err)
		}
	}
	auditLogger := audit.NewLogger(cfg.AuditLogFile)

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:           authService,
		Projects:       projectService,
		Contacts:       contactService,
		Audit:          auditLogger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		db:     db,
		server: server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
