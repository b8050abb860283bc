package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"portfoliosite/portfolio/internal/credentials"
	"portfoliosite/portfolio/internal/project"
)

// AdminAPI groups the privileged operations plus session login. Login is
// the only call that writes the credential store; everything else relies
// on the interceptor attaching the stored token.
type AdminAPI struct {
	c *Client
}

type DashboardStats struct {
	Projects         int `json:"projects"`
	FeaturedProjects int `json:"featured_projects"`
	Contacts         int `json:"contacts"`
	NewContacts      int `json:"new_contacts"`
}

// Login exchanges credentials for a token and profile and persists both.
// A credential rejection surfaces as ErrUnauthorized with no session
// established.
func (a *AdminAPI) Login(ctx context.Context, username, password string) (credentials.Profile, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var resp struct {
		Token string              `json:"token"`
		User  credentials.Profile `json:"user"`
	}
	if err := a.c.do(ctx, http.MethodPost, "/admin/login", req, &resp); err != nil {
		return credentials.Profile{}, err
	}
	if resp.Token == "" {
		return credentials.Profile{}, fmt.Errorf("login response missing token")
	}
	if err := a.c.creds.Save(resp.Token, resp.User); err != nil {
		return credentials.Profile{}, fmt.Errorf("persist session: %w", err)
	}
	return resp.User, nil
}

// Logout revokes the server session best-effort and always clears local
// state. A token the server already rejected still logs out locally.
func (a *AdminAPI) Logout(ctx context.Context) error {
	err := a.c.do(ctx, http.MethodPost, "/admin/logout", nil, nil)
	if clearErr := a.c.creds.Clear(); clearErr != nil {
		return clearErr
	}
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		return err
	}
	return nil
}

func (a *AdminAPI) CreateAdmin(ctx context.Context, username, password, email string) (credentials.Profile, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email,omitempty"`
	}{Username: username, Password: password, Email: email}

	var user credentials.Profile
	if err := a.c.do(ctx, http.MethodPost, "/admin/create", req, &user); err != nil {
		return credentials.Profile{}, err
	}
	return user, nil
}

func (a *AdminAPI) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	if err := a.c.do(ctx, http.MethodGet, "/admin/dashboard/stats", nil, &stats); err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}

func (a *AdminAPI) ListProjects(ctx context.Context) ([]project.Project, error) {
	var resp struct {
		Items []project.Project `json:"items"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/admin/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *AdminAPI) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	var created project.Project
	if err := a.c.do(ctx, http.MethodPost, "/admin/projects", p, &created); err != nil {
		return project.Project{}, err
	}
	return created, nil
}

func (a *AdminAPI) UpdateProject(ctx context.Context, id string, p project.Project) (project.Project, error) {
	var updated project.Project
	if err := a.c.do(ctx, http.MethodPut, "/admin/projects/"+id, p, &updated); err != nil {
		return project.Project{}, err
	}
	return updated, nil
}

func (a *AdminAPI) DeleteProject(ctx context.Context, id string) error {
	return a.c.do(ctx, http.MethodDelete, "/admin/projects/"+id, nil, nil)
}
