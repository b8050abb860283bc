package apiclient

import (
	"context"
	"net/http"

	"portfoliosite/portfolio/internal/project"
)

// PortfolioAPI reads public portfolio content. No token is required, but
// requests still pass through the shared interceptor pair.
type PortfolioAPI struct {
	c *Client
}

func (a *PortfolioAPI) ListProjects(ctx context.Context) ([]project.Project, error) {
	var resp struct {
		Items []project.Project `json:"items"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/portfolio/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *PortfolioAPI) FeaturedProjects(ctx context.Context) ([]project.Project, error) {
	var resp struct {
		Items []project.Project `json:"items"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/portfolio/projects/featured", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *PortfolioAPI) GetProject(ctx context.Context, id string) (project.Project, error) {
	var p project.Project
	if err := a.c.do(ctx, http.MethodGet, "/portfolio/projects/"+id, nil, &p); err != nil {
		return project.Project{}, err
	}
	return p, nil
}
