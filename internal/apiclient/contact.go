package apiclient

import (
	"context"
	"net/http"

	"portfoliosite/portfolio/internal/contact"
)

// ContactAPI covers the public submission endpoint and the privileged
// contact management operations.
type ContactAPI struct {
	c *Client
}

func (a *ContactAPI) Submit(ctx context.Context, s contact.Submission) (contact.Contact, error) {
	var created contact.Contact
	if err := a.c.do(ctx, http.MethodPost, "/contact", s, &created); err != nil {
		return contact.Contact{}, err
	}
	return created, nil
}

func (a *ContactAPI) List(ctx context.Context) ([]contact.Contact, error) {
	var resp struct {
		Items []contact.Contact `json:"items"`
	}
	if err := a.c.do(ctx, http.MethodGet, "/contact", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *ContactAPI) Get(ctx context.Context, id string) (contact.Contact, error) {
	var c contact.Contact
	if err := a.c.do(ctx, http.MethodGet, "/contact/"+id, nil, &c); err != nil {
		return contact.Contact{}, err
	}
	return c, nil
}

func (a *ContactAPI) UpdateStatus(ctx context.Context, id, status string) (contact.Contact, error) {
	req := struct {
		Status string `json:"status"`
	}{Status: status}

	var updated contact.Contact
	if err := a.c.do(ctx, http.MethodPut, "/contact/"+id, req, &updated); err != nil {
		return contact.Contact{}, err
	}
	return updated, nil
}

func (a *ContactAPI) Delete(ctx context.Context, id string) error {
	return a.c.do(ctx, http.MethodDelete, "/contact/"+id, nil, nil)
}

func (a *ContactAPI) Stats(ctx context.Context) (contact.Stats, error) {
	var stats contact.Stats
	if err := a.c.do(ctx, http.MethodGet, "/contact/stats", nil, &stats); err != nil {
		return contact.Stats{}, err
	}
	return stats, nil
}
