package project

import "time"

// Project is one portfolio entry. Category and Status are constrained to
// the fixed sets in validate.
type Project struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"`
	Image            string    `json:"image,omitempty"`
	Technologies     []string  `json:"technologies"`
	GithubURL        string    `json:"github_url,omitempty"`
	LiveURL          string    `json:"live_url,omitempty"`
	Category         string    `json:"category"`
	Featured         bool      `json:"featured"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (p Project) Clone() Project {
	p.Technologies = append([]string(nil), p.Technologies...)
	return p
}
