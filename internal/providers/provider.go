package providers

import "context"

// Candidate is one match returned by a metadata service.
type Candidate struct {
	Title       string
	Author      string
	Year        int
	ISBN        string
	ASIN        string
	Description string
	CoverURL    string
	Source      string
}

// Provider searches an external metadata service.
type Provider interface {
	Name() string
	Search(ctx context.Context, title, author string) ([]Candidate, error)
}
