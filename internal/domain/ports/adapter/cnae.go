package adapter

import "leadpilot/internal/domain/model"

// CNAEDirectory is the hex port for the industry-code search collaborator.
type CNAEDirectory interface {
	// Search returns entries whose code or description matches the term.
	// An empty term returns the directory's default listing.
	Search(term string) []model.CNAE
}
