package usecase

import (
	"context"

	"leadpilot/internal/domain/model"
	"leadpilot/internal/domain/ports/adapter"
)

// CNAEUseCase wraps the industry-code directory collaborator.
type CNAEUseCase interface {
	Search(ctx context.Context, term string) []model.CNAE
}

var _ CNAEUseCase = (*cnaeUC)(nil)

type cnaeUC struct {
	dir adapter.CNAEDirectory
}

func NewCNAEUseCase(dir adapter.CNAEDirectory) CNAEUseCase {
	return &cnaeUC{dir: dir}
}

func (c *cnaeUC) Search(_ context.Context, term string) []model.CNAE {
	return c.dir.Search(term)
}
