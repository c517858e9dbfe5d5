package contract

import (
	"context"

	"voice-ordering-be/internal/entity"
)

// ScoredMenuItem pairs a catalog item with its cosine distance to a query
// embedding (smaller is more similar).
type ScoredMenuItem struct {
	Item     *entity.MenuItem
	Distance float64
}

type MenuItemRepository interface {
	FindAll(ctx context.Context) ([]*entity.MenuItem, error)
	FindByCategory(ctx context.Context, category string) ([]*entity.MenuItem, error)
	Categories(ctx context.Context) ([]string, error)

	FindByIds(ctx context.Context, ids []uint) ([]*entity.MenuItem, error)
	FindNamesByIds(ctx context.Context, ids []uint) ([]string, error)

	// FindIdsByNames matches names case-insensitively against the catalog.
	FindIdsByNames(ctx context.Context, names []string) ([]uint, error)

	// FindIdsByNamesInSet is FindIdsByNames restricted to candidateIds.
	FindIdsByNamesInSet(ctx context.Context, names []string, candidateIds []uint) ([]uint, error)

	// SearchNearest returns up to limit items ordered by ascending cosine
	// distance to the query embedding, excluding excludeIds. Items without an
	// embedding are never returned.
	SearchNearest(ctx context.Context, embedding []float32, excludeIds []uint, limit int) ([]*ScoredMenuItem, error)

	Save(ctx context.Context, item *entity.MenuItem) error
	UpdateEmbedding(ctx context.Context, id uint, embedding []float32) error
	FindIdsMissingEmbedding(ctx context.Context) ([]uint, error)
}
