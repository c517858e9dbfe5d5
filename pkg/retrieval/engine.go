package retrieval

import (
	"context"
	"fmt"

	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/repository/contract"
)

// Engine maps a query embedding to a ranked candidate set. It is a read-only
// ranking query: nearest-neighbour candidates come from the catalog store,
// the engine enforces the distance threshold and the result cap.
type Engine struct {
	repo   contract.MenuItemRepository
	logger logger.ILogger
}

func NewEngine(repo contract.MenuItemRepository, log logger.ILogger) *Engine {
	return &Engine{
		repo:   repo,
		logger: log,
	}
}

// Search returns up to maxResults items ordered by ascending cosine distance,
// excluding excludeIds and anything farther than distanceThreshold. An empty
// result is valid: nothing on the menu matched well enough.
func (e *Engine) Search(
	ctx context.Context,
	queryEmbedding []float32,
	excludeIds []uint,
	maxResults int,
	distanceThreshold float64,
) ([]*entity.MenuItem, error) {
	if maxResults <= 0 {
		maxResults = 20
	}

	scored, err := e.repo.SearchNearest(ctx, queryEmbedding, excludeIds, maxResults)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	items := make([]*entity.MenuItem, 0, len(scored))
	for _, s := range scored {
		if s.Distance > distanceThreshold {
			// Candidates arrive distance-ascending, everything after is worse.
			break
		}
		e.logger.Info("Retrieval", "Menu match", map[string]interface{}{
			"item":       s.Item.Name,
			"similarity": 1 - s.Distance,
		})
		items = append(items, s.Item)
		if len(items) >= maxResults {
			break
		}
	}

	return items, nil
}
