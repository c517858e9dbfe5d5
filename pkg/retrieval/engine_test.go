package retrieval

import (
	"context"
	"errors"
	"testing"

	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/repository/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog implements only SearchNearest; the engine touches nothing else.
type fakeCatalog struct {
	contract.MenuItemRepository
	scored []*contract.ScoredMenuItem
	err    error

	gotExclude []uint
	gotLimit   int
}

func (f *fakeCatalog) SearchNearest(ctx context.Context, embedding []float32, excludeIds []uint, limit int) ([]*contract.ScoredMenuItem, error) {
	f.gotExclude = excludeIds
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.scored, nil
}

func scoredItems(distances ...float64) []*contract.ScoredMenuItem {
	out := make([]*contract.ScoredMenuItem, len(distances))
	for i, d := range distances {
		out[i] = &contract.ScoredMenuItem{
			Item:     &entity.MenuItem{Id: uint(i + 1)},
			Distance: d,
		}
	}
	return out
}

func TestSearchAppliesDistanceThreshold(t *testing.T) {
	catalog := &fakeCatalog{scored: scoredItems(0.1, 0.5, 0.9)}
	engine := NewEngine(catalog, logger.NewNopLogger())

	items, err := engine.Search(context.Background(), []float32{1, 0}, nil, 5, 0.8)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, uint(1), items[0].Id)
	assert.Equal(t, uint(2), items[1].Id)
}

func TestSearchCapsResults(t *testing.T) {
	catalog := &fakeCatalog{scored: scoredItems(0.1, 0.2, 0.3)}
	engine := NewEngine(catalog, logger.NewNopLogger())

	items, err := engine.Search(context.Background(), []float32{1, 0}, nil, 2, 0.8)

	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSearchPassesExclusions(t *testing.T) {
	catalog := &fakeCatalog{scored: scoredItems()}
	engine := NewEngine(catalog, logger.NewNopLogger())

	items, err := engine.Search(context.Background(), []float32{1, 0}, []uint{4, 7}, 5, 0.8)

	require.NoError(t, err)
	assert.Empty(t, items) // empty result is not an error
	assert.Equal(t, []uint{4, 7}, catalog.gotExclude)
}

func TestSearchPropagatesStoreFailure(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("connection refused")}
	engine := NewEngine(catalog, logger.NewNopLogger())

	_, err := engine.Search(context.Background(), []float32{1, 0}, nil, 5, 0.8)

	assert.Error(t, err)
}
