package rerank

import (
	"context"
	"errors"
	"testing"

	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	scores []float64
	err    error
}

func (s *stubScorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

func items(names ...string) []*entity.MenuItem {
	out := make([]*entity.MenuItem, len(names))
	for i, n := range names {
		out[i] = &entity.MenuItem{Id: uint(i + 1), Name: n}
	}
	return out
}

func names(items []*entity.MenuItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func TestRerankSortsAndFilters(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{-10, -5, 2}}, -8.0, logger.NewNopLogger())

	got, err := r.Rerank(context.Background(), "burger", items("A", "B", "C"))

	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, names(got))
}

func TestRerankStableTies(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{1, 1, 1}}, 0, logger.NewNopLogger())

	got, err := r.Rerank(context.Background(), "q", items("A", "B", "C"))

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, names(got))
}

func TestRerankEmptyInput(t *testing.T) {
	r := NewReranker(&stubScorer{}, -8.0, logger.NewNopLogger())

	got, err := r.Rerank(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRerankScorerFailure(t *testing.T) {
	r := NewReranker(&stubScorer{err: errors.New("boom")}, -8.0, logger.NewNopLogger())

	_, err := r.Rerank(context.Background(), "q", items("A"))

	assert.Error(t, err)
}

func TestRerankScoreCountMismatch(t *testing.T) {
	r := NewReranker(&stubScorer{scores: []float64{1}}, -8.0, logger.NewNopLogger())

	_, err := r.Rerank(context.Background(), "q", items("A", "B"))

	assert.Error(t, err)
}

func TestDocumentText(t *testing.T) {
	item := &entity.MenuItem{
		Name:        "Big Mac",
		Description: "Two beef patties",
		Tags:        []string{"beef", "classic"},
	}
	assert.Equal(t, "Big Mac: Two beef patties (beef, classic)", DocumentText(item))
}
