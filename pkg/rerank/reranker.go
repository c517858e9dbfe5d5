package rerank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"voice-ordering-be/internal/entity"
	"voice-ordering-be/internal/pkg/logger"
)

// Scorer rates how relevant each document is to the query, cross-encoder
// style. Scores come back in document order.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Reranker refines a retrieved candidate list: score, sort descending, and
// drop anything under the score floor.
type Reranker struct {
	scorer Scorer
	floor  float64
	logger logger.ILogger
}

func NewReranker(scorer Scorer, floor float64, log logger.ILogger) *Reranker {
	return &Reranker{
		scorer: scorer,
		floor:  floor,
		logger: log,
	}
}

// DocumentText is the textual form items are scored against.
func DocumentText(item *entity.MenuItem) string {
	tags := strings.Join(item.Tags, ", ")
	return fmt.Sprintf("%s: %s (%s)", item.Name, item.Description, tags)
}

// Rerank scores (query, item) pairs and returns the surviving items ordered
// by descending score. Ties keep input order (stable sort). An empty input
// yields an empty output, not an error.
func (r *Reranker) Rerank(ctx context.Context, query string, items []*entity.MenuItem) ([]*entity.MenuItem, error) {
	if len(items) == 0 {
		return []*entity.MenuItem{}, nil
	}

	documents := make([]string, len(items))
	for i, item := range items {
		documents[i] = DocumentText(item)
	}

	scores, err := r.scorer.Score(ctx, query, documents)
	if err != nil {
		return nil, fmt.Errorf("rerank scoring failed: %w", err)
	}
	if len(scores) != len(items) {
		return nil, fmt.Errorf("scorer returned %d scores for %d items", len(scores), len(items))
	}

	type scored struct {
		item  *entity.MenuItem
		score float64
	}
	ranked := make([]scored, len(items))
	for i, item := range items {
		ranked[i] = scored{item: item, score: scores[i]}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	kept := make([]*entity.MenuItem, 0, len(ranked))
	for _, s := range ranked {
		r.logger.Debug("Reranker", "Scored item", map[string]interface{}{
			"item":  s.item.Name,
			"score": s.score,
		})
		if s.score >= r.floor {
			kept = append(kept, s.item)
		}
	}

	r.logger.Info("Reranker", "Rerank complete", map[string]interface{}{
		"query": query,
		"kept":  len(kept),
		"total": len(items),
		"floor": r.floor,
	})

	return kept, nil
}
