package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TeiScorer talks to a self-hosted text-embeddings-inference /rerank endpoint
// running a cross-encoder model. Raw logits come back, so the score floor is
// on the logit scale (e.g. -8.0 for ms-marco models).
type TeiScorer struct {
	baseURL string
	client  *http.Client
}

func NewTeiScorer(baseURL string) *TeiScorer {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &TeiScorer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type teiRerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type teiRerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (s *TeiScorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	reqBody := teiRerankRequest{
		Query:     query,
		Texts:     documents,
		RawScores: true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rerank", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tei rerank error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var results []teiRerankResult
	if err := json.Unmarshal(bodyBytes, &results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	scores := make([]float64, len(documents))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, fmt.Errorf("tei rerank returned out-of-range index %d", res.Index)
		}
		scores[res.Index] = res.Score
	}
	return scores, nil
}
