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

// JinaScorer calls the hosted Jina rerank API.
type JinaScorer struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewJinaScorer(apiKey string) *JinaScorer {
	return &JinaScorer{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/rerank",
		model:   "jina-reranker-v2-base-multilingual",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type jinaRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type jinaRerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *JinaScorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	reqBody := jinaRerankRequest{
		Model:     s.model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents), // we want every pair scored; filtering is ours
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina rerank error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var jinaResp jinaRerankResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina rerank returned error: %s", jinaResp.Error.Message)
	}

	scores := make([]float64, len(documents))
	for _, res := range jinaResp.Results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, fmt.Errorf("jina rerank returned out-of-range index %d", res.Index)
		}
		scores[res.Index] = res.RelevanceScore
	}
	return scores, nil
}
