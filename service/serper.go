package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const serperEndpoint = "https://google.serper.dev/search"

// SerperClient implements SearchClient against the Serper.dev Google
// search API
type SerperClient struct {
	apiKey     string
	httpClient *http.Client
}

// NewSerperClient creates a Serper search client
func NewSerperClient(apiKey string) *SerperClient {
	return &SerperClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []SearchResult `json:"organic"`
	News    []SearchResult `json:"news"`
}

// Search runs one query and merges organic and news results
func (s *SerperClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("serper API key not configured")
	}

	reqBody := serperRequest{Q: query, Num: 10}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", serperEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(body))
	}

	var searchResp serperResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := append(searchResp.Organic, searchResp.News...)
	log.Printf("[SEARCH] %q returned %d results", query, len(results))

	return results, nil
}
