package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultAPIPath = "/search"

// APISearcher queries a generic HTTP search endpoint:
//
//	GET <base><path>?q=<query>&limit=<n>  ->  {"hits":[{"id":"...","score":1.2}]}
type APISearcher struct {
	name    string
	baseURL string
	path    string
	client  *http.Client
}

func NewAPISearcher(name, baseURL, path string) *APISearcher {
	if path == "" {
		path = DefaultAPIPath
	}
	return &APISearcher{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        256,
				MaxIdleConnsPerHost: 256,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type apiSearchResponse struct {
	Hits []apiSearchHit `json:"hits"`
}

type apiSearchHit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

func (e *APISearcher) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	reqURL := e.baseURL + e.path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("api create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp apiSearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("api parse response: %w", err)
	}

	hits := make([]Hit, 0, len(searchResp.Hits))
	for _, h := range searchResp.Hits {
		hits = append(hits, Hit{DocID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func (e *APISearcher) Name() string { return e.name }

func (e *APISearcher) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

var _ Searcher = (*APISearcher)(nil)
