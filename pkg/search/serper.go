package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const serperNewsURL = "https://google.serper.dev/news"

// Serper queries the Serper Google News endpoint.
type Serper struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewSerper creates a Serper searcher. An empty baseURL uses the public
// endpoint.
func NewSerper(apiKey, baseURL string) *Serper {
	if baseURL == "" {
		baseURL = serperNewsURL
	}
	return &Serper{
		client:  &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (s *Serper) Name() Provider { return ProviderSerper }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
	TBS string `json:"tbs,omitempty"`
}

type serperResponse struct {
	News []Result `json:"news"`
}

func (s *Serper) Search(ctx context.Context, q Query) ([]Result, error) {
	body, err := json.Marshal(serperRequest{Q: q.Text, Num: q.Num, TBS: q.Recency})
	if err != nil {
		return nil, fmt.Errorf("marshal serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search serper %q: %w", q.Text, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("serper status %d", resp.StatusCode)
	}

	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}
	return out.News, nil
}
