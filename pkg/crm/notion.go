package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	notionBaseURL = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"

	// DefaultTag selects distribution-list members in the CRM database.
	DefaultTag = "PL members"
)

// Notion reads mailing-list members from a Notion database whose pages carry
// a multi-select "Tags" property and an "Email" property.
type Notion struct {
	client     *http.Client
	apiKey     string
	databaseID string
	tag        string
	baseURL    string
}

// NewNotion creates a Notion mailing-list reader. An empty baseURL uses the
// public API.
func NewNotion(apiKey, databaseID, tag, baseURL string) *Notion {
	if tag == "" {
		tag = DefaultTag
	}
	if baseURL == "" {
		baseURL = notionBaseURL
	}
	return &Notion{
		client:     &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		databaseID: databaseID,
		tag:        tag,
		baseURL:    baseURL,
	}
}

// Configured reports whether both credentials are present.
func (n *Notion) Configured() bool {
	return n.apiKey != "" && n.databaseID != ""
}

type notionQuery struct {
	Filter      notionFilter `json:"filter"`
	StartCursor string       `json:"start_cursor,omitempty"`
	PageSize    int          `json:"page_size,omitempty"`
}

type notionFilter struct {
	Property    string            `json:"property"`
	MultiSelect map[string]string `json:"multi_select"`
}

type notionPage struct {
	Properties struct {
		Email struct {
			Email *string `json:"email"`
		} `json:"Email"`
	} `json:"properties"`
}

type notionResponse struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

// Members returns the e-mail addresses of every page tagged for the
// distribution list. Without credentials it returns an empty list.
func (n *Notion) Members(ctx context.Context) ([]string, error) {
	if !n.Configured() {
		return nil, nil
	}

	var emails []string
	cursor := ""
	for {
		resp, err := n.query(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for _, page := range resp.Results {
			if e := page.Properties.Email.Email; e != nil && *e != "" {
				emails = append(emails, *e)
			}
		}
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = *resp.NextCursor
	}
	return emails, nil
}

func (n *Notion) query(ctx context.Context, cursor string) (*notionResponse, error) {
	body, err := json.Marshal(notionQuery{
		Filter: notionFilter{
			Property:    "Tags",
			MultiSelect: map[string]string{"contains": n.tag},
		},
		StartCursor: cursor,
		PageSize:    100,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal notion query: %w", err)
	}

	url := fmt.Sprintf("%s/databases/%s/query", n.baseURL, n.databaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query notion database %s: %w", n.databaseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("notion status %d", resp.StatusCode)
	}

	var out notionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode notion response: %w", err)
	}
	return &out, nil
}
