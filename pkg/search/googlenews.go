package search

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const googleNewsURL = "https://news.google.com/rss/search"

// GoogleNews searches the public Google News RSS feed. It needs no API key.
type GoogleNews struct {
	client  *http.Client
	parser  *gofeed.Parser
	baseURL string
	lang    string
}

// NewGoogleNews creates a Google News RSS searcher. An empty baseURL uses
// the public endpoint.
func NewGoogleNews(baseURL string) *GoogleNews {
	if baseURL == "" {
		baseURL = googleNewsURL
	}
	return &GoogleNews{
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		baseURL: baseURL,
		lang:    "en-US",
	}
}

func (g *GoogleNews) Name() Provider { return ProviderGoogleNews }

func (g *GoogleNews) Search(ctx context.Context, q Query) ([]Result, error) {
	text := q.Text
	if when := recencyToWhen(q.Recency); when != "" {
		text += " when:" + when
	}
	params := url.Values{}
	params.Set("q", text)
	params.Set("hl", g.lang)
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create google news request: %w", err)
	}
	req.Header.Set("User-Agent", "mediatracker/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search google news %q: %w", q.Text, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google news status %d", resp.StatusCode)
	}

	feed, err := g.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse google news feed: %w", err)
	}

	var results []Result
	for _, entry := range feed.Items {
		if q.Num > 0 && len(results) >= q.Num {
			break
		}

		title, outlet := splitOutlet(entry.Title)
		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		r := Result{
			Title:   title,
			Link:    link,
			Snippet: stripTags(entry.Description),
			Source:  outlet,
		}
		if entry.PublishedParsed != nil {
			r.Date = entry.PublishedParsed.UTC().Format("2006-01-02")
		}
		results = append(results, r)
	}
	return results, nil
}

// recencyToWhen maps Serper-style tbs values onto Google News "when:" terms.
func recencyToWhen(recency string) string {
	switch recency {
	case "qdr:h":
		return "1h"
	case "qdr:d":
		return "1d"
	case "qdr:w":
		return "7d"
	case "qdr:m":
		return "30d"
	case "qdr:y":
		return "1y"
	}
	return ""
}

// splitOutlet separates Google News' "Headline - Outlet" title convention.
func splitOutlet(title string) (string, string) {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
