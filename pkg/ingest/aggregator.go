package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/elonfeng/mediatracker/pkg/collection"
	"github.com/elonfeng/mediatracker/pkg/search"
)

// Candidate is a search hit that passed deduplication and the subject
// filter but has not been persisted yet.
type Candidate struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source"`
	Date    string `json:"date"`
	Query   string `json:"query"`
}

// Hit records how one search result was judged.
type Hit struct {
	Query    string
	URL      string
	Title    string
	Source   string
	Accepted bool
}

// Aggregator runs a fixed list of queries against a Searcher and keeps the
// results that are new and mention the subject.
type Aggregator struct {
	searcher search.Searcher
	surname  string
	num      int
	recency  string

	// Now supplies the date for results without one. Defaults to time.Now.
	Now func() time.Time
	// Observe, when set, is called for every result the aggregator sees.
	Observe func(Hit)
	// Log receives per-query diagnostics. Defaults to os.Stderr.
	Log io.Writer
}

// NewAggregator creates an aggregator matching results on surname.
func NewAggregator(s search.Searcher, surname string, num int, recency string) *Aggregator {
	if num <= 0 {
		num = 10
	}
	if recency == "" {
		recency = search.DefaultRecency
	}
	return &Aggregator{
		searcher: s,
		surname:  strings.ToLower(strings.TrimSpace(surname)),
		num:      num,
		recency:  recency,
	}
}

// Collect runs queries in order and returns accepted candidates in
// first-seen order. Every accepted URL is added to known before the next
// result is examined. A failing query is logged and contributes nothing.
func (a *Aggregator) Collect(ctx context.Context, queries []string, known collection.URLSet) []Candidate {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	log := a.Log
	if log == nil {
		log = os.Stderr
	}

	var candidates []Candidate
	for _, q := range queries {
		results, err := a.searcher.Search(ctx, search.Query{Text: q, Num: a.num, Recency: a.recency})
		if err != nil {
			fmt.Fprintf(log, "search error for %q: %v\n", q, err)
			continue
		}

		accepted := 0
		for _, r := range results {
			ok := r.Link != "" && !known.Has(r.Link) && a.mentionsSubject(r)
			if a.Observe != nil {
				a.Observe(Hit{Query: q, URL: r.Link, Title: r.Title, Source: r.Source, Accepted: ok})
			}
			if !ok {
				continue
			}

			candidates = append(candidates, Candidate{
				Title:   r.Title,
				URL:     r.Link,
				Snippet: r.Snippet,
				Source:  r.Source,
				Date:    NormalizeDate(r.Date, now()),
				Query:   q,
			})
			known.Add(r.Link)
			accepted++
		}
		fmt.Fprintf(log, "  %q: %d results, %d new\n", q, len(results), accepted)
	}
	return candidates
}

// mentionsSubject never matches when no surname is configured.
func (a *Aggregator) mentionsSubject(r search.Result) bool {
	if a.surname == "" {
		return false
	}
	return strings.Contains(strings.ToLower(r.Title), a.surname) ||
		strings.Contains(strings.ToLower(r.Snippet), a.surname)
}
