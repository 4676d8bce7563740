package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/elonfeng/mediatracker/pkg/collection"
)

var absoluteLayouts = []string{
	collection.DateLayout,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"01/02/2006",
}

var relativePattern = regexp.MustCompile(`^(\d+|an?|one)\s+(second|minute|min|hour|day|week|month|year)s?\s+ago$`)

// NormalizeDate converts a provider date into YYYY-MM-DD. Providers return
// absolute dates in several layouts and relative ones like "3 days ago".
// Empty or unrecognised input yields now's date.
func NormalizeDate(raw string, now time.Time) string {
	today := now.Format(collection.DateLayout)
	s := strings.TrimSpace(raw)
	if s == "" {
		return today
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(collection.DateLayout)
		}
	}

	lower := strings.ToLower(s)
	switch lower {
	case "today", "just now":
		return today
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(collection.DateLayout)
	}

	m := relativePattern.FindStringSubmatch(lower)
	if m == nil {
		return today
	}
	n := 1
	if v, err := strconv.Atoi(m[1]); err == nil {
		n = v
	}

	var t time.Time
	switch m[2] {
	case "second":
		t = now.Add(-time.Duration(n) * time.Second)
	case "minute", "min":
		t = now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		t = now.Add(-time.Duration(n) * time.Hour)
	case "day":
		t = now.AddDate(0, 0, -n)
	case "week":
		t = now.AddDate(0, 0, -7*n)
	case "month":
		t = now.AddDate(0, -n, 0)
	case "year":
		t = now.AddDate(-n, 0, 0)
	}
	return t.Format(collection.DateLayout)
}
