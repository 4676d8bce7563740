package ingest

import (
	"strings"

	"github.com/elonfeng/mediatracker/pkg/collection"
)

// Glyphs shown next to each record in the timeline.
const (
	GlyphBroadcast = "📺"
	GlyphRadio     = "📻"
	GlyphPrint     = "📰"
)

type mediaRule struct {
	keyword string
	glyph   string
	kind    string
}

// mediaRules are checked in order against the lowercased outlet name; the
// first match wins and anything else is print.
var mediaRules = []mediaRule{
	{keyword: "tv", glyph: GlyphBroadcast, kind: "TV"},
	{keyword: "radio", glyph: GlyphRadio, kind: "Radio"},
}

// MediaKind derives the glyph and media type from an outlet label.
func MediaKind(outlet string) (glyph, kind string) {
	lower := strings.ToLower(outlet)
	for _, r := range mediaRules {
		if strings.Contains(lower, r.keyword) {
			return r.glyph, r.kind
		}
	}
	return GlyphPrint, "Print"
}

// BuildRecords turns candidates into provisional records numbered from
// maxID+1 in candidate order.
func BuildRecords(candidates []Candidate, maxID int) []collection.Record {
	records := make([]collection.Record, 0, len(candidates))
	for i, c := range candidates {
		glyph, kind := MediaKind(c.Source)
		records = append(records, collection.Record{
			ID:          maxID + i + 1,
			Date:        c.Date,
			Outlet:      c.Source,
			Type:        kind,
			Topic:       collection.ReviewTopic,
			Quote:       collection.PlaceholderQuote,
			Icon:        glyph,
			URL:         c.URL,
			NeedsReview: true,
		})
	}
	return records
}
