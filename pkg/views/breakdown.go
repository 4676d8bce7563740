package views

import (
	"sort"
	"time"

	"github.com/elonfeng/mediatracker/pkg/collection"
)

// Bucket is one bar or chip in a grouped breakdown.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// Breakdown groups records by the canonical form of key(record) and returns
// buckets ordered by descending count. Ties keep first-appearance order.
// Colours are assigned from palette cyclically in that order.
func Breakdown(records []collection.Record, key func(collection.Record) string, rules []Rule, fallback string, palette []string) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, r := range records {
		label := Canonicalize(rules, key(r), fallback)
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, Bucket{Label: label})
		}
		buckets[i].Count++
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
	if len(palette) > 0 {
		for i := range buckets {
			buckets[i].Color = palette[i%len(palette)]
		}
	}
	return buckets
}

// ByOutlet breaks records down by canonical outlet name.
func ByOutlet(records []collection.Record, rules []Rule) []Bucket {
	return Breakdown(records, func(r collection.Record) string { return r.Outlet }, rules, "", OutletPalette)
}

// ByTopic breaks records down into the topic taxonomy.
func ByTopic(records []collection.Record, rules []Rule) []Bucket {
	return Breakdown(records, func(r collection.Record) string { return r.Topic }, rules, DefaultTopic, TopicPalette)
}

// Point is one step of the cumulative appearances series.
type Point struct {
	Date        string `json:"date"`
	Appearances int    `json:"appearances"`
}

// ChartDateLayout is the short month-day label used on the time axis.
const ChartDateLayout = "Jan 2"

// Cumulative returns the running total of records by date. Records sharing
// a label collapse into one point carrying the total as of the last of them.
func Cumulative(records []collection.Record) []Point {
	type dated struct {
		t     time.Time
		label string
	}
	sorted := make([]dated, 0, len(records))
	for _, r := range records {
		t, err := time.Parse(collection.DateLayout, r.Date)
		label := r.Date
		if err == nil {
			label = t.Format(ChartDateLayout)
		}
		sorted = append(sorted, dated{t: t, label: label})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].t.Before(sorted[j].t)
	})

	index := make(map[string]int)
	var points []Point
	for n, d := range sorted {
		i, ok := index[d.label]
		if !ok {
			i = len(points)
			index[d.label] = i
			points = append(points, Point{Date: d.label})
		}
		points[i].Appearances = n + 1
	}
	return points
}
