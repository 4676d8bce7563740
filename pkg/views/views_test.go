package views

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/mediatracker/pkg/collection"
)

func TestCumulative(t *testing.T) {
	records := []collection.Record{
		{ID: 3, Date: "2025-01-03"},
		{ID: 1, Date: "2025-01-01"},
		{ID: 2, Date: "2025-01-01"},
	}

	assert.Equal(t, []Point{
		{Date: "Jan 1", Appearances: 2},
		{Date: "Jan 3", Appearances: 3},
	}, Cumulative(records))

	assert.Empty(t, Cumulative(nil))
}

func TestCanonicalizeTopicPrecedence(t *testing.T) {
	tests := map[string]string{
		"AI Summit Appointment":   "Appointment",
		"AI Safety Tour":          "Listening Tour",
		"First Day in Office":     "Listening Tour",
		"AI in classrooms":        "AI & Innovation",
		"School Safety and AI":    "AI & Innovation",
		"School Safety Grants":    "School Safety",
		"Dual credit expansion":   "Education Options",
		"School Choice Options":   "Education Options",
		"Budget hearing":          "Education Policy",
		collection.ReviewTopic:    "Education Policy",
		"repairs and maintenance": "Education Policy",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Canonicalize(DefaultTopicRules, in, DefaultTopic))
		})
	}
}

func TestCanonicalizePassThrough(t *testing.T) {
	assert.Equal(t, "KFYR", Canonicalize(DefaultOutletRules, "KFYR", ""))
	assert.Equal(t, "BEK TV", Canonicalize(DefaultOutletRules, "BEK Sports", ""))
	assert.Equal(t, "x", Canonicalize(nil, "x", ""))
}

func TestByOutlet(t *testing.T) {
	records := []collection.Record{
		{Outlet: "KFYR"},
		{Outlet: "Bismarck Tribune"},
		{Outlet: "Inforum - Fargo"},
		{Outlet: "The Tribune weekly"},
		{Outlet: "Inforum"},
	}

	got := ByOutlet(records, DefaultOutletRules)

	assert.Equal(t, []Bucket{
		{Label: "Bismarck Tribune", Count: 2, Color: OutletPalette[0]},
		{Label: "Inforum", Count: 2, Color: OutletPalette[1]},
		{Label: "KFYR", Count: 1, Color: OutletPalette[2]},
	}, got)
}

func TestByTopicCyclesPalette(t *testing.T) {
	var records []collection.Record
	topics := []string{"Appointment", "Tour", "AI", "Safety", "Dual", "Budget"}
	for i, topic := range topics {
		for n := 0; n < len(topics)-i; n++ {
			records = append(records, collection.Record{Topic: topic})
		}
	}
	records = append(records, collection.Record{Topic: "Other"})

	got := ByTopic(records, DefaultTopicRules)
	require.Len(t, got, 6)
	assert.Equal(t, "Appointment", got[0].Label)
	assert.Equal(t, 6, got[0].Count)
	assert.Equal(t, "Education Policy", got[5].Label)
	assert.Equal(t, 2, got[5].Count)
	for i, b := range got {
		assert.Equal(t, TopicPalette[i%len(TopicPalette)], b.Color)
	}

	custom := []Rule{{Match: []string{"Budget"}, Label: "Finance"}}
	got = ByTopic([]collection.Record{{Topic: "Budget"}, {Topic: "Budget"}, {Topic: "Other"}}, custom)
	assert.Equal(t, "Finance", got[0].Label)
	assert.Equal(t, DefaultTopic, got[1].Label)
}

func TestSummarize(t *testing.T) {
	c := &collection.Collection{
		Appearances: []collection.Record{
			{ID: 1, NeedsReview: true}, {ID: 2}, {ID: 3},
		},
		LastUpdated:     "2025-01-14",
		OfficeStartDate: "2025-01-01",
	}

	s := Summarize(c, time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 15, s.DaysInOffice)
	assert.Equal(t, 3, s.Appearances)
	assert.Equal(t, 1, s.NeedsReview)
	assert.InDelta(t, 1.4, s.PerWeek, 0.001)

	s = Summarize(c, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, s.DaysInOffice)
	assert.InDelta(t, 3.0, s.PerWeek, 0.001, "rate never divides by less than a week")

	s = Summarize(&collection.Collection{}, time.Now())
	assert.Zero(t, s.DaysInOffice)
	assert.Zero(t, s.PerWeek)
}

func TestProject(t *testing.T) {
	x, y := Project(49.0, -104.1)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)

	x, y = Project(45.9, -96.5)
	assert.InDelta(t, 590, x, 1e-9)
	assert.InDelta(t, 290, y, 1e-9)
}

const tourDoc = `{
  "totalDistricts": 167,
  "visits": [
    {"district": "Minot", "date": "2025-12-01", "students": 7000, "lat": 48.23, "lng": -101.29},
    {"district": "Fargo", "date": "2025-12-02", "students": 11000, "lat": 46.88, "lng": -96.79},
    {"district": "Bismarck", "date": "2025-12-03", "students": 13000, "lat": 46.81, "lng": -100.78},
    {"district": "Williston", "date": "2025-12-04", "students": 5000, "lat": 48.15, "lng": -103.62},
    {"district": "Dickinson", "date": "2025-12-05", "students": 4000, "note": "STEM lab", "lat": 46.88, "lng": -102.79}
  ],
  "upcoming": [{"district": "Jamestown", "scheduledDate": "2025-12-10", "students": 2300}],
  "allDistricts": [
    {"name": "Minot", "lat": 48.23, "lng": -101.29},
    {"name": "Jamestown", "lat": 46.91, "lng": -98.71},
    {"name": "Dickinson", "lat": 46.88, "lng": -102.79},
    {"name": "Grafton", "lat": 48.41, "lng": -97.41}
  ]
}`

func TestProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schoolTour.json")
	require.NoError(t, os.WriteFile(path, []byte(tourDoc), 0o644))
	tour, err := LoadTour(path)
	require.NoError(t, err)

	p := Progress(tour)

	assert.Equal(t, 5, p.Visited)
	assert.Equal(t, 167, p.Total)
	assert.InDelta(t, 3.0, p.Percent, 0.001)
	require.NotNil(t, p.LastVisit)
	assert.Equal(t, "Dickinson", p.LastVisit.District)
	require.Len(t, p.Recent, 4)
	assert.Equal(t, "Dickinson", p.Recent[0].District)
	assert.Equal(t, "Fargo", p.Recent[3].District)

	require.Len(t, p.Markers, 4)
	assert.Equal(t, StatusVisited, p.Markers[0].Status)
	assert.Equal(t, StatusUpcoming, p.Markers[1].Status)
	assert.True(t, p.Markers[2].Current)
	assert.False(t, p.Markers[0].Current)
	assert.Equal(t, StatusUnscheduled, p.Markers[3].Status)

	empty := Progress(&Tour{})
	assert.Nil(t, empty.LastVisit)
	assert.Zero(t, empty.Percent)
}

func TestLoadTourMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("["), 0o644))
	_, err := LoadTour(path)
	require.Error(t, err)
}
