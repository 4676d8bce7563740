package views

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Visit is a completed school-district visit.
type Visit struct {
	District string  `json:"district"`
	Date     string  `json:"date"`
	Students int     `json:"students"`
	Note     string  `json:"note,omitempty"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Upcoming is a scheduled visit.
type Upcoming struct {
	District      string `json:"district"`
	ScheduledDate string `json:"scheduledDate"`
	Students      int    `json:"students"`
}

// District is a map location.
type District struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Tour is the static listening-tour document.
type Tour struct {
	TotalDistricts int        `json:"totalDistricts"`
	Visits         []Visit    `json:"visits"`
	Upcoming       []Upcoming `json:"upcoming"`
	AllDistricts   []District `json:"allDistricts"`
}

// LoadTour reads the tour document at path.
func LoadTour(path string) (*Tour, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tour %s: %w", path, err)
	}
	var t Tour
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tour %s: %w", path, err)
	}
	return &t, nil
}

// Map viewport: a 600x300 box with a 10 unit margin around the state's
// bounding box.
const (
	MapWidth  = 600
	MapHeight = 300

	mapMargin = 10
	minLat    = 45.9
	maxLat    = 49.0
	minLng    = -104.1
	maxLng    = -96.5
)

// Project maps a coordinate onto the map viewport. North is up.
func Project(lat, lng float64) (x, y float64) {
	x = (lng-minLng)/(maxLng-minLng)*(MapWidth-2*mapMargin) + mapMargin
	y = (maxLat-lat)/(maxLat-minLat)*(MapHeight-2*mapMargin) + mapMargin
	return x, y
}

// Marker statuses.
const (
	StatusVisited     = "visited"
	StatusUpcoming    = "upcoming"
	StatusUnscheduled = "unscheduled"
)

// Marker is one district dot on the map.
type Marker struct {
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Status  string  `json:"status"`
	Current bool    `json:"current"`
}

// TourProgress is everything the tour panel renders.
type TourProgress struct {
	Visited   int        `json:"visited"`
	Total     int        `json:"total"`
	Percent   float64    `json:"percent"`
	LastVisit *Visit     `json:"last_visit,omitempty"`
	Recent    []Visit    `json:"recent"`
	Upcoming  []Upcoming `json:"upcoming"`
	Markers   []Marker   `json:"markers"`
}

const recentVisits = 4

// Progress derives the tour panel from the tour document.
func Progress(t *Tour) TourProgress {
	p := TourProgress{
		Visited:  len(t.Visits),
		Total:    t.TotalDistricts,
		Upcoming: t.Upcoming,
	}
	if t.TotalDistricts > 0 {
		p.Percent = math.Round(float64(len(t.Visits))/float64(t.TotalDistricts)*1000) / 10
	}
	if n := len(t.Visits); n > 0 {
		last := t.Visits[n-1]
		p.LastVisit = &last
		for i := n - 1; i >= 0 && len(p.Recent) < recentVisits; i-- {
			p.Recent = append(p.Recent, t.Visits[i])
		}
	}

	visited := make(map[string]bool, len(t.Visits))
	for _, v := range t.Visits {
		visited[v.District] = true
	}
	upcoming := make(map[string]bool, len(t.Upcoming))
	for _, u := range t.Upcoming {
		upcoming[u.District] = true
	}

	for _, d := range t.AllDistricts {
		x, y := Project(d.Lat, d.Lng)
		m := Marker{Name: d.Name, X: x, Y: y, Status: StatusUnscheduled}
		switch {
		case visited[d.Name]:
			m.Status = StatusVisited
		case upcoming[d.Name]:
			m.Status = StatusUpcoming
		}
		m.Current = p.LastVisit != nil && d.Name == p.LastVisit.District
		p.Markers = append(p.Markers, m)
	}
	return p
}
