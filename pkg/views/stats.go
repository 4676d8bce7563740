package views

import (
	"math"
	"time"

	"github.com/elonfeng/mediatracker/pkg/collection"
)

// Stats are the headline numbers shown above the charts.
type Stats struct {
	DaysInOffice    int     `json:"days_in_office"`
	Appearances     int     `json:"appearances"`
	PerWeek         float64 `json:"per_week"`
	NeedsReview     int     `json:"needs_review"`
	LastUpdated     string  `json:"last_updated"`
	OfficeStartDate string  `json:"office_start_date,omitempty"`
	AppointmentDate string  `json:"appointment_date,omitempty"`
}

// Summarize computes headline stats as of now. Days in office round up;
// the weekly rate never divides by less than one week.
func Summarize(c *collection.Collection, now time.Time) Stats {
	s := Stats{
		Appearances:     len(c.Appearances),
		NeedsReview:     c.NeedsReview(),
		LastUpdated:     c.LastUpdated,
		OfficeStartDate: c.OfficeStartDate,
		AppointmentDate: c.AppointmentDate,
	}
	if start, err := time.Parse(collection.DateLayout, c.OfficeStartDate); err == nil {
		days := math.Abs(now.Sub(start).Hours()) / 24
		s.DaysInOffice = int(math.Ceil(days))
	}

	weeks := math.Max(float64(s.DaysInOffice)/7, 1)
	s.PerWeek = math.Round(float64(s.Appearances)/weeks*10) / 10
	return s
}
