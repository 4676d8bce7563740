package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	// ReviewTopic marks a record whose topic has not been curated yet.
	ReviewTopic = "TBD - Needs Review"
	// PlaceholderQuote marks a record whose quote has not been curated yet.
	PlaceholderQuote = "[Quote to be added]"

	// DateLayout is the on-disk format of every date field.
	DateLayout = "2006-01-02"
)

// Record is one persisted media appearance.
type Record struct {
	ID          int    `json:"id"`
	Date        string `json:"date"`
	Outlet      string `json:"outlet"`
	Type        string `json:"type"`
	Topic       string `json:"topic"`
	Quote       string `json:"quote"`
	Icon        string `json:"icon"`
	URL         string `json:"url,omitempty"`
	NeedsReview bool   `json:"needsReview,omitempty"`

	extra map[string]json.RawMessage
}

var recordKeys = []string{"id", "date", "outlet", "type", "topic", "quote", "icon", "url"}

// Collection is the whole appearances document. Top-level fields this
// package does not know about survive a Load/Save round trip.
type Collection struct {
	Appearances     []Record `json:"appearances"`
	LastUpdated     string   `json:"lastUpdated"`
	OfficeStartDate string   `json:"officeStartDate,omitempty"`
	AppointmentDate string   `json:"appointmentDate,omitempty"`

	extra map[string]json.RawMessage
}

var knownKeys = []string{"appearances", "lastUpdated", "officeStartDate", "appointmentDate"}

// Load reads and decodes the collection file at path.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", path, err)
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse collection %s: %w", path, err)
	}
	return &c, nil
}

// Save rewrites the collection file as a whole. The new content is written
// to a sibling temp file and renamed into place, so readers observe either
// the old or the new document.
func (c *Collection) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// KnownURLs returns the set of every non-empty record URL.
func (c *Collection) KnownURLs() URLSet {
	set := NewURLSet()
	for _, r := range c.Appearances {
		set.Add(r.URL)
	}
	return set
}

// MaxID returns the largest record identifier, or 0 for an empty collection.
func (c *Collection) MaxID() int {
	max := 0
	for _, r := range c.Appearances {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}

// Append adds records and stamps LastUpdated with today. An empty batch
// leaves the document untouched.
func (c *Collection) Append(records []Record, today string) {
	if len(records) == 0 {
		return
	}
	c.Appearances = append(c.Appearances, records...)
	c.LastUpdated = today
}

// NeedsReview counts records still carrying the review flag.
func (c *Collection) NeedsReview() int {
	n := 0
	for _, r := range c.Appearances {
		if r.NeedsReview {
			n++
		}
	}
	return n
}

type plainRecord Record

// UnmarshalJSON keeps curated fields this package does not model, and an
// explicit needsReview value, so a rewrite leaves existing records intact.
func (r *Record) UnmarshalJSON(data []byte) error {
	var p plainRecord
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, recordKeys)
	if err != nil {
		return err
	}
	if p.NeedsReview {
		delete(extra, "needsReview")
		if len(extra) == 0 {
			extra = nil
		}
	}
	*r = Record(p)
	r.extra = extra
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(plainRecord(r))
	if err != nil {
		return nil, err
	}
	extra := r.extra
	if _, ok := extra["needsReview"]; ok && r.NeedsReview {
		extra = make(map[string]json.RawMessage, len(r.extra))
		for k, v := range r.extra {
			if k != "needsReview" {
				extra[k] = v
			}
		}
	}
	return withFields(known, extra)
}

type plainCollection Collection

func (c *Collection) UnmarshalJSON(data []byte) error {
	var p plainCollection
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, knownKeys)
	if err != nil {
		return err
	}
	*c = Collection(p)
	c.extra = extra
	return nil
}

// MarshalJSON writes known fields first, in their canonical order, followed
// by preserved unknown fields sorted by key.
func (c Collection) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(plainCollection(c))
	if err != nil {
		return nil, err
	}
	return withFields(known, c.extra)
}

// unknownFields returns the members of the JSON object in data whose keys
// are not listed in known, or nil when there are none.
func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// withFields appends extra members, sorted by key, to the encoded object.
func withFields(object []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return object, nil
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(object[:len(object)-1])
	sep := len(object) > 2
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal field name %q: %w", k, err)
		}
		if sep {
			buf.WriteByte(',')
		}
		sep = true
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
