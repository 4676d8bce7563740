package collection

// URLSet is the deduplication key space of one ingestion run. It is seeded
// from the persisted records and grows as candidates are accepted. The zero
// value is an empty set ready to use.
type URLSet struct {
	urls map[string]struct{}
}

// NewURLSet creates a set holding the given URLs.
func NewURLSet(urls ...string) URLSet {
	s := URLSet{urls: make(map[string]struct{}, len(urls))}
	for _, u := range urls {
		s.Add(u)
	}
	return s
}

// Has reports whether url is in the set. The empty URL is never a member.
func (s URLSet) Has(url string) bool {
	if url == "" {
		return false
	}
	_, ok := s.urls[url]
	return ok
}

// Add inserts url. Empty URLs are ignored.
func (s *URLSet) Add(url string) {
	if url == "" {
		return
	}
	if s.urls == nil {
		s.urls = make(map[string]struct{})
	}
	s.urls[url] = struct{}{}
}

// Len returns the number of URLs in the set.
func (s URLSet) Len() int { return len(s.urls) }
