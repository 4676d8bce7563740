package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Entry is one newly found appearance in a digest.
type Entry struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Source  string `json:"source"`
	Date    string `json:"date"`
	Snippet string `json:"snippet,omitempty"`
}

// Digest is the summary of one ingestion run sent to every destination.
type Digest struct {
	Subject    string   `json:"subject"`
	Heading    string   `json:"heading"`
	Entries    []Entry  `json:"entries"`
	Recipients []string `json:"-"`
	TrackerURL string   `json:"tracker_url,omitempty"`
	Verbose    bool     `json:"-"`
}

// Notifier delivers digests to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, d *Digest) error
}

// Manager broadcasts digests to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new notification manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Names lists the configured notifiers.
func (m *Manager) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		names[i] = n.Name()
	}
	return names
}

// Broadcast sends a digest to all registered notifiers. One failing
// destination does not stop the others.
func (m *Manager) Broadcast(ctx context.Context, d *Digest) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Recipients merges the primary address with mailing-list members, dropping
// blanks and case-insensitive duplicates while keeping order.
func Recipients(primary string, members []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, addr := range append([]string{primary}, members...) {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}
