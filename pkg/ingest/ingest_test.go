package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/mediatracker/pkg/collection"
	"github.com/elonfeng/mediatracker/pkg/notify"
	"github.com/elonfeng/mediatracker/pkg/search"
)

var fixedNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

type fakeSearcher struct {
	results map[string][]search.Result
	errs    map[string]error
	queries []search.Query
}

func (f *fakeSearcher) Name() search.Provider { return "fake" }

func (f *fakeSearcher) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	f.queries = append(f.queries, q)
	if err := f.errs[q.Text]; err != nil {
		return nil, err
	}
	return f.results[q.Text], nil
}

func newTestAggregator(s search.Searcher) (*Aggregator, *bytes.Buffer) {
	var log bytes.Buffer
	a := NewAggregator(s, "Bachmeier", 10, "")
	a.Now = func() time.Time { return fixedNow }
	a.Log = &log
	return a, &log
}

func TestCollectCrossQueryDedup(t *testing.T) {
	shared := search.Result{Title: "Bachmeier on tour", Link: "https://x/shared", Source: "Inforum"}
	s := &fakeSearcher{results: map[string][]search.Result{
		"q1": {shared, {Title: "Other Bachmeier story", Link: "https://x/2", Source: "KFYR TV", Date: "2025-01-05"}},
		"q2": {shared, {Title: "Third", Snippet: "Supt. BACHMEIER said", Link: "https://x/3", Source: "KXYZ Radio"}},
	}}
	a, _ := newTestAggregator(s)

	got := a.Collect(context.Background(), []string{"q1", "q2"}, collection.NewURLSet())

	require.Len(t, got, 3)
	assert.Equal(t, "https://x/shared", got[0].URL)
	assert.Equal(t, "q1", got[0].Query)
	assert.Equal(t, "https://x/2", got[1].URL)
	assert.Equal(t, "https://x/3", got[2].URL)
	assert.Equal(t, "2025-01-10", got[0].Date, "missing date defaults to today")
	assert.Equal(t, "2025-01-05", got[1].Date)

	require.Len(t, s.queries, 2)
	assert.Equal(t, search.Query{Text: "q1", Num: 10, Recency: "qdr:w"}, s.queries[0])
}

func TestCollectIdempotent(t *testing.T) {
	s := &fakeSearcher{results: map[string][]search.Result{
		"q": {{Title: "Bachmeier", Link: "https://x/1"}, {Title: "Bachmeier again", Link: "https://x/2"}},
	}}
	a, _ := newTestAggregator(s)
	known := collection.NewURLSet("https://x/0")

	first := a.Collect(context.Background(), []string{"q"}, known)
	second := a.Collect(context.Background(), []string{"q"}, known)

	assert.Len(t, first, 2)
	assert.Empty(t, second)
	assert.Equal(t, 3, known.Len())
}

func TestCollectSurnameFilter(t *testing.T) {
	var hits []Hit
	s := &fakeSearcher{results: map[string][]search.Result{
		"q": {
			{Title: "School board news", Snippet: "Superintendent spoke", Link: "https://x/1"},
			{Title: "Budget", Link: "https://x/2"},
			{Title: "", Link: ""},
		},
	}}
	a, _ := newTestAggregator(s)
	a.Observe = func(h Hit) { hits = append(hits, h) }
	known := collection.NewURLSet()

	got := a.Collect(context.Background(), []string{"q"}, known)

	assert.Empty(t, got)
	assert.Equal(t, 0, known.Len(), "rejected results must not enter the known set")
	require.Len(t, hits, 3)
	for _, h := range hits {
		assert.False(t, h.Accepted)
	}
}

func TestCollectEmptySurnameAcceptsNothing(t *testing.T) {
	s := &fakeSearcher{results: map[string][]search.Result{
		"q": {{Title: "Weather today", Snippet: "Sunny", Link: "https://x/1"}},
	}}
	a := NewAggregator(s, "  ", 10, "")
	a.Log = io.Discard

	got := a.Collect(context.Background(), []string{"q"}, collection.NewURLSet())

	assert.Empty(t, got)
}

func TestCollectZeroValueKnownSet(t *testing.T) {
	s := &fakeSearcher{results: map[string][]search.Result{
		"q1": {{Title: "Bachmeier visits Minot", Link: "https://x/1"}},
		"q2": {{Title: "Bachmeier visits Minot", Link: "https://x/1"}},
	}}
	a, _ := newTestAggregator(s)

	var got []Candidate
	require.NotPanics(t, func() {
		got = a.Collect(context.Background(), []string{"q1", "q2"}, collection.URLSet{})
	})
	require.Len(t, got, 1)
	assert.Equal(t, "q1", got[0].Query)
}

func TestCollectIsolatesQueryErrors(t *testing.T) {
	s := &fakeSearcher{
		results: map[string][]search.Result{"ok": {{Title: "Bachmeier", Link: "https://x/1"}}},
		errs:    map[string]error{"broken": errors.New("connection reset")},
	}
	a, log := newTestAggregator(s)

	got := a.Collect(context.Background(), []string{"broken", "ok"}, collection.NewURLSet())

	require.Len(t, got, 1)
	assert.Len(t, s.queries, 2, "a failing query must not abort the rest")
	assert.Contains(t, log.String(), `search error for "broken": connection reset`)
}

func TestBuildRecords(t *testing.T) {
	candidates := []Candidate{
		{Title: "a", URL: "https://x/a", Source: "Channel 4 TV News", Date: "2025-01-01"},
		{Title: "b", URL: "https://x/b", Source: "KXYZ Radio", Date: "2025-01-02"},
		{Title: "c", URL: "https://x/c", Source: "Bismarck Tribune", Date: "2025-01-03"},
	}

	records := BuildRecords(candidates, 5)

	require.Len(t, records, 3)
	assert.Equal(t, []int{6, 7, 8}, []int{records[0].ID, records[1].ID, records[2].ID})
	assert.Equal(t, GlyphBroadcast, records[0].Icon)
	assert.Equal(t, GlyphRadio, records[1].Icon)
	assert.Equal(t, GlyphPrint, records[2].Icon)
	assert.Equal(t, "Print", records[2].Type)
	for _, r := range records {
		assert.Equal(t, collection.ReviewTopic, r.Topic)
		assert.Equal(t, collection.PlaceholderQuote, r.Quote)
		assert.True(t, r.NeedsReview)
	}
	assert.Equal(t, "Channel 4 TV News", records[0].Outlet)
	assert.Equal(t, "https://x/b", records[1].URL)
}

func TestMediaKind(t *testing.T) {
	tests := []struct {
		outlet string
		glyph  string
		kind   string
	}{
		{"Channel 4 TV News", GlyphBroadcast, "TV"},
		{"KXYZ Radio", GlyphRadio, "Radio"},
		{"Bismarck Tribune", GlyphPrint, "Print"},
		{"Prairie Public radio tv", GlyphBroadcast, "TV"},
		{"", GlyphPrint, "Print"},
	}
	for _, tt := range tests {
		t.Run(tt.outlet, func(t *testing.T) {
			glyph, kind := MediaKind(tt.outlet)
			assert.Equal(t, tt.glyph, glyph)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"":                     "2025-01-10",
		"2024-12-31":           "2024-12-31",
		"2025-01-08T09:00:00Z": "2025-01-08",
		"Jan 3, 2025":          "2025-01-03",
		"3 days ago":           "2025-01-07",
		"1 hour ago":           "2025-01-10",
		"an hour ago":          "2025-01-10",
		"2 weeks ago":          "2024-12-27",
		"1 month ago":          "2024-12-10",
		"Yesterday":            "2025-01-09",
		"sometime soon":        "2025-01-10",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeDate(in, fixedNow))
		})
	}
}

type fakeNotifier struct {
	err error
	got []*notify.Digest
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Send(ctx context.Context, d *notify.Digest) error {
	f.got = append(f.got, d)
	return f.err
}

type fakeMailingList struct {
	members []string
	err     error
}

func (f fakeMailingList) Members(ctx context.Context) ([]string, error) { return f.members, f.err }

type fakeLedger struct{ runs []*Report }

func (f *fakeLedger) RecordRun(ctx context.Context, r *Report) error {
	f.runs = append(f.runs, r)
	return nil
}

const jobDoc = `{
  "appearances": [
    {"id": 3, "date": "2025-01-01", "outlet": "Inforum", "type": "Print", "topic": "Appointment", "quote": "q", "icon": "📰", "url": "https://x/known"}
  ],
  "lastUpdated": "2025-01-01",
  "officeStartDate": "2025-01-01"
}`

func newTestJob(t *testing.T, s search.Searcher) (*Job, string, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appearances.json")
	require.NoError(t, os.WriteFile(path, []byte(jobDoc), 0o644))

	var log bytes.Buffer
	job := &Job{
		DataPath:    path,
		Queries:     []string{"q1"},
		Aggregator:  NewAggregator(s, "Bachmeier", 10, ""),
		SubjectName: "Levi Bachmeier",
		NotifyEmail: "owner@example.com",
		Now:         func() time.Time { return fixedNow },
		Log:         &log,
	}
	return job, path, &log
}

func jobSearcher() *fakeSearcher {
	return &fakeSearcher{results: map[string][]search.Result{
		"q1": {
			{Title: "Bachmeier known", Link: "https://x/known", Source: "Inforum"},
			{Title: "Bachmeier new", Link: "https://x/new", Source: "KFYR TV", Date: "2025-01-09"},
		},
	}}
}

func TestJobRunAppendsAndNotifies(t *testing.T) {
	job, path, _ := newTestJob(t, jobSearcher())
	n := &fakeNotifier{}
	ledger := &fakeLedger{}
	job.Notifier = notify.NewManager([]notify.Notifier{n})
	job.MailingList = fakeMailingList{members: []string{"member@example.com"}}
	job.Ledger = ledger

	rep, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Appended)
	assert.True(t, rep.Notified)
	assert.Equal(t, 2, rep.Recipients)
	assert.Len(t, rep.Hits, 2)
	assert.NotEmpty(t, rep.RunID)

	coll, err := collection.Load(path)
	require.NoError(t, err)
	require.Len(t, coll.Appearances, 2)
	added := coll.Appearances[1]
	assert.Equal(t, 4, added.ID)
	assert.Equal(t, "2025-01-09", added.Date)
	assert.Equal(t, GlyphBroadcast, added.Icon)
	assert.Equal(t, "2025-01-10", coll.LastUpdated)

	require.Len(t, n.got, 1)
	d := n.got[0]
	assert.Equal(t, "[Media Tracker] 1 new appearance(s) found", d.Subject)
	assert.Equal(t, "Levi Bachmeier Media Tracker Update", d.Heading)
	assert.Equal(t, []string{"owner@example.com", "member@example.com"}, d.Recipients)

	require.Len(t, ledger.runs, 1)
	assert.Same(t, rep, ledger.runs[0])
}

func TestJobRunWithoutNotifiers(t *testing.T) {
	job, path, log := newTestJob(t, jobSearcher())

	rep, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Appended)
	assert.False(t, rep.Notified)
	assert.Contains(t, log.String(), "notifications not configured")

	coll, err := collection.Load(path)
	require.NoError(t, err)
	assert.Len(t, coll.Appearances, 2)
}

func TestJobRunNotificationFailureKeepsRecords(t *testing.T) {
	job, path, log := newTestJob(t, jobSearcher())
	job.Notifier = notify.NewManager([]notify.Notifier{&fakeNotifier{err: errors.New("smtp down")}})
	job.MailingList = fakeMailingList{err: errors.New("crm down")}

	rep, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Notified)
	assert.Contains(t, log.String(), "mailing list error: crm down")
	assert.Contains(t, log.String(), "notification error")

	coll, err := collection.Load(path)
	require.NoError(t, err)
	assert.Len(t, coll.Appearances, 2)
}

func TestJobRunNothingNew(t *testing.T) {
	s := &fakeSearcher{results: map[string][]search.Result{
		"q1": {{Title: "Bachmeier known", Link: "https://x/known"}},
	}}
	job, path, _ := newTestJob(t, s)
	n := &fakeNotifier{}
	job.Notifier = notify.NewManager([]notify.Notifier{n})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	rep, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rep.Appended)
	assert.Empty(t, n.got)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "file must not be rewritten")
}

func TestJobRunWithoutSearcher(t *testing.T) {
	job, _, log := newTestJob(t, nil)
	job.Aggregator = nil

	rep, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rep.Candidates)
	assert.Contains(t, log.String(), "no search provider configured")
}

func TestJobRunMalformedCollection(t *testing.T) {
	job, path, _ := newTestJob(t, jobSearcher())
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	ledger := &fakeLedger{}
	job.Ledger = ledger

	_, err := job.Run(context.Background())
	require.Error(t, err)
	require.Len(t, ledger.runs, 1)
	assert.NotEmpty(t, ledger.runs[0].Error)
}
