package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elonfeng/mediatracker/pkg/collection"
	"github.com/elonfeng/mediatracker/pkg/notify"
)

// MailingList supplies extra digest recipients.
type MailingList interface {
	Members(ctx context.Context) ([]string, error)
}

// Ledger persists a summary of every run.
type Ledger interface {
	RecordRun(ctx context.Context, r *Report) error
}

// Report summarises one ingestion run.
type Report struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Candidates []Candidate `json:"candidates"`
	Appended   int         `json:"appended"`
	Notified   bool        `json:"notified"`
	Recipients int         `json:"recipients"`
	Hits       []Hit       `json:"-"`
	Error      string      `json:"error,omitempty"`
}

// Job is one configured ingestion pipeline: search, append, notify.
type Job struct {
	DataPath string
	Queries  []string

	// Aggregator is nil when no search provider is configured.
	Aggregator  *Aggregator
	MailingList MailingList
	Notifier    *notify.Manager
	Ledger      Ledger

	SubjectName   string
	NotifyEmail   string
	SubjectPrefix string
	TrackerURL    string
	Verbose       bool

	Now func() time.Time
	Log io.Writer

	mu sync.Mutex
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Job) log() io.Writer {
	if j.Log != nil {
		return j.Log
	}
	return os.Stderr
}

// Run executes the pipeline once. Only a collection that cannot be read or
// written fails the run; search, mailing-list and notification problems are
// logged and skipped. Runs on the same Job never overlap.
func (j *Job) Run(ctx context.Context) (rep *Report, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	log := j.log()
	rep = &Report{RunID: uuid.NewString(), StartedAt: j.now().UTC()}
	defer func() {
		rep.FinishedAt = j.now().UTC()
		if err != nil {
			rep.Error = err.Error()
		}
		if j.Ledger != nil {
			if lerr := j.Ledger.RecordRun(ctx, rep); lerr != nil {
				fmt.Fprintf(log, "update: ledger error: %v\n", lerr)
			}
		}
	}()

	fmt.Fprintln(log, "update: starting")
	coll, err := collection.Load(j.DataPath)
	if err != nil {
		return rep, err
	}
	fmt.Fprintf(log, "update: %d appearances on file\n", len(coll.Appearances))

	members := j.fetchMembers(ctx)

	if j.Aggregator == nil {
		fmt.Fprintln(log, "update: no search provider configured, skipping search")
	} else {
		agg := *j.Aggregator
		agg.Now = j.now
		agg.Log = log
		observe := j.Aggregator.Observe
		agg.Observe = func(h Hit) {
			rep.Hits = append(rep.Hits, h)
			if observe != nil {
				observe(h)
			}
		}
		rep.Candidates = agg.Collect(ctx, j.Queries, coll.KnownURLs())
	}
	fmt.Fprintf(log, "update: found %d new potential appearances\n", len(rep.Candidates))

	if len(rep.Candidates) == 0 {
		fmt.Fprintln(log, "update: no new appearances found")
		return rep, nil
	}

	records := BuildRecords(rep.Candidates, coll.MaxID())
	coll.Append(records, j.now().Format(collection.DateLayout))
	if err := coll.Save(j.DataPath); err != nil {
		return rep, err
	}
	rep.Appended = len(records)
	fmt.Fprintf(log, "update: added %d appearances to %s\n", len(records), j.DataPath)

	j.notify(ctx, rep, members)

	fmt.Fprintln(log, "update: complete")
	return rep, nil
}

func (j *Job) fetchMembers(ctx context.Context) []string {
	if j.MailingList == nil {
		return nil
	}
	members, err := j.MailingList.Members(ctx)
	if err != nil {
		fmt.Fprintf(j.log(), "update: mailing list error: %v\n", err)
		return nil
	}
	fmt.Fprintf(j.log(), "update: %d mailing-list members\n", len(members))
	return members
}

// notify never fails the run: records already written stay written.
func (j *Job) notify(ctx context.Context, rep *Report, members []string) {
	log := j.log()
	if !j.Notifier.HasNotifiers() {
		fmt.Fprintln(log, "update: notifications not configured, skipping")
		return
	}

	prefix := j.SubjectPrefix
	if prefix == "" {
		prefix = "Media Tracker"
	}
	d := &notify.Digest{
		Subject:    fmt.Sprintf("[%s] %d new appearance(s) found", prefix, len(rep.Candidates)),
		Heading:    strings.TrimSpace(j.SubjectName + " Media Tracker Update"),
		Recipients: notify.Recipients(j.NotifyEmail, members),
		TrackerURL: j.TrackerURL,
		Verbose:    j.Verbose,
	}
	for _, c := range rep.Candidates {
		d.Entries = append(d.Entries, notify.Entry{
			Title:   c.Title,
			URL:     c.URL,
			Source:  c.Source,
			Date:    c.Date,
			Snippet: c.Snippet,
		})
	}

	if err := j.Notifier.Broadcast(ctx, d); err != nil {
		fmt.Fprintf(log, "update: notification error: %v\n", err)
		return
	}
	rep.Notified = true
	rep.Recipients = len(d.Recipients)
	fmt.Fprintf(log, "update: notified %d recipients via %v\n", len(d.Recipients), j.Notifier.Names())
}
