package scheduler

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/elonfeng/mediatracker/pkg/ingest"
)

// Runner is one ingestion pass.
type Runner interface {
	Run(ctx context.Context) (*ingest.Report, error)
}

// Scheduler runs the ingestion job periodically.
type Scheduler struct {
	job      Runner
	interval time.Duration
	log      io.Writer
}

// New creates a new scheduler. A zero interval means weekly.
func New(job Runner, interval time.Duration, log io.Writer) *Scheduler {
	if interval <= 0 {
		interval = 7 * 24 * time.Hour
	}
	if log == nil {
		log = os.Stderr
	}
	return &Scheduler{
		job:      job,
		interval: interval,
		log:      log,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start.
	fmt.Fprintln(s.log, "scheduler: initial update...")
	s.runOnce(ctx)

	fmt.Fprintf(s.log, "scheduler: running (update every %s)\n", s.interval)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.log, "scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintln(s.log, "scheduler: updating...")
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	rep, err := s.job.Run(ctx)
	if err != nil {
		fmt.Fprintf(s.log, "  update error: %v\n", err)
		return
	}
	fmt.Fprintf(s.log, "  %d appended, notified: %t\n", rep.Appended, rep.Notified)
}
