package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/mediatracker/pkg/ingest"
)

type fakeRunner struct {
	calls chan struct{}
	err   error
}

func (f *fakeRunner) Run(ctx context.Context) (*ingest.Report, error) {
	f.calls <- struct{}{}
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Report{Appended: 1}, nil
}

func TestSchedulerRunsUntilCancelled(t *testing.T) {
	runner := &fakeRunner{calls: make(chan struct{}, 16), err: errors.New("collection missing")}
	var log bytes.Buffer
	s := New(runner, 10*time.Millisecond, &log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-runner.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d did not happen", i+1)
		}
	}
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Contains(t, log.String(), "update error: collection missing", "errors are logged and the loop continues")
	assert.Contains(t, log.String(), "scheduler: stopped")
}

func TestNewDefaults(t *testing.T) {
	s := New(&fakeRunner{}, 0, nil)
	assert.Equal(t, 7*24*time.Hour, s.interval)
	assert.NotNil(t, s.log)
}
