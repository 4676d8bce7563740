package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/elonfeng/mediatracker/internal/store"
	"github.com/elonfeng/mediatracker/pkg/collection"
	"github.com/elonfeng/mediatracker/pkg/ingest"
	"github.com/elonfeng/mediatracker/pkg/views"
)

// Runner triggers one ingestion pass.
type Runner interface {
	Run(ctx context.Context) (*ingest.Report, error)
}

// RunLister lists recorded ingestion runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Options configures a Server.
type Options struct {
	DataPath    string
	TourPath    string
	OutletRules []views.Rule
	TopicRules  []views.Rule
	Job         Runner    // nil disables POST /api/v1/update
	Runs        RunLister // nil disables /api/v1/runs
	Port        int
	Now         func() time.Time
}

// Server provides the dashboard HTTP API.
type Server struct {
	opts Options

	mu     sync.Mutex
	cached *collection.Collection
	stamp  fileStamp
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

// New creates a new HTTP server.
func New(opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OutletRules == nil {
		opts.OutletRules = views.DefaultOutletRules
	}
	if opts.TopicRules == nil {
		opts.TopicRules = views.DefaultTopicRules
	}
	return &Server{opts: opts}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/appearances", s.handleAppearances)
	mux.HandleFunc("/api/v1/summary", s.handleSummary)
	mux.HandleFunc("/api/v1/outlets", s.handleOutlets)
	mux.HandleFunc("/api/v1/topics", s.handleTopics)
	mux.HandleFunc("/api/v1/cumulative", s.handleCumulative)
	mux.HandleFunc("/api/v1/tour", s.handleTour)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/update", s.handleUpdate)
	return mux
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "mediatracker server listening on %s\n", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// collection returns the parsed collection, reloading it only when the
// file's modification time or size changed.
func (s *Server) collection() (*collection.Collection, error) {
	info, err := os.Stat(s.opts.DataPath)
	if err != nil {
		return nil, fmt.Errorf("stat collection: %w", err)
	}
	stamp := fileStamp{modTime: info.ModTime(), size: info.Size()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && stamp == s.stamp {
		return s.cached, nil
	}

	c, err := collection.Load(s.opts.DataPath)
	if err != nil {
		return nil, err
	}
	s.cached, s.stamp = c, stamp
	return c, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withCollection wraps GET handlers that derive a view from the collection.
func (s *Server) withCollection(w http.ResponseWriter, r *http.Request, fn func(*collection.Collection) any) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	c, err := s.collection()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeData(w, fn(c))
}

func (s *Server) handleAppearances(w http.ResponseWriter, r *http.Request) {
	s.withCollection(w, r, func(c *collection.Collection) any {
		if r.URL.Query().Get("review") == "true" {
			var pending []collection.Record
			for _, rec := range c.Appearances {
				if rec.NeedsReview {
					pending = append(pending, rec)
				}
			}
			return pending
		}
		return c.Appearances
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.withCollection(w, r, func(c *collection.Collection) any {
		return views.Summarize(c, s.opts.Now())
	})
}

func (s *Server) handleOutlets(w http.ResponseWriter, r *http.Request) {
	s.withCollection(w, r, func(c *collection.Collection) any {
		return views.ByOutlet(c.Appearances, s.opts.OutletRules)
	})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	s.withCollection(w, r, func(c *collection.Collection) any {
		return views.ByTopic(c.Appearances, s.opts.TopicRules)
	})
}

func (s *Server) handleCumulative(w http.ResponseWriter, r *http.Request) {
	s.withCollection(w, r, func(c *collection.Collection) any {
		return views.Cumulative(c.Appearances)
	})
}

func (s *Server) handleTour(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.opts.TourPath == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tour not configured"})
		return
	}
	tour, err := views.LoadTour(s.opts.TourPath)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": views.Progress(tour)})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.opts.Runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run history not configured"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.opts.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeData(w, runs)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.opts.Job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "update not configured"})
		return
	}
	rep, err := s.opts.Job.Run(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rep})
}

// writeData wraps list and object payloads in the common envelope.
func writeData(w http.ResponseWriter, data any) {
	resp := map[string]any{"data": data}
	if n, ok := count(data); ok {
		resp["count"] = n
	}
	writeJSON(w, http.StatusOK, resp)
}

func count(data any) (int, bool) {
	switch v := data.(type) {
	case []collection.Record:
		return len(v), true
	case []views.Bucket:
		return len(v), true
	case []views.Point:
		return len(v), true
	case []store.Run:
		return len(v), true
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
