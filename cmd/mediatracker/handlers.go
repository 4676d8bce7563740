package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/elonfeng/mediatracker/internal/config"
	"github.com/elonfeng/mediatracker/internal/scheduler"
	"github.com/elonfeng/mediatracker/internal/store"
	"github.com/elonfeng/mediatracker/pkg/collection"
	"github.com/elonfeng/mediatracker/pkg/crm"
	"github.com/elonfeng/mediatracker/pkg/ingest"
	"github.com/elonfeng/mediatracker/pkg/notify"
	"github.com/elonfeng/mediatracker/pkg/search"
	"github.com/elonfeng/mediatracker/pkg/server"
	"github.com/elonfeng/mediatracker/pkg/views"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// openStore opens the run ledger. It returns nil when no database path is
// configured.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	if cfg.Database.Path == "" {
		return nil, nil
	}
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func buildSearcher(cfg *config.Config) search.Searcher {
	provider, err := search.ParseProvider(cfg.Search.Provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: %v, searching disabled\n", err)
		return nil
	}
	switch provider {
	case search.ProviderSerper:
		if cfg.Search.APIKey == "" {
			fmt.Fprintln(os.Stderr, "search: SERPER_API_KEY not set, searching disabled")
			return nil
		}
		return search.NewSerper(cfg.Search.APIKey, cfg.Search.BaseURL)
	case search.ProviderGoogleNews:
		return search.NewGoogleNews(cfg.Search.BaseURL)
	}
	return nil
}

func buildMailingList(cfg *config.Config) ingest.MailingList {
	ml := cfg.Notify.MailingList
	if !ml.Enabled {
		return nil
	}
	n := crm.NewNotion(ml.APIKey, ml.DatabaseID, ml.Tag, ml.BaseURL)
	if !n.Configured() {
		fmt.Fprintln(os.Stderr, "mailing list: Notion credentials not set, using primary recipient only")
	}
	return n
}

func buildNotifyManager(cfg *config.Config) *notify.Manager {
	var notifiers []notify.Notifier
	n := cfg.Notify

	if n.Email.APIKey != "" && n.Email.To != "" {
		notifiers = append(notifiers, notify.NewResend(n.Email.APIKey, n.Email.From, n.Email.BaseURL))
	}
	if n.Slack.Enabled && n.Slack.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewSlack(n.Slack.WebhookURL))
	}
	if n.Discord.Enabled && n.Discord.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewDiscord(n.Discord.WebhookURL))
	}
	if n.Webhook.Enabled && n.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhook(n.Webhook.URL, n.Webhook.Secret))
	}

	return notify.NewManager(notifiers)
}

func buildJob(cfg *config.Config, db *store.SQLiteStore) *ingest.Job {
	job := &ingest.Job{
		DataPath:      cfg.Data.AppearancesPath,
		Queries:       cfg.Search.Queries,
		MailingList:   buildMailingList(cfg),
		Notifier:      buildNotifyManager(cfg),
		SubjectName:   cfg.Subject.Name,
		NotifyEmail:   cfg.Notify.Email.To,
		SubjectPrefix: cfg.Notify.SubjectPrefix,
		TrackerURL:    cfg.Notify.TrackerURL,
		Verbose:       cfg.Notify.Verbose,
	}
	surname := cfg.Subject.MatchSurname()
	if surname == "" {
		fmt.Fprintln(os.Stderr, "search: subject.name not set, searching disabled")
	} else if s := buildSearcher(cfg); s != nil {
		job.Aggregator = ingest.NewAggregator(s, surname, cfg.Search.Num, cfg.Search.Recency)
	}
	if db != nil {
		job.Ledger = db
	}
	return job
}

func buildServer(cfg *config.Config, db *store.SQLiteStore, job *ingest.Job, port int) *server.Server {
	opts := server.Options{
		DataPath:    cfg.Data.AppearancesPath,
		TourPath:    cfg.Data.TourPath,
		OutletRules: cfg.Views.OutletRules,
		TopicRules:  cfg.Views.TopicRules,
		Job:         job,
		Port:        port,
	}
	if db != nil {
		opts.Runs = db
	}
	return server.New(opts)
}

func runUpdate() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, err := buildJob(cfg, db).Run(ctx)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	fmt.Fprintf(os.Stderr, "\nrun %s: %d appended, notified: %t\n", rep.RunID, rep.Appended, rep.Notified)
	return nil
}

type viewsOutput struct {
	Stats      views.Stats    `json:"stats"`
	Outlets    []views.Bucket `json:"outlets"`
	Topics     []views.Bucket `json:"topics"`
	Cumulative []views.Point  `json:"cumulative"`
}

func runViews(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	coll, err := collection.Load(cfg.Data.AppearancesPath)
	if err != nil {
		return err
	}

	out := viewsOutput{
		Stats:      views.Summarize(coll, time.Now()),
		Outlets:    views.ByOutlet(coll.Appearances, cfg.Views.OutletRules),
		Topics:     views.ByTopic(coll.Appearances, cfg.Views.TopicRules),
		Cumulative: views.Cumulative(coll.Appearances),
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("%d appearances over %d days in office (%.1f per week), %d awaiting review\n",
		out.Stats.Appearances, out.Stats.DaysInOffice, out.Stats.PerWeek, out.Stats.NeedsReview)
	if out.Stats.LastUpdated != "" {
		fmt.Printf("last updated %s\n", out.Stats.LastUpdated)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nOUTLET\tCOUNT")
	for _, b := range out.Outlets {
		fmt.Fprintf(w, "%s\t%d\n", b.Label, b.Count)
	}
	fmt.Fprintln(w, "\nTOPIC\tCOUNT")
	for _, b := range out.Topics {
		fmt.Fprintf(w, "%s\t%d\n", b.Label, b.Count)
	}
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := buildServer(cfg, db, buildJob(cfg, db), port)
	return srv.ListenAndServe(ctx)
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	job := buildJob(cfg, db)
	sched := scheduler.New(job, cfg.Schedule.ParseUpdateInterval(), os.Stderr)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return buildServer(cfg, db, job, port).ListenAndServe(ctx)
}

func runHistory(limit int, runID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("run history disabled: database.path is empty")
	}
	defer db.Close()

	ctx := context.Background()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if runID != "" {
		hits, err := db.HitsForRun(ctx, runID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ACCEPTED\tSOURCE\tQUERY\tURL")
		for _, h := range hits {
			fmt.Fprintf(w, "%t\t%s\t%s\t%s\n", h.Accepted, h.Source, h.Query, h.URL)
		}
		return w.Flush()
	}

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded (try: mediatracker update)")
		return nil
	}

	fmt.Fprintln(w, "STARTED\tCANDIDATES\tAPPENDED\tNOTIFIED\tERROR\tID")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%t\t%s\t%s\n",
			r.StartedAt.Format(time.RFC3339), r.Candidates, r.Appended, r.Notified, r.Error, r.ID)
	}
	return w.Flush()
}
