package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elonfeng/mediatracker/pkg/views"
)

// Config is the root configuration.
type Config struct {
	Subject  SubjectConfig  `yaml:"subject"`
	Data     DataConfig     `yaml:"data"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Search   SearchConfig   `yaml:"search"`
	Notify   NotifyConfig   `yaml:"notify"`
	Server   ServerConfig   `yaml:"server"`
	Views    ViewsConfig    `yaml:"views"`
}

// SubjectConfig names the person being tracked.
type SubjectConfig struct {
	Name    string `yaml:"name"`
	Surname string `yaml:"surname"` // match key; defaults to the last word of Name
}

// MatchSurname returns the surname used to filter search results.
func (s SubjectConfig) MatchSurname() string {
	if s.Surname != "" {
		return s.Surname
	}
	fields := strings.Fields(s.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// DataConfig locates the JSON documents.
type DataConfig struct {
	AppearancesPath string `yaml:"appearances_path"`
	TourPath        string `yaml:"tour_path"`
}

// DatabaseConfig configures the SQLite run ledger. An empty path disables it.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures the daemon's update interval.
type ScheduleConfig struct {
	UpdateInterval string `yaml:"update_interval"`
}

// ParseUpdateInterval returns the update interval as time.Duration.
func (s ScheduleConfig) ParseUpdateInterval() time.Duration {
	d, err := time.ParseDuration(s.UpdateInterval)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

// SearchConfig configures the news search provider.
type SearchConfig struct {
	Provider string   `yaml:"provider"` // "serper" or "googlenews"
	APIKey   string   `yaml:"api_key"`
	BaseURL  string   `yaml:"base_url"` // custom endpoint (optional)
	Queries  []string `yaml:"queries"`
	Num      int      `yaml:"num"`
	Recency  string   `yaml:"recency"`
}

// NotifyConfig configures digest delivery.
type NotifyConfig struct {
	Verbose       bool              `yaml:"verbose"` // include snippets in the digest
	SubjectPrefix string            `yaml:"subject_prefix"`
	TrackerURL    string            `yaml:"tracker_url"`
	Email         EmailConfig       `yaml:"email"`
	MailingList   MailingListConfig `yaml:"mailing_list"`
	Slack         SlackConfig       `yaml:"slack"`
	Discord       DiscordConfig     `yaml:"discord"`
	Webhook       WebhookConfig     `yaml:"webhook"`
}

// EmailConfig for Resend e-mail delivery. Both APIKey and To are required.
type EmailConfig struct {
	APIKey  string `yaml:"api_key"`
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	BaseURL string `yaml:"base_url"`
}

// MailingListConfig for the Notion CRM recipient lookup.
type MailingListConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	DatabaseID string `yaml:"database_id"`
	Tag        string `yaml:"tag"`
	BaseURL    string `yaml:"base_url"`
}

// SlackConfig for Slack webhook digests.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook digests.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook digests.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ViewsConfig overrides the dashboard bucketing rules.
type ViewsConfig struct {
	OutletRules []views.Rule `yaml:"outlet_rules"`
	TopicRules  []views.Rule `yaml:"topic_rules"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Subject: SubjectConfig{Name: "Levi Bachmeier"},
		Data: DataConfig{
			AppearancesPath: "./src/data/appearances.json",
			TourPath:        "./src/data/schoolTour.json",
		},
		Database: DatabaseConfig{Path: "./mediatracker.db"},
		Schedule: ScheduleConfig{UpdateInterval: "168h"},
		Search: SearchConfig{
			Provider: "serper",
			Queries: []string{
				"Levi Bachmeier superintendent",
				"Levi Bachmeier North Dakota education",
				"Bachmeier DPI interview",
			},
			Num:     10,
			Recency: "qdr:w",
		},
		Notify: NotifyConfig{
			SubjectPrefix: "Libby Tracker",
			TrackerURL:    "https://libby-tracker.netlify.app",
			Email: EmailConfig{
				From: "Libby Tracker <onboarding@resend.dev>",
			},
			MailingList: MailingListConfig{
				Enabled: true,
				Tag:     "PL members",
			},
		},
		Server: ServerConfig{Port: 8080},
		Views: ViewsConfig{
			OutletRules: views.DefaultOutletRules,
			TopicRules:  views.DefaultTopicRules,
		},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEDIATRACKER_DATA_PATH"); v != "" {
		cfg.Data.AppearancesPath = v
	}
	if v := os.Getenv("MEDIATRACKER_TOUR_PATH"); v != "" {
		cfg.Data.TourPath = v
	}
	if v := os.Getenv("MEDIATRACKER_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("NOTION_API_KEY"); v != "" {
		cfg.Notify.MailingList.APIKey = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		cfg.Notify.MailingList.DatabaseID = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Notify.Email.APIKey = v
	}
	if v := os.Getenv("NOTIFY_EMAIL"); v != "" {
		cfg.Notify.Email.To = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Notify.Slack.WebhookURL = v
		cfg.Notify.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Notify.Discord.WebhookURL = v
		cfg.Notify.Discord.Enabled = true
	}
}
