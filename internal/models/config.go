package models

import "time"

// Config holds configuration for every command
type Config struct {
	GitHub  GitHubConfig  `toml:"github"`
	Monitor MonitorConfig `toml:"monitor"`
	Forks   ForksConfig   `toml:"forks"`
	State   StateConfig   `toml:"state"`
	Log     LogConfig     `toml:"log"`
	Report  ReportConfig  `toml:"report"`
}

// GitHubConfig holds API access settings
type GitHubConfig struct {
	Token  string `toml:"token" validate:"required"`
	APIURL string `toml:"api_url" validate:"omitempty,url"` // empty means api.github.com
}

// MonitorConfig drives the marker search
type MonitorConfig struct {
	Signature  string        `toml:"signature" validate:"required"`
	OutputRepo string        `toml:"output_repo" validate:"required,ownerrepo"`
	WebhookURL string        `toml:"webhook_url" validate:"omitempty,url"`
	PerPage    int           `toml:"per_page" validate:"min=1,max=100"`
	PageDelay  time.Duration `toml:"page_delay" validate:"min=1s"`
}

// ForksConfig drives the fork scan
type ForksConfig struct {
	ProtectedRepo string   `toml:"protected_repo" validate:"required,ownerrepo"`
	OutputRepo    string   `toml:"output_repo" validate:"omitempty,ownerrepo"` // defaults to ProtectedRepo
	Denylist      []string `toml:"denylist"`
	IssueLabel    string   `toml:"issue_label"`
	Policy        string   `toml:"policy" validate:"forkpolicy"`
	ReportDir     string   `toml:"report_dir" validate:"required"`
	DryRun        bool     `toml:"dry_run"`
}

// StateConfig selects where the seen-set lives
type StateConfig struct {
	File string `toml:"file"`
	URL  string `toml:"url"` // sqlite://, postgres://, s3:// or empty for File
	Key  string `toml:"key" validate:"required"`

	S3Endpoint  string `toml:"s3_endpoint"`
	S3AccessKey string `toml:"s3_access_key"`
	S3SecretKey string `toml:"s3_secret_key"`
	S3Region    string `toml:"s3_region"` // empty asks the server for the bucket location
	S3UseSSL    bool   `toml:"s3_use_ssl"`
}

// LogConfig controls the zerolog setup
type LogConfig struct {
	Level      string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `toml:"format" validate:"omitempty,oneof=console json"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// ReportConfig controls how the run summary is printed
type ReportConfig struct {
	Format string `toml:"format" validate:"omitempty,oneof=terminal json yaml sarif"`
	Output string `toml:"output"` // empty means stdout
}

// Fork enforcement policies
const (
	PolicyAll          = "all"
	PolicyDenylist     = "denylist"
	PolicyCorroborated = "corroborated"
)

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			PerPage:   50,
			PageDelay: time.Second,
		},
		Forks: ForksConfig{
			IssueLabel: "anti-mirror",
			Policy:     PolicyCorroborated,
			ReportDir:  ".",
		},
		State: StateConfig{
			File: "monitor_state.json",
			Key:  "monitor",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		Report: ReportConfig{
			Format: "terminal",
		},
	}
}
