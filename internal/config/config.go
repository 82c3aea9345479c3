// Package config loads and validates the run configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// .env files and the process environment. Command-line flags are applied by
// the caller after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/joho/godotenv"
)

// dotenvFiles are loaded in order; godotenv never overrides a variable that is
// already set, so earlier files win.
var dotenvFiles = []string{".env.local", ".env"}

// Load builds a Config from defaults, the TOML file at path (if non-empty) and
// the environment. It does not validate.
func Load(path string) (*models.Config, error) {
	cfg := models.DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, &Error{Fields: []string{"config"}, Err: fmt.Errorf("failed to parse %s: %w", path, err)}
		}
	}

	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Fields: []string{"dotenv"}, Err: fmt.Errorf("failed to load %s: %w", f, err)}
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *models.Config, lookup lookupFunc) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&cfg.GitHub.Token, "GITHUB_TOKEN", "GITHUB_PAT")
	str(&cfg.GitHub.APIURL, "GITHUB_API_URL")

	str(&cfg.Monitor.Signature, "SIGNATURE")
	str(&cfg.Monitor.OutputRepo, "OUTPUT_REPO")
	str(&cfg.Monitor.WebhookURL, "ALERT_WEBHOOK")

	str(&cfg.Forks.ProtectedRepo, "PROTECTED_REPO")
	str(&cfg.Forks.OutputRepo, "OUTPUT_REPO")
	str(&cfg.Forks.IssueLabel, "ISSUE_LABEL")
	str(&cfg.Forks.Policy, "FORK_POLICY")
	str(&cfg.Forks.ReportDir, "REPORT_DIR")
	if v, ok := lookup("BLOCKLIST"); ok && v != "" {
		cfg.Forks.Denylist = splitList(v)
	}

	str(&cfg.State.File, "STATE_FILE")
	str(&cfg.State.URL, "STATE_URL")
	str(&cfg.State.Key, "STATE_KEY")
	str(&cfg.State.S3Endpoint, "S3_ENDPOINT")
	str(&cfg.State.S3AccessKey, "S3_ACCESS_KEY")
	str(&cfg.State.S3SecretKey, "S3_SECRET_KEY")
	str(&cfg.State.S3Region, "S3_REGION")

	str(&cfg.Log.Level, "LOG_LEVEL")
	str(&cfg.Log.Format, "LOG_FORMAT")
	str(&cfg.Log.File, "LOG_FILE")

	var errs []error
	if v, ok := lookup("SEARCH_PER_PAGE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, &Error{Fields: []string{"SEARCH_PER_PAGE"}, Err: err})
		} else {
			cfg.Monitor.PerPage = n
		}
	}
	if v, ok := lookup("SEARCH_PAGE_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, &Error{Fields: []string{"SEARCH_PAGE_DELAY"}, Err: err})
		} else {
			cfg.Monitor.PageDelay = d
		}
	}
	if v, ok := lookup("S3_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, &Error{Fields: []string{"S3_USE_SSL"}, Err: err})
		} else {
			cfg.State.S3UseSSL = b
		}
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
