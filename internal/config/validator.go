package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethanolivertroy/antimirror/internal/models"
	"github.com/go-playground/validator/v10"
)

// Scope selects which parts of the configuration a command depends on
type Scope int

const (
	ScopeMonitor Scope = iota
	ScopeForks
	ScopeState
)

// Error reports a missing or invalid setting. Nothing has touched the network
// by the time one is returned.
type Error struct {
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration (%s): %v", strings.Join(e.Fields, ", "), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newValidator() *validator.Validate {
	validate := validator.New()

	// owner/name with both halves present
	_ = validate.RegisterValidation("ownerrepo", func(fl validator.FieldLevel) bool {
		_, _, err := models.SplitRepo(fl.Field().String())
		return err == nil
	})

	_ = validate.RegisterValidation("forkpolicy", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case models.PolicyAll, models.PolicyDenylist, models.PolicyCorroborated:
			return true
		default:
			return false
		}
	})

	validate.RegisterStructValidation(validateStateURL, models.StateConfig{})

	return validate
}

// validateStateURL checks the settings a state backend needs before it is opened
func validateStateURL(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(models.StateConfig)
	scheme, rest, _ := strings.Cut(cfg.URL, "://")
	if scheme != "s3" {
		return
	}
	if cfg.S3Endpoint == "" {
		sl.ReportError(cfg.S3Endpoint, "S3Endpoint", "S3Endpoint", "required_for_s3", "")
	}
	if bucket, _, _ := strings.Cut(rest, "/"); bucket == "" {
		sl.ReportError(cfg.URL, "URL", "URL", "s3bucket", "")
	}
}

// Validate checks the sections needed for scope. Logging and reporting
// settings are always checked.
func Validate(cfg *models.Config, scope Scope) error {
	validate := newValidator()

	targets := []any{&cfg.Log, &cfg.Report, &cfg.State}
	switch scope {
	case ScopeMonitor:
		targets = append(targets, &cfg.GitHub, &cfg.Monitor)
	case ScopeForks:
		targets = append(targets, &cfg.GitHub, &cfg.Forks)
	}

	var fields []string
	var errs []error
	for _, t := range targets {
		err := validate.Struct(t)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
				errs = append(errs, fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			continue
		}
		return &Error{Fields: []string{"config"}, Err: err}
	}
	if len(errs) > 0 {
		return &Error{Fields: fields, Err: errors.Join(errs...)}
	}
	return nil
}
