package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/tracecheck/pkg/predicate"
	"github.com/ccollicutt/tracecheck/pkg/validator"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors, resolves the time zone and
// compiles every case's patterns.
func Validate(cfg *Config) error {
	if cfg.TraceFile == "" {
		return errors.New("trace_file: a trace file is required")
	}
	if cfg.Host == "" {
		return errors.New("host: a host is required")
	}

	loc, err := window.Location(cfg.TimeZone, cfg.UTCOffset)
	if err != nil {
		return fmt.Errorf("time_zone: %w", err)
	}
	cfg.location = loc

	if cfg.PollInterval < 0 {
		return errors.New("poll_interval: must not be negative")
	}
	if cfg.MaxPassRate < 0 {
		return errors.New("max_pass_rate: must not be negative")
	}

	if len(cfg.Cases) == 0 {
		return errors.New("cases: at least one case is required")
	}

	seen := make(map[string]bool, len(cfg.Cases))
	for i := range cfg.Cases {
		c := &cfg.Cases[i]
		if err := validateCase(c, loc); err != nil {
			return fmt.Errorf("cases[%d] (%s): %w", i, c.Name, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d] (%s): duplicate name", i, c.Name)
		}
		seen[c.Name] = true
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateCase(c *CaseConfig, loc *time.Location) error {
	if c.Name == "" {
		return errors.New("name is required")
	}

	c.paramPatterns = nil
	for i, p := range c.Params {
		fragments, err := p.Spec().Fragments()
		if err != nil {
			return fmt.Errorf("params[%d]: %w", i, err)
		}
		c.paramPatterns = append(c.paramPatterns, fragments...)
	}

	from, err := bound("from", c.FromOffset, c.From, loc)
	if err != nil {
		return err
	}
	to, err := bound("to", c.ToOffset, c.To, loc)
	if err != nil {
		return err
	}
	c.from, c.to = from, to

	checks := c.Request().AllChecks()
	if len(checks) == 0 {
		return errors.New("at least one criterion is required")
	}
	for _, check := range checks {
		if _, err := predicate.Compile(check.Rule); err != nil {
			return fmt.Errorf("%s: %w", check.Name, err)
		}
	}

	return nil
}

// bound resolves one end of a case window from its offset and absolute forms.
func bound(name string, offset *time.Duration, at string, loc *time.Location) (window.Bound, error) {
	switch {
	case offset != nil && at != "":
		return window.Bound{}, fmt.Errorf("only one of %s_offset and %s may be set", name, name)
	case offset != nil:
		return window.Offset(*offset), nil
	case at != "":
		t, err := window.ParseTimestamp(at, loc)
		if err != nil {
			return window.Bound{}, fmt.Errorf("%s: %w", name, err)
		}
		return window.At(t), nil
	default:
		return window.Bound{}, fmt.Errorf("one of %s_offset or %s is required", name, name)
	}
}

// Request converts the case into a validator request.
func (c *CaseConfig) Request() validator.Request {
	req := validator.Request{
		URIContains:     append(append([]string{}, c.URIContains...), c.paramPatterns...),
		URINotContains:  c.URINotContains,
		BodyContains:    c.BodyContains,
		BodyNotContains: c.BodyNotContains,
		From:            c.from,
		To:              c.to,
		Verbose:         c.Verbose,
	}

	for i, j := range c.BodyJSON {
		req.Checks = append(req.Checks, validator.Check{
			Name:  fmt.Sprintf("body_json[%d]", i),
			Field: validator.FieldBody,
			Rule:  predicate.JSONPath(j.Path, j.Pattern),
		})
	}
	if c.PathExpr != "" {
		req.Checks = append(req.Checks, validator.Check{
			Name:  "path_expr",
			Field: validator.FieldPath,
			Rule:  predicate.Expr(c.PathExpr),
		})
	}
	if c.BodyExpr != "" {
		req.Checks = append(req.Checks, validator.Check{
			Name:  "body_expr",
			Field: validator.FieldBody,
			Rule:  predicate.Expr(c.BodyExpr),
		})
	}

	return req
}

// ValidatorConfig returns the settings for building a validator.
func (c *Config) ValidatorConfig() validator.Config {
	return validator.Config{
		TraceFile:    c.TraceFile,
		Host:         c.Host,
		Location:     c.Location(),
		PollInterval: c.PollInterval,
		Watch:        c.Watch,
		MaxPassRate:  c.MaxPassRate,
	}
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnFailure, WebhookTriggerAlways, WebhookTriggerNever:
		default:
			return fmt.Errorf("invalid trigger %q (must be on_failure, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnFailure
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}

	return s
}
