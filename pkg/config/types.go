// Package config provides configuration loading and validation for tracecheck.
package config

import (
	"time"

	"github.com/ccollicutt/tracecheck/pkg/pattern"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// TraceFile is the capture dump to validate. Files ending in .zst are
	// read compressed.
	TraceFile string `yaml:"trace_file"`

	// Host keeps only requests sent to this host.
	Host string `yaml:"host"`

	// TimeZone names the zone dump timestamps are written in, e.g. "EST".
	TimeZone string `yaml:"time_zone,omitempty"`

	// UTCOffset is a fixed offset such as "-05:00". It takes precedence
	// over TimeZone.
	UTCOffset string `yaml:"utc_offset,omitempty"`

	// PollInterval is the wait between passes over the dump.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// Watch starts a pass as soon as the dump is written to.
	Watch bool `yaml:"watch,omitempty"`

	// MaxPassRate caps watcher-triggered passes per second.
	MaxPassRate float64 `yaml:"max_pass_rate,omitempty"`

	// EventLogDir enables event logs, one file per case.
	EventLogDir string `yaml:"event_log_dir,omitempty"`

	Cases    []CaseConfig    `yaml:"cases"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`

	// location is resolved from TimeZone and UTCOffset during validation.
	location *time.Location
}

// Location returns the resolved trace time zone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Case returns the case with the given name.
func (c *Config) Case(name string) (*CaseConfig, bool) {
	for i := range c.Cases {
		if c.Cases[i].Name == name {
			return &c.Cases[i], true
		}
	}
	return nil, false
}

// CaseConfig defines a single validation case.
type CaseConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Path criteria
	URIContains    []string      `yaml:"uri_contains,omitempty"`
	Params         []ParamConfig `yaml:"params,omitempty"`
	URINotContains []string      `yaml:"uri_not_contains,omitempty"`
	PathExpr       string        `yaml:"path_expr,omitempty"`

	// Body criteria
	BodyContains    []string          `yaml:"body_contains,omitempty"`
	BodyNotContains []string          `yaml:"body_not_contains,omitempty"`
	BodyJSON        []JSONCheckConfig `yaml:"body_json,omitempty"`
	BodyExpr        string            `yaml:"body_expr,omitempty"`

	// Window bounds. Exactly one of each pair must be set; an explicit
	// zero offset means now.
	FromOffset *time.Duration `yaml:"from_offset,omitempty"`
	From       string         `yaml:"from,omitempty"`
	ToOffset   *time.Duration `yaml:"to_offset,omitempty"`
	To         string         `yaml:"to,omitempty"`

	// Verbose logs the outcome at info level.
	Verbose bool `yaml:"verbose,omitempty"`

	// Populated during validation
	paramPatterns []string
	from          window.Bound
	to            window.Bound
}

// ParamPatterns returns the path fragments built from Params.
func (c *CaseConfig) ParamPatterns() []string {
	return c.paramPatterns
}

// ParamConfig declares what one query parameter must look like.
// Exactly one intent must be set.
type ParamConfig struct {
	Name               string   `yaml:"name"`
	Exists             bool     `yaml:"exists,omitempty"`
	NonBlank           bool     `yaml:"non_blank,omitempty"`
	NonBlankNonNumeric bool     `yaml:"non_blank_non_numeric,omitempty"`
	PositiveInt        bool     `yaml:"positive_int,omitempty"`
	Integer            bool     `yaml:"integer,omitempty"`
	Equals             string   `yaml:"equals,omitempty"`
	OneOf              []string `yaml:"one_of,omitempty"`
	Contains           string   `yaml:"contains,omitempty"`
	ContainsAll        []string `yaml:"contains_all,omitempty"`
	ContainsOneOf      []string `yaml:"contains_one_of,omitempty"`
	Matches            string   `yaml:"matches,omitempty"`
}

// Spec converts the parameter to a pattern.Spec.
func (p ParamConfig) Spec() pattern.Spec {
	return pattern.Spec{
		Name:               p.Name,
		Exists:             p.Exists,
		NonBlank:           p.NonBlank,
		NonBlankNonNumeric: p.NonBlankNonNumeric,
		PositiveInt:        p.PositiveInt,
		Integer:            p.Integer,
		Equals:             p.Equals,
		OneOf:              p.OneOf,
		Contains:           p.Contains,
		ContainsAll:        p.ContainsAll,
		ContainsOneOf:      p.ContainsOneOf,
		Matches:            p.Matches,
	}
}

// JSONCheckConfig requires a JSONPath selection of the body to match a regex.
type JSONCheckConfig struct {
	Path    string `yaml:"path"`
	Pattern string `yaml:"pattern"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailure fires only when a case fails (default).
	WebhookTriggerOnFailure WebhookTrigger = "on_failure"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending run results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_failure" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
