package config

import (
	"os"
	"time"

	"github.com/ccollicutt/tracecheck/pkg/validator"
)

// Default values for configuration.
const (
	DefaultTraceFile      = "./dump.txt"
	DefaultTimeZone       = "UTC"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvTraceFile = "TRACECHECK_TRACE_FILE"
	EnvHost      = "TRACECHECK_HOST"
	EnvTimeZone  = "TRACECHECK_TIME_ZONE"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TraceFile:    DefaultTraceFile,
		TimeZone:     DefaultTimeZone,
		PollInterval: validator.DefaultPollInterval,
		MaxPassRate:  validator.DefaultMaxPassRate,
		Cases:        []CaseConfig{},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if path := os.Getenv(EnvTraceFile); path != "" {
		c.TraceFile = path
	}
	if host := os.Getenv(EnvHost); host != "" {
		c.Host = host
	}
	if tz := os.Getenv(EnvTimeZone); tz != "" {
		c.TimeZone = tz
	}
}
