// Package validator checks that a network capture dump contains (or does
// not contain) requests matching given criteria within a time window.
//
// Validation re-reads the dump on every pass, so requests captured while a
// validation is running are picked up. A Validator holds only immutable
// configuration and may be shared by goroutines.
package validator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ccollicutt/tracecheck/pkg/predicate"
	"github.com/ccollicutt/tracecheck/pkg/trace"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

var (
	// ErrNotInitialized is returned by Validate on a Validator not built by New.
	ErrNotInitialized = errors.New("validator is not initialized: build it with validator.New")

	// ErrNoCriteria is returned when a request has nothing to check.
	ErrNoCriteria = errors.New("request has no match criteria")

	// ErrMissingTraceFile is returned by New when no trace file or source is given.
	ErrMissingTraceFile = errors.New("trace file is required")

	// ErrMissingHost is returned by New when no host filter is given.
	ErrMissingHost = errors.New("host is required")

	// ErrUnknownField is returned when a check names an unsupported field.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownExpectation is returned when a check has an unsupported polarity.
	ErrUnknownExpectation = errors.New("unknown expectation")
)

const (
	// DefaultPollInterval is the wait between passes over the trace.
	DefaultPollInterval = time.Second

	// DefaultMaxPassRate caps passes per second triggered by file changes.
	DefaultMaxPassRate = 4.0
)

// Config holds validator settings.
type Config struct {
	// TraceFile is the capture dump to read.
	TraceFile string

	// Host keeps only requests sent to this host.
	Host string

	// Location is the time zone dump timestamps are written in. Defaults to UTC.
	Location *time.Location

	// PollInterval is the wait between passes. Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// Watch starts the next pass as soon as the dump is written to.
	Watch bool

	// MaxPassRate caps watcher-triggered passes per second.
	MaxPassRate float64
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used for the window and between passes.
func WithClock(c Clock) Option {
	return func(v *Validator) {
		v.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// WithSource reads records from src instead of Config.TraceFile.
func WithSource(src trace.Source) Option {
	return func(v *Validator) {
		v.source = src
	}
}

// Validator checks trace dumps against requests.
type Validator struct {
	cfg    Config
	clock  Clock
	logger *slog.Logger
	source trace.Source
}

// New creates a Validator from cfg.
func New(cfg Config, opts ...Option) (*Validator, error) {
	v := &Validator{
		clock:  RealClock{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}

	if cfg.Host == "" {
		return nil, ErrMissingHost
	}
	if cfg.TraceFile == "" && v.source == nil {
		return nil, ErrMissingTraceFile
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPassRate <= 0 {
		cfg.MaxPassRate = DefaultMaxPassRate
	}
	v.cfg = cfg

	if v.source == nil {
		v.source = trace.NewFileSource(cfg.TraceFile, trace.NewParser(cfg.Host, cfg.Location))
	}
	return v, nil
}

// Config returns the validator configuration with defaults applied.
func (v *Validator) Config() Config {
	return v.cfg
}

// Validate polls the trace until every check in req is decided or the
// request window expires. A failed validation is reported through
// Result.Passed; errors are reserved for invalid requests, unreadable
// traces and cancellation.
func (v *Validator) Validate(ctx context.Context, req Request) (*Result, error) {
	if v == nil || v.source == nil {
		return nil, ErrNotInitialized
	}

	checks, err := compileChecks(req.AllChecks())
	if err != nil {
		return nil, err
	}

	started := v.clock.Now().In(v.cfg.Location)
	w, err := window.Resolve(started, req.From, req.To)
	if err != nil {
		return nil, err
	}

	p, closeWatch := v.newPoller()
	defer closeWatch()

	result := &Result{
		Started: started,
		Window:  w,
	}
	for _, c := range checks {
		cr, err := p.poll(ctx, w, c)
		if err != nil {
			return nil, err
		}
		result.Checks = append(result.Checks, cr)
	}

	result.Finished = v.clock.Now().In(v.cfg.Location)
	var diags predicate.Diagnostics
	for _, cr := range result.Failed() {
		diags.Add(cr.Diagnostic())
	}
	result.Passed = len(result.Failed()) == 0
	result.Diagnostic = diags.Best()

	v.logResult(ctx, req, result)
	return result, nil
}

func compileChecks(checks []Check) ([]compiledCheck, error) {
	if len(checks) == 0 {
		return nil, ErrNoCriteria
	}

	out := make([]compiledCheck, 0, len(checks))
	for i, c := range checks {
		switch c.Field {
		case FieldPath, FieldBody:
		default:
			return nil, fmt.Errorf("checks[%d] (%s): %w %q", i, c.Name, ErrUnknownField, c.Field)
		}
		switch c.Expect {
		case Present, Absent:
		default:
			return nil, fmt.Errorf("checks[%d] (%s): %w %q", i, c.Name, ErrUnknownExpectation, c.Expect)
		}

		m, err := predicate.Compile(c.Rule)
		if err != nil {
			return nil, fmt.Errorf("checks[%d] (%s): %w", i, c.Name, err)
		}
		out = append(out, compiledCheck{Check: c, matcher: m})
	}
	return out, nil
}

// newPoller builds the per-call poller. The returned func stops the file
// watcher, if one was started.
func (v *Validator) newPoller() (*poller, func()) {
	p := &poller{
		source:   v.source,
		clock:    v.clock,
		interval: v.cfg.PollInterval,
		logger:   v.logger,
	}
	if !v.cfg.Watch || v.cfg.TraceFile == "" {
		return p, func() {}
	}

	w, err := trace.NewWatcher(v.cfg.TraceFile)
	if err != nil {
		v.logger.Warn("trace watch disabled, polling only", "file", v.cfg.TraceFile, "error", err)
		return p, func() {}
	}
	p.wake = w.Wake()
	p.limiter = rate.NewLimiter(rate.Limit(v.cfg.MaxPassRate), 1)
	return p, func() { _ = w.Close() }
}

func (v *Validator) logResult(ctx context.Context, req Request, r *Result) {
	level := slog.LevelDebug
	if req.Verbose {
		level = slog.LevelInfo
	}

	msg := "trace validation succeeded"
	if !r.Passed {
		msg = "trace validation failed"
	}

	attrs := []any{
		"host", v.cfg.Host,
		"window", r.Window.String(),
		"started", r.Started.Format(window.TimestampLayout),
		"now", r.Finished.Format(window.TimestampLayout),
	}
	for _, c := range r.Checks {
		attrs = append(attrs, slog.Group(c.Name,
			"rule", c.Rule,
			"passed", c.Passed,
			"passes", c.Passes))
	}
	if !r.Passed {
		attrs = append(attrs, "diagnostic", r.Diagnostic)
	}
	v.logger.Log(ctx, level, msg, attrs...)
}
