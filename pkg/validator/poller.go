package validator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ccollicutt/tracecheck/pkg/predicate"
	"github.com/ccollicutt/tracecheck/pkg/trace"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// compiledCheck is a Check with its rule compiled.
type compiledCheck struct {
	Check
	matcher *predicate.Matcher
}

func (c compiledCheck) value(rec trace.Record) string {
	if c.Field == FieldBody {
		return rec.Body
	}
	return rec.Path
}

// poller re-scans the trace until a check is decided or its window expires.
type poller struct {
	source   trace.Source
	clock    Clock
	interval time.Duration
	wake     <-chan struct{}
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// poll runs passes over the trace for one check. At least one pass always
// runs, so windows that lie entirely in the past are still evaluated.
func (p *poller) poll(ctx context.Context, w window.Window, c compiledCheck) (*CheckResult, error) {
	res := &CheckResult{
		Name:   c.Name,
		Field:  c.Field,
		Expect: c.Expect,
		Rule:   c.Rule.String(),
	}

	var diags predicate.Diagnostics
	for {
		res.Passes++
		diags.Reset()

		decided, examined, err := p.pass(ctx, w, c, &diags)
		if err != nil {
			return nil, err
		}
		res.Examined = examined

		p.logger.Debug("trace pass complete",
			"check", c.Name,
			"pass", res.Passes,
			"examined", examined,
			"decided", decided != nil)

		if decided != nil {
			res.Record = decided
			res.Passed = c.Expect == Present
			if !res.Passed {
				res.Diagnostics = diags.All()
			}
			return res, nil
		}

		if !p.clock.Now().Before(w.To) {
			break
		}
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
	}

	if c.Expect == Absent {
		res.Passed = true
		return res, nil
	}

	if diags.Len() == 0 {
		diags.Add(fmt.Sprintf("no trace record inside window %s satisfied %s", w, c.Rule))
	}
	res.Diagnostics = diags.All()
	return res, nil
}

// pass scans the trace once. It returns the record that decides the check,
// or nil when no record in the window did.
func (p *poller) pass(ctx context.Context, w window.Window, c compiledCheck, diags *predicate.Diagnostics) (*trace.Record, int, error) {
	var decided *trace.Record
	examined := 0

	err := p.source.Scan(ctx, func(rec trace.Record) bool {
		if !w.Contains(rec.Timestamp) {
			return true
		}
		examined++

		ok, why := c.matcher.Match(c.value(rec))
		switch c.Expect {
		case Absent:
			if !ok {
				diags.Add(fmt.Sprintf("%s (line %d)", why, rec.Line))
				decided = &rec
				return false
			}
		default:
			if ok {
				decided = &rec
				return false
			}
			diags.Add(why)
		}
		return true
	})
	if err != nil {
		return nil, examined, err
	}
	return decided, examined, nil
}

// wait blocks until the poll interval elapses, the trace file changes or
// ctx is done. Change notifications beyond the limiter's rate are ignored
// and the poll interval decides instead.
func (p *poller) wait(ctx context.Context) error {
	timer := p.clock.After(p.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer:
			return nil
		case <-p.wake:
			if p.limiter == nil || p.limiter.Allow() {
				return nil
			}
		}
	}
}
