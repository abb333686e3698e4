package validator

import (
	"time"

	"github.com/ccollicutt/tracecheck/pkg/predicate"
	"github.com/ccollicutt/tracecheck/pkg/trace"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// CheckResult is the outcome of polling one check.
type CheckResult struct {
	Name   string
	Field  Field
	Expect Expectation
	Rule   string

	// Passed reports whether the check succeeded.
	Passed bool

	// Passes is the number of times the trace was scanned.
	Passes int

	// Examined is the number of in-window records seen on the last pass.
	Examined int

	// Record is the record that decided the check: the match for Present
	// checks, the violation for Absent checks. Nil on expiry.
	Record *trace.Record

	// Diagnostics explains the last pass of a failed check.
	Diagnostics []string
}

// Diagnostic returns the most specific explanation for a failed check.
func (c *CheckResult) Diagnostic() string {
	var diags predicate.Diagnostics
	for _, d := range c.Diagnostics {
		diags.Add(d)
	}
	return diags.Best()
}

// Result is the outcome of a validation.
type Result struct {
	// Passed is true when every check passed.
	Passed bool

	Started  time.Time
	Finished time.Time
	Window   window.Window

	Checks []*CheckResult

	// Diagnostic is the most specific explanation across failed checks.
	Diagnostic string
}

// Failed returns the checks that did not pass.
func (r *Result) Failed() []*CheckResult {
	var failed []*CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}
