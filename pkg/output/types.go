// Package output provides formatting and output generation for validation results.
package output

import (
	"time"

	"github.com/ccollicutt/tracecheck/pkg/validator"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// Report is the complete output of a run.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Results contains the outcome of each case.
	Results []*CaseResult

	// Metadata provides context about the run.
	Metadata Metadata
}

// Summary provides aggregate statistics.
type Summary struct {
	// CasesRun is the number of cases that were validated.
	CasesRun int

	// CasesFailed is the number of cases that failed or errored.
	CasesFailed int

	// ChecksRun is the number of checks polled across all cases.
	ChecksRun int

	// ChecksFailed is the number of checks that failed.
	ChecksFailed int
}

// Metadata provides context about the run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string

	// TraceFile is the capture dump that was validated.
	TraceFile string

	// Host is the host filter that was applied.
	Host string

	// RanAt is when the run started.
	RanAt time.Time

	// Duration is how long the run took.
	Duration time.Duration
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name        string
	Description string
	Passed      bool

	// Error is set when the case could not be validated at all.
	Error string

	Window     window.Window
	Diagnostic string
	Checks     []*validator.CheckResult
}

// NewCaseResult creates a CaseResult from a validation result.
func NewCaseResult(name, description string, res *validator.Result) *CaseResult {
	return &CaseResult{
		Name:        name,
		Description: description,
		Passed:      res.Passed,
		Window:      res.Window,
		Diagnostic:  res.Diagnostic,
		Checks:      res.Checks,
	}
}

// NewErrorResult creates a failed CaseResult for a case that errored.
func NewErrorResult(name, description string, err error) *CaseResult {
	return &CaseResult{
		Name:        name,
		Description: description,
		Error:       err.Error(),
	}
}

// NewReport creates a Report from case results.
func NewReport(results []*CaseResult, meta Metadata) *Report {
	report := &Report{
		Results:  results,
		Metadata: meta,
	}

	for _, r := range results {
		report.Summary.CasesRun++
		if !r.Passed {
			report.Summary.CasesFailed++
		}
		for _, c := range r.Checks {
			report.Summary.ChecksRun++
			if !c.Passed {
				report.Summary.ChecksFailed++
			}
		}
	}

	return report
}

// HasFailures returns true if any case failed.
func (r *Report) HasFailures() bool {
	return r.Summary.CasesFailed > 0
}
