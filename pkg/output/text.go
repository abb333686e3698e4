package output

import (
	"context"
	"fmt"
	"io"

	"github.com/ccollicutt/tracecheck/pkg/validator"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "tracecheck: %d cases run, %d failed\n",
		report.Summary.CasesRun,
		report.Summary.CasesFailed)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== tracecheck Validation Report ===")
	fmt.Fprintln(w)

	for _, result := range report.Results {
		f.formatCase(result, w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d cases run, %d failed, %d checks run, %d failed\n",
		report.Summary.CasesRun,
		report.Summary.CasesFailed,
		report.Summary.ChecksRun,
		report.Summary.ChecksFailed)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Trace: %s (host %s)\n", report.Metadata.TraceFile, report.Metadata.Host)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatCase(result *CaseResult, w io.Writer) {
	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(w, "[%s] %s\n", status, result.Name)

	if f.opts.Verbose {
		if result.Description != "" {
			fmt.Fprintf(w, "  %s\n", result.Description)
		}
		if result.Error == "" {
			fmt.Fprintf(w, "  Window: %s\n", result.Window)
		}
	}

	if result.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", result.Error)
		fmt.Fprintln(w)
		return
	}

	for _, c := range result.Checks {
		f.formatCheck(c, w)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatCheck(c *validator.CheckResult, w io.Writer) {
	if c.Passed {
		fmt.Fprintf(w, "  %s: passed (%d pass(es), %d record(s) examined)\n", c.Name, c.Passes, c.Examined)
		if f.opts.Verbose && c.Record != nil {
			fmt.Fprintf(w, "    Matched line %d: %s\n", c.Record.Line, c.Record.Path)
		}
		return
	}

	fmt.Fprintf(w, "  %s: failed after %d pass(es)\n", c.Name, c.Passes)
	if !f.opts.Verbose {
		if d := c.Diagnostic(); d != "" {
			fmt.Fprintf(w, "    - %s\n", d)
		}
		return
	}

	fmt.Fprintf(w, "    Rule: %s\n", c.Rule)
	for _, d := range c.Diagnostics {
		fmt.Fprintf(w, "    - %s\n", d)
	}
}
