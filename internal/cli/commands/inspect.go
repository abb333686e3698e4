package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tracecheck/pkg/trace"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// clockSkewTolerance is how far past now the newest record may be before
// the time zone is reported as suspect.
const clockSkewTolerance = 5 * time.Minute

// staleAfter is the age at which the newest record suggests the capture stopped.
const staleAfter = 24 * time.Hour

// InspectOptions holds options for the inspect command.
type InspectOptions struct {
	Host      string
	TimeZone  string
	UTCOffset string
	Verbose   bool
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <trace-file>",
		Short: "Summarize what the parser sees in a capture dump",
		Long: `Summarize a capture dump: how many lines parse, why the others were
skipped, which hosts appear and the time span of the records.

Example:
  tracecheck inspect dump.txt --host api.example.com --time-zone EST`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := window.Location(opts.TimeZone, opts.UTCOffset)
			if err != nil {
				return err
			}
			results := checkTrace(commandContext(cmd), args[0], opts.Host, loc, time.Now())
			printDiagnostics(cmd.OutOrStdout(), results, &DiagnoseOptions{Verbose: opts.Verbose})
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host to look for")
	cmd.Flags().StringVar(&opts.TimeZone, "time-zone", "", "IANA time zone of the dump timestamps")
	cmd.Flags().StringVar(&opts.UTCOffset, "utc-offset", "", "Fixed UTC offset of the dump timestamps, e.g. +03:00")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

// checkTrace reports on the trace file, its format, the host filter and
// the time span of its records. An empty host skips the host check.
func checkTrace(ctx context.Context, path, host string, loc *time.Location, now time.Time) []DiagnosticResult {
	result := checkTraceFile(path)
	if result.Status == StatusError {
		return []DiagnosticResult{result}
	}
	results := []DiagnosticResult{result}

	sum, err := trace.NewFileSource(path, trace.NewParser(host, loc)).Inspect(ctx)
	if err != nil {
		return append(results, DiagnosticResult{
			Check:   "Trace Format",
			Status:  StatusError,
			Message: fmt.Sprintf("Cannot read trace: %v", err),
		})
	}

	results = append(results, checkTraceFormat(sum))
	if host != "" {
		results = append(results, checkHost(sum, host))
	}
	results = append(results, checkTimestamps(sum, loc, now))
	return results
}

func checkTraceFile(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Trace File: %s", path),
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = "File does not exist"
		result.Suggests = []string{
			"Check that the capture is running and writing to this path",
		}
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
	case info.Size() == 0:
		result.Status = StatusWarning
		result.Message = "File is empty (0 bytes)"
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
	}
	return result
}

func checkTraceFormat(sum *trace.Summary) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Trace Format",
	}

	malformed := sum.Skipped[trace.SkipTooFewFields] + sum.Skipped[trace.SkipBadTimestamp]
	wellFormed := sum.Lines - malformed

	for _, skip := range []trace.Skip{trace.SkipTooFewFields, trace.SkipBadTimestamp, trace.SkipHostMismatch} {
		if n := sum.Skipped[skip]; n > 0 {
			result.Details = append(result.Details, fmt.Sprintf("%s: %d line(s)", skip, n))
		}
	}

	switch {
	case sum.Lines == 0:
		result.Status = StatusWarning
		result.Message = "No lines to read"
	case wellFormed == 0:
		result.Status = StatusError
		result.Message = fmt.Sprintf("None of %d line(s) match the capture format", sum.Lines)
		result.Suggests = []string{
			"Each line needs date, time, host, path and body columns",
		}
	case malformed > 0:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d of %d line(s) are well formed", wellFormed, sum.Lines)
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("All %d line(s) are well formed", sum.Lines)
	}
	return result
}

func checkHost(sum *trace.Summary, host string) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Host: %s", host),
	}

	if sum.Parsed > 0 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d record(s) for this host", sum.Parsed)
		return result
	}

	result.Status = StatusError
	result.Message = "No records for this host"
	for _, h := range topHosts(sum.Hosts, 5) {
		result.Details = append(result.Details, fmt.Sprintf("%s: %d line(s)", h, sum.Hosts[h]))
	}
	if len(result.Details) > 0 {
		result.Suggests = []string{"Set host to one of the hosts seen in the dump"}
	}
	return result
}

func checkTimestamps(sum *trace.Summary, loc *time.Location, now time.Time) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Timestamps",
	}

	if sum.Last.IsZero() {
		result.Status = StatusWarning
		result.Message = "No timestamps to check"
		return result
	}

	result.Details = []string{
		fmt.Sprintf("First: %s", sum.First.Format(window.TimestampLayout)),
		fmt.Sprintf("Last: %s", sum.Last.Format(window.TimestampLayout)),
		fmt.Sprintf("Now: %s", now.In(loc).Format(window.TimestampLayout)),
	}

	switch {
	case sum.Last.Sub(now) > clockSkewTolerance:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Newest record is %s in the future", sum.Last.Sub(now).Round(time.Second))
		result.Suggests = []string{
			fmt.Sprintf("Timestamps are read as %s; check time_zone or utc_offset", loc),
		}
	case now.Sub(sum.Last) > staleAfter:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Newest record is %s old", now.Sub(sum.Last).Round(time.Minute))
		result.Suggests = []string{"Check that the capture is still running"}
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Records span %s", sum.Last.Sub(sum.First).Round(time.Second))
	}
	return result
}

// topHosts returns up to n hosts ordered by line count, then name.
func topHosts(hosts map[string]int, n int) []string {
	names := make([]string, 0, len(hosts))
	for h := range hosts {
		names = append(names, h)
	}
	sort.Slice(names, func(i, j int) bool {
		if hosts[names[i]] != hosts[names[j]] {
			return hosts[names[i]] > hosts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
