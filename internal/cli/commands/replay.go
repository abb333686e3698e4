package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tracecheck/pkg/config"
	"github.com/ccollicutt/tracecheck/pkg/eventlog"
	"github.com/ccollicutt/tracecheck/pkg/output"
	"github.com/ccollicutt/tracecheck/pkg/validator"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// DefaultReplaySlack is the window half-width used for validation events
// that did not record their window.
const DefaultReplaySlack = 60 * time.Second

// ReplayOptions holds options for the replay command.
type ReplayOptions struct {
	TraceFile string
	Host      string
	TimeZone  string
	UTCOffset string
	Slack     time.Duration

	Output  string
	Verbose bool
	Quiet   bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand() *cobra.Command {
	opts := &ReplayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <event-log>",
		Short: "Re-run the validations recorded in an event log",
		Long: `Re-run every validation event in an event log against a capture dump.

Each validation is checked in the window it originally used. Events
without a recorded window use the event time plus or minus --slack.

Example:
  tracecheck replay events/login.log --trace dump.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.TraceFile, "trace", config.DefaultTraceFile, "Capture dump to read")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Host for events that did not record one")
	cmd.Flags().StringVar(&opts.TimeZone, "time-zone", "", "IANA time zone of the dump timestamps")
	cmd.Flags().StringVar(&opts.UTCOffset, "utc-offset", "", "Fixed UTC offset of the dump timestamps, e.g. +03:00")
	cmd.Flags().DurationVar(&opts.Slack, "slack", DefaultReplaySlack, "Window half-width for events without a recorded window")
	addOutputFlags(cmd, &opts.Output, &opts.Verbose, &opts.Quiet)

	return cmd
}

func runReplay(cmd *cobra.Command, logPath string, opts *ReplayOptions) error {
	ctx := commandContext(cmd)
	logger := newLogger(cmd)

	formatter, err := createFormatter(opts.Output, opts.Verbose, opts.Quiet)
	if err != nil {
		return err
	}

	loc, err := window.Location(opts.TimeZone, opts.UTCOffset)
	if err != nil {
		return err
	}

	f, err := os.Open(logPath) // #nosec G304 -- user-provided event log path is expected
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	validators := make(map[string]*validator.Validator)
	start := time.Now()
	var results []*output.CaseResult

	reader := eventlog.NewReader(f)
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}
		if ev.Type != eventlog.TypeValidation {
			continue
		}

		name := fmt.Sprintf("%s:%d", ev.Test, ev.Line)
		data, err := ev.Validation()
		if err != nil {
			results = append(results, output.NewErrorResult(name, "", err))
			continue
		}

		host := data.Host
		if host == "" {
			host = opts.Host
		}
		v, ok := validators[host]
		if !ok {
			v, err = validator.New(validator.Config{
				TraceFile: opts.TraceFile,
				Host:      host,
				Location:  loc,
			}, validator.WithLogger(logger))
			if err != nil {
				results = append(results, output.NewErrorResult(name, recordedOutcome(data), err))
				continue
			}
			validators[host] = v
		}

		req, err := replayRequest(ev, data, loc, opts.Slack)
		if err != nil {
			results = append(results, output.NewErrorResult(name, recordedOutcome(data), err))
			continue
		}

		res, err := v.Validate(ctx, req)
		if err != nil {
			results = append(results, output.NewErrorResult(name, recordedOutcome(data), err))
			continue
		}
		results = append(results, output.NewCaseResult(name, recordedOutcome(data), res))
	}

	if len(results) == 0 {
		return fmt.Errorf("no validation events in %s", logPath)
	}

	report := output.NewReport(results, output.Metadata{
		TraceFile: opts.TraceFile,
		Host:      opts.Host,
		RanAt:     start,
		Duration:  time.Since(start),
	})
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if report.HasFailures() {
		ExitCode = ExitFailed
	}
	return nil
}

// replayRequest rebuilds the request of a recorded validation. The
// recorded window is used when present.
func replayRequest(ev *eventlog.LoggedEvent, data *eventlog.ValidationData, loc *time.Location, slack time.Duration) (validator.Request, error) {
	req := validator.Request{
		URIContains:     data.URIContains,
		URINotContains:  data.URINotContains,
		BodyContains:    data.BodyContains,
		BodyNotContains: data.BodyNotContains,
		From:            window.At(ev.Time.Add(-slack)),
		To:              window.At(ev.Time.Add(slack)),
	}

	if data.From != "" {
		t, err := window.ParseTimestamp(data.From, loc)
		if err != nil {
			return req, fmt.Errorf("recorded from: %w", err)
		}
		req.From = window.At(t)
	}
	if data.To != "" {
		t, err := window.ParseTimestamp(data.To, loc)
		if err != nil {
			return req, fmt.Errorf("recorded to: %w", err)
		}
		req.To = window.At(t)
	}
	return req, nil
}

func recordedOutcome(data *eventlog.ValidationData) string {
	switch {
	case data.Passed == nil:
		return "recorded outcome unknown"
	case *data.Passed:
		return "recorded as passed"
	default:
		return "recorded as failed"
	}
}
