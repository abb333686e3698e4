package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tracecheck/pkg/config"
	"github.com/ccollicutt/tracecheck/pkg/output"
	"github.com/ccollicutt/tracecheck/pkg/validator"
	"github.com/ccollicutt/tracecheck/pkg/window"
)

// ValidateOptions holds command-line options for an ad-hoc validation.
type ValidateOptions struct {
	TraceFile    string
	Host         string
	TimeZone     string
	UTCOffset    string
	PollInterval time.Duration
	Watch        bool

	URIContains     []string
	URINotContains  []string
	BodyContains    []string
	BodyNotContains []string
	Origin          string

	FromOffset time.Duration
	ToOffset   time.Duration
	From       string
	To         string

	Output  string
	Verbose bool
	Quiet   bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a trace against criteria given on the command line",
		Long: `Run a single validation without a configuration file.

Patterns are regular expressions. Repeat a flag to require several patterns;
commas inside a pattern are kept as-is.

Example:
  tracecheck validate --trace dump.txt --host api.example.com \
    --uri-contains 'event=login' --uri-not-contains 'debug=1' \
    --from-offset 30s --to-offset 2m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.TraceFile, "trace", config.DefaultTraceFile, "Capture dump to read")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Host whose requests are validated (required)")
	cmd.Flags().StringVar(&opts.TimeZone, "time-zone", "", "IANA time zone of the dump timestamps")
	cmd.Flags().StringVar(&opts.UTCOffset, "utc-offset", "", "Fixed UTC offset of the dump timestamps, e.g. +03:00")
	cmd.Flags().DurationVar(&opts.PollInterval, "poll-interval", validator.DefaultPollInterval, "Delay between passes over the dump")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-read the dump as soon as it changes")

	cmd.Flags().StringArrayVar(&opts.URIContains, "uri-contains", nil, "Pattern the request path must contain (repeatable)")
	cmd.Flags().StringArrayVar(&opts.URINotContains, "uri-not-contains", nil, "Pattern the request path must not contain (repeatable)")
	cmd.Flags().StringArrayVar(&opts.BodyContains, "body-contains", nil, "Pattern the request body must contain (repeatable)")
	cmd.Flags().StringArrayVar(&opts.BodyNotContains, "body-not-contains", nil, "Pattern the request body must not contain (repeatable)")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "Literal path substring, validated in a window around now")

	cmd.Flags().DurationVar(&opts.FromOffset, "from-offset", 0, "How far before now the window starts, e.g. 30s")
	cmd.Flags().DurationVar(&opts.ToOffset, "to-offset", 0, "How far after now the window ends, e.g. 2m")
	cmd.Flags().StringVar(&opts.From, "from", "", "Absolute window start (2006-01-02 15:04:05)")
	cmd.Flags().StringVar(&opts.To, "to", "", "Absolute window end (2006-01-02 15:04:05)")

	addOutputFlags(cmd, &opts.Output, &opts.Verbose, &opts.Quiet)

	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions) error {
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

	req, err := opts.request(loc)
	if err != nil {
		return err
	}

	v, err := validator.New(validator.Config{
		TraceFile:    opts.TraceFile,
		Host:         opts.Host,
		Location:     loc,
		PollInterval: opts.PollInterval,
		Watch:        opts.Watch,
	}, validator.WithLogger(logger))
	if err != nil {
		return err
	}

	start := time.Now()
	var result *output.CaseResult
	res, err := v.Validate(ctx, req)
	if err != nil {
		result = output.NewErrorResult("validate", "", err)
	} else {
		result = output.NewCaseResult("validate", "", res)
	}

	report := output.NewReport([]*output.CaseResult{result}, output.Metadata{
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

// request builds the validator request from the flags.
func (o *ValidateOptions) request(loc *time.Location) (validator.Request, error) {
	var req validator.Request
	if o.Origin != "" {
		req = validator.OriginRequest(o.Origin, 0)
	}
	req.URIContains = append(req.URIContains, o.URIContains...)
	req.URINotContains = o.URINotContains
	req.BodyContains = o.BodyContains
	req.BodyNotContains = o.BodyNotContains
	req.Verbose = o.Verbose

	if len(req.AllChecks()) == 0 {
		return req, validator.ErrNoCriteria
	}

	from, set, err := flagBound("from", o.FromOffset, o.From, loc)
	if err != nil {
		return req, err
	}
	if set {
		req.From = from
	}

	to, set, err := flagBound("to", o.ToOffset, o.To, loc)
	if err != nil {
		return req, err
	}
	if set {
		req.To = to
	}
	return req, nil
}

// flagBound turns an offset or absolute flag pair into a window bound.
func flagBound(name string, offset time.Duration, at string, loc *time.Location) (window.Bound, bool, error) {
	switch {
	case offset != 0 && at != "":
		return window.Bound{}, false, fmt.Errorf("--%s and --%s-offset are mutually exclusive", name, name)
	case at != "":
		t, err := window.ParseTimestamp(at, loc)
		if err != nil {
			return window.Bound{}, false, fmt.Errorf("--%s: %w", name, err)
		}
		return window.At(t), true, nil
	case offset != 0:
		return window.Offset(offset), true, nil
	default:
		return window.Bound{}, false, nil
	}
}
