package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tracecheck/pkg/config"
	"github.com/ccollicutt/tracecheck/pkg/eventlog"
	"github.com/ccollicutt/tracecheck/pkg/output"
	"github.com/ccollicutt/tracecheck/pkg/session"
	"github.com/ccollicutt/tracecheck/pkg/validator"
	"github.com/ccollicutt/tracecheck/pkg/webhook"
)

// RunOptions holds command-line options for the run command.
type RunOptions struct {
	Output  string
	Cases   []string
	Verbose bool
	Quiet   bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <config-file>",
		Short: "Validate a trace against the cases in a configuration file",
		Long: `Validate a network capture dump against every case defined in the
configuration file.

Each case polls the dump until its criteria are met or its time window
closes. Cases run one after another.

Exit codes:
  0 - All cases passed
  1 - At least one case failed
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args, opts)
		},
	}

	addOutputFlags(cmd, &opts.Output, &opts.Verbose, &opts.Quiet)
	cmd.Flags().StringSliceVar(&opts.Cases, "case", nil, "Run specific case(s) only (can be repeated)")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", "on_failure", "When to fire webhook (on_failure|always|never)")

	return cmd
}

func runRun(cmd *cobra.Command, args []string, opts *RunOptions) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	logger := newLogger(cmd)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cases, err := selectCases(cfg, opts.Cases)
	if err != nil {
		return err
	}

	formatter, err := createFormatter(opts.Output, opts.Verbose, opts.Quiet)
	if err != nil {
		return err
	}

	v, err := validator.New(cfg.ValidatorConfig(), validator.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating validator: %w", err)
	}

	start := time.Now()
	results := make([]*output.CaseResult, 0, len(cases))
	for _, c := range cases {
		results = append(results, runCase(ctx, cfg, v, c, logger))
	}

	report := output.NewReport(results, output.Metadata{
		ConfigFile: configPath,
		TraceFile:  cfg.TraceFile,
		Host:       cfg.Host,
		RanAt:      start,
		Duration:   time.Since(start),
	})

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Webhook failures are logged but don't fail the run
	webhook.NewClient().Dispatch(ctx, collectWebhooks(cfg, opts), report, logger)

	if report.HasFailures() {
		ExitCode = ExitFailed
	}

	return nil
}

// runCase validates one case inside its own session so every case gets an
// event log when event_log_dir is configured.
func runCase(ctx context.Context, cfg *config.Config, v *validator.Validator, c *config.CaseConfig, logger *slog.Logger) *output.CaseResult {
	sink, closeSink, err := openEventLog(cfg.EventLogDir, c.Name)
	if err != nil {
		return output.NewErrorResult(c.Name, c.Description, err)
	}
	defer closeSink()

	s := session.New(c.Name, nil, sink)
	s.Start(ctx, map[string]any{
		"case":       c.Name,
		"trace_file": cfg.TraceFile,
		"host":       cfg.Host,
	})
	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Warn("closing session", "case", c.Name, "error", err)
		}
	}()

	logger.Debug("running case", "case", c.Name)
	res, err := s.ValidateTrace(ctx, v, c.Request())
	if err != nil {
		return output.NewErrorResult(c.Name, c.Description, err)
	}
	return output.NewCaseResult(c.Name, c.Description, res)
}

func openEventLog(dir, name string) (eventlog.Sink, func(), error) {
	if dir == "" {
		return eventlog.New(io.Discard, name), func() {}, nil
	}
	l, err := eventlog.Open(dir, name)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Close() }, nil
}

// selectCases returns the cases named in filter, or all cases when filter is empty.
func selectCases(cfg *config.Config, filter []string) ([]*config.CaseConfig, error) {
	if len(filter) == 0 {
		cases := make([]*config.CaseConfig, len(cfg.Cases))
		for i := range cfg.Cases {
			cases[i] = &cfg.Cases[i]
		}
		return cases, nil
	}

	cases := make([]*config.CaseConfig, 0, len(filter))
	for _, name := range filter {
		c, ok := cfg.Case(name)
		if !ok {
			return nil, fmt.Errorf("unknown case %q", name)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *RunOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnFailure
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
