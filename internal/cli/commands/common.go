package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tracecheck/pkg/output"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// Exit codes
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitError  = 2
)

// LogLevelFlag is the persistent flag selecting the diagnostic log level.
const LogLevelFlag = "log-level"

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newLogger builds the stderr logger from the --log-level flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if f := cmd.Flag(LogLevelFlag); f != nil {
		switch strings.ToLower(f.Value.String()) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "error":
			level = slog.LevelError
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func createFormatter(format string, verbose, quiet bool) (output.Formatter, error) {
	f := output.NewFormatter(format, output.FormatOptions{
		Verbose: verbose,
		Quiet:   quiet,
	})
	if f == nil {
		return nil, fmt.Errorf("unknown output format %q (use text or json)", format)
	}
	return f, nil
}

func addOutputFlags(cmd *cobra.Command, format *string, verbose, quiet *bool) {
	cmd.Flags().StringVarP(format, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(verbose, "verbose", "v", false, "Show every diagnostic and the matched trace line")
	cmd.Flags().BoolVarP(quiet, "quiet", "q", false, "Summary only, no details")
}
