package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/tracecheck/pkg/config"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config-file>",
		Short: "Check a configuration file",
		Long: `Check a tracecheck configuration file without running validation.

Checks:
  - YAML syntax
  - Required fields
  - Time zone and window bounds
  - Pattern, JSONPath and expression validity
  - Trace file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Checking %s...\n", configPath)

	// Load and validate config
	cfg, err := config.Load(commandContext(cmd), configPath)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	// Report what we found
	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Trace file: %s\n", cfg.TraceFile)
	fmt.Fprintf(w, "  Host:       %s\n", cfg.Host)
	fmt.Fprintf(w, "  Time zone:  %s\n", cfg.Location())
	fmt.Fprintf(w, "  Cases:      %d\n", len(cfg.Cases))

	// List cases
	fmt.Fprintf(w, "\nCases:\n")
	for i := range cfg.Cases {
		c := &cfg.Cases[i]
		req := c.Request()
		fmt.Fprintf(w, "  %d. %s (%d check(s), from %s to %s)\n", i+1, c.Name, len(req.AllChecks()), req.From, req.To)
		if c.Description != "" {
			fmt.Fprintf(w, "     %s\n", c.Description)
		}
	}

	// Trace file existence is a warning only; the capture may not have started yet
	if _, err := os.Stat(cfg.TraceFile); err != nil {
		fmt.Fprintf(w, "\nWarning: trace file not readable: %v\n", err)
	}

	return nil
}
