// commands.go contains the cobra command definitions and their flag
// configurations. Each builder creates a command and wires it to its
// handler.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command that starts the dashboard
// server.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation dashboard server",
		Long: `Start the evaluation dashboard HTTP server.

The server exposes the evaluation record API, the agent-invocation proxy,
the analytics views, plus /healthz and /metrics. Graceful shutdown is
handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  evaldeck serve

  # Start with custom config
  evaldeck serve --config /etc/evaldeck/production.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "evaldeck.yaml",
		"Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

// buildSubmitCmd creates the "submit" command that runs one evaluation
// from the terminal.
func buildSubmitCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a question to the agent and record the evaluation",
		Long: `Submit one developer question to the configured agent endpoint, print
the generated answer with its round-trip latency, and record the result
in the evaluation table when a record store is configured.`,
		Example: `  # Submit with the default prompt configuration
  evaldeck submit --question "How do I rotate an API key?"

  # Submit with a model label and guideline file
  evaldeck submit --question "..." --model "GPT 4o" --guidelines prompts.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "evaldeck.yaml",
		"Path to YAML configuration file")
	cmd.Flags().StringVarP(&opts.Question, "question", "q", "",
		"Developer question to submit (required)")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "",
		"Model label to request (e.g. \"GPT 4o\")")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "",
		"Run identifier grouping this batch (default: generated)")
	cmd.Flags().StringVarP(&opts.GuidelinesPath, "guidelines", "g", "",
		"Path to a YAML file with prompt guideline fields")
	_ = cmd.MarkFlagRequired("question")

	return cmd
}

// buildVersionCmd creates the "version" command.
func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "evaldeck %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
