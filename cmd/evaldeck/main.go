// Package main provides the CLI entry point for the evaldeck evaluation
// dashboard.
//
// Evaldeck submits developer questions to a remote conversational agent,
// records the generated answers with round-trip latency in a DynamoDB
// table, and serves an HTTP API for browsing and analyzing past
// evaluations.
//
// # Basic Usage
//
// Start the dashboard server:
//
//	evaldeck serve --config evaldeck.yaml
//
// Submit a single question from the command line:
//
//	evaldeck submit --question "How do I rotate an API key?" --model "GPT 4o"
//
// # Environment Variables
//
//   - AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY: record store credentials
//   - AWS_REGION: record store region
//   - DYNAMO_ENDPOINT: local DynamoDB endpoint override
//   - EVAL_UPSTREAM_URL: agent-invocation endpoint
//   - EVAL_API_KEY: credential sent on agent-invocation requests
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "evaldeck",
		Short: "Evaldeck - LLM agent evaluation dashboard",
		Long: `Evaldeck submits questions to a remote conversational agent, records the
answers with latency, and serves an HTTP API for browsing past evaluations
grouped by question.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildSubmitCmd(),
		buildVersionCmd(),
	)

	return rootCmd
}
