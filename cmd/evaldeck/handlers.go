// handlers.go implements the command logic behind the cobra definitions.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/evaldeck/internal/config"
	"github.com/haasonsaas/evaldeck/internal/evals"
	"github.com/haasonsaas/evaldeck/internal/observability"
	"github.com/haasonsaas/evaldeck/internal/server"
	"github.com/haasonsaas/evaldeck/internal/store"
	"github.com/haasonsaas/evaldeck/internal/upstream"
)

// runServe implements the serve command: load config, assemble the server,
// run until a shutdown signal arrives.
func runServe(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger)

	logger.Info("starting evaldeck",
		"version", version,
		"commit", commit,
		"config", configPath,
		"http_port", cfg.Server.HTTPPort,
	)

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	srv.Stop(nil)
	logger.Info("server stopped")
	return nil
}

// submitOptions holds the submit command flags.
type submitOptions struct {
	ConfigPath     string
	Question       string
	Model          string
	RunID          string
	GuidelinesPath string
}

// runSubmit implements the submit command: one generation round trip plus
// an optional record write.
func runSubmit(ctx context.Context, out io.Writer, opts submitOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Upstream.URL == "" {
		return fmt.Errorf("upstream url is required (set upstream.url or EVAL_UPSTREAM_URL)")
	}

	client, err := upstream.New(upstream.Config{
		URL:          cfg.Upstream.URL,
		APIKey:       cfg.Upstream.APIKey,
		APIKeyHeader: cfg.Upstream.APIKeyHeader,
		Timeout:      cfg.Upstream.Timeout,
	})
	if err != nil {
		return fmt.Errorf("upstream client: %w", err)
	}

	var recordStore store.RecordStore
	if cfg.Store.Configured() {
		dynamoStore, err := store.NewDynamoStore(ctx, &store.DynamoConfig{
			TableName:       cfg.Store.TableName,
			Region:          cfg.Store.Region,
			Endpoint:        cfg.Store.Endpoint,
			AccessKeyID:     cfg.Store.AccessKeyID,
			SecretAccessKey: cfg.Store.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("record store: %w", err)
		}
		recordStore = dynamoStore
	}

	guidelines := evals.Guidelines{}
	if opts.GuidelinesPath != "" {
		data, err := os.ReadFile(opts.GuidelinesPath)
		if err != nil {
			return fmt.Errorf("read guidelines file: %w", err)
		}
		if err := yaml.Unmarshal(data, &guidelines); err != nil {
			return fmt.Errorf("parse guidelines file: %w", err)
		}
	}

	runID := opts.RunID
	if runID == "" {
		runID = "run-" + uuid.NewString()
	}

	runner := evals.NewRunner(client, recordStore, slog.Default(), nil)
	input := evals.SubmissionInput{
		Question:   opts.Question,
		ModelLabel: opts.Model,
		RunID:      runID,
		Guidelines: guidelines,
	}

	result, err := runner.Generate(ctx, input)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run:     %s\n", runID)
	fmt.Fprintf(out, "Status:  %d\n", result.StatusCode)
	fmt.Fprintf(out, "Latency: %dms\n", result.LatencyMs)
	fmt.Fprintf(out, "\n%s\n", result.Answer)

	skipped, err := runner.Record(ctx, input, result)
	if err != nil {
		return err
	}
	if skipped {
		fmt.Fprintln(out, "\n(record store not configured, result not persisted)")
	}
	return nil
}
