package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzleScope/internal/chain"
	"puzzleScope/internal/config"
	"puzzleScope/internal/indexer"
	"puzzleScope/internal/model"
	"puzzleScope/internal/storage"
	"puzzleScope/internal/storage/postgres"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Archive game contract logs to JSONL or Postgres",
		RunE:  runIndex,
	}

	flags := cmd.Flags()
	flags.Uint64("from", 0, "start block (inclusive)")
	flags.Uint64("to", 0, "end block (inclusive), 0 means latest")
	flags.StringSlice("events", nil, "event types to archive (comma-separated, default all)")
	flags.Uint64("batch-size", 2000, "blocks per batch")
	flags.String("sink", config.SinkJSONL, "archive sink (jsonl, postgres)")
	flags.String("out", "./data/game_logs.jsonl", "output JSONL path")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.Bool("migrate", false, "create Postgres tables before archiving")
	flags.String("checkpoint", "./data/checkpoint.json", "checkpoint file path (jsonl sink)")
	flags.Bool("checkpoint-enabled", true, "enable checkpointing")
	flags.String("checkpoint-name", "game_logs", "checkpoint row name (postgres sink)")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadIndex(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	addresses, err := cfg.Addresses()
	if err != nil {
		return err
	}
	events, err := indexer.ParseEventTypes(cfg.Events)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var (
		sink       storage.Storage
		checkpoint indexer.CheckpointStore
		pgStore    *postgres.Store
	)
	switch cfg.Sink {
	case config.SinkPostgres:
		pgStore, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer pgStore.Close()
		if cfg.Migrate {
			if err := pgStore.Migrate(ctx); err != nil {
				return err
			}
		}
		sink = pgStore
		if cfg.CheckpointEnabled {
			checkpoint = &indexer.DBCheckpoint{Store: pgStore, Name: cfg.CheckpointName}
		}
	default:
		sink = storage.NewJSONL(cfg.Out)
		if cfg.CheckpointEnabled {
			checkpoint = &indexer.FileCheckpoint{Path: cfg.Checkpoint}
		}
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:    cfg.FromBlock,
		ToBlock:      cfg.ToBlock,
		Contracts:    addresses,
		Events:       events,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, chainClient, sink, checkpoint, logger.Named("indexer"))

	logger.Info("index start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Int("events", len(events)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("sink", cfg.Sink),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	stats, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.Int("batches", stats.Batches),
		zap.Int("logs", stats.Logs),
		zap.Int("skipped", stats.Skipped),
		zap.Uint64("last_block", stats.LastBlock),
	}
	for _, activityType := range model.ActivityTypes {
		fields = append(fields, zap.Int(string(activityType), stats.ByType[activityType]))
	}
	logger.Info("index complete", fields...)

	if pgStore != nil {
		total, err := pgStore.CountLogs(ctx, "")
		if err != nil {
			logger.Warn("count archived logs", zap.Error(err))
		} else {
			logger.Info("archive size", zap.Int64("game_logs", total))
		}
	}
	return nil
}
