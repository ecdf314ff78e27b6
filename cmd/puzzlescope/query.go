package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"puzzleScope/internal/activity"
	"puzzleScope/internal/config"
	"puzzleScope/internal/model"
)

type queryFunc func(ctx context.Context, r *activity.Reconstructor, cfg config.QueryConfig, address string) (interface{}, error)

func newQueryCmd(use, short string, run queryFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <address>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], run)
		},
	}
	addCacheFlags(cmd.Flags())
	return cmd
}

func newActivityCmd() *cobra.Command {
	return newQueryCmd("activity", "Print the last seven days of game activity", func(ctx context.Context, r *activity.Reconstructor, _ config.QueryConfig, address string) (interface{}, error) {
		result := r.ActivityEvents(ctx, address)
		return result, result.Err
	})
}

func newBalancesCmd() *cobra.Command {
	cmd := newQueryCmd("balances", "Print the reconstructed key balance history", func(ctx context.Context, r *activity.Reconstructor, cfg config.QueryConfig, address string) (interface{}, error) {
		timeframe, err := model.ParseTimeframe(cfg.Timeframe)
		if err != nil {
			return nil, err
		}
		result := r.HistoricalBalances(ctx, address, timeframe)
		return result, result.Err
	})
	cmd.Flags().String("timeframe", string(model.TimeframeWeek), "history window (day, week, month)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	return newQueryCmd("summary", "Print the dashboard overview", func(ctx context.Context, r *activity.Reconstructor, _ config.QueryConfig, address string) (interface{}, error) {
		summary, err := r.Summary(ctx, address)
		if err != nil {
			return nil, err
		}
		return summary, nil
	})
}

func newAchievementsCmd() *cobra.Command {
	return newQueryCmd("achievements", "Print unlocked achievements", func(ctx context.Context, r *activity.Reconstructor, _ config.QueryConfig, address string) (interface{}, error) {
		result := r.Achievements(ctx, address)
		return result, result.Err
	})
}

func newRolesCmd() *cobra.Command {
	return newQueryCmd("roles", "Print access-control roles held by the wallet", func(ctx context.Context, r *activity.Reconstructor, _ config.QueryConfig, address string) (interface{}, error) {
		roles, err := r.Roles(ctx, address)
		if err != nil {
			return nil, err
		}
		return roles, nil
	})
}

func runQuery(cmd *cobra.Command, address string, run queryFunc) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuery(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if _, err := activity.ParseAddress(address); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconstructor, cleanup, err := newReconstructor(ctx, cfg.Common, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("query start", zap.String("command", cmd.Name()), zap.String("address", address))

	out, runErr := run(ctx, reconstructor, cfg, address)
	if out != nil {
		if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), runErr)
	}
	return nil
}

func writeJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
