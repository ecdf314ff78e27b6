package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"puzzleScope/internal/config"
	"puzzleScope/internal/model"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "puzzlescope",
		Short:        "Space Puzzle on-chain activity reader",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("rpc", "", "JSON-RPC node URL")
	flags.String("game-token", config.DefaultGameToken, "GameToken contract address")
	flags.String("reward-pool", config.DefaultRewardPool, "RewardPool contract address")
	flags.String("nft", config.DefaultSpacePuzzleNFT, "SpacePuzzleNFT contract address")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Duration("timeout", 30*time.Second, "per-request timeout")
	flags.Uint64("window-blocks", model.WeekBlocks, "activity feed block window")
	flags.Int("enrich-limit", 8, "concurrent timestamp and name lookups")
	flags.String("now", "", "pin the reference time (unix seconds or RFC3339)")

	root.AddCommand(
		newActivityCmd(),
		newBalancesCmd(),
		newSummaryCmd(),
		newAchievementsCmd(),
		newRolesCmd(),
		newServeCmd(),
		newIndexCmd(),
		newDecodeCmd(),
	)
	return root
}

func addCacheFlags(flags *pflag.FlagSet) {
	flags.String("redis-addr", "", "Redis address for the shared cache (empty uses memory)")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Duration("name-ttl", 24*time.Hour, "achievement name cache TTL")
	flags.Duration("block-ttl", 7*24*time.Hour, "block timestamp cache TTL")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
