package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Archive sinks.
const (
	SinkJSONL    = "jsonl"
	SinkPostgres = "postgres"
)

// IndexConfig configures the log archiver.
type IndexConfig struct {
	Common
	FromBlock         uint64
	ToBlock           uint64
	Events            []string
	BatchSize         uint64
	Sink              string
	Out               string
	PGDSN             string
	Migrate           bool
	Checkpoint        string
	CheckpointEnabled bool
	CheckpointName    string
	MaxRetries        int
	RetryBackoff      time.Duration
}

// LoadIndex merges config file, environment variables, and flags into IndexConfig.
func LoadIndex(cfgFile string, flags *pflag.FlagSet) (IndexConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("batch-size", uint64(2000))
		v.SetDefault("sink", SinkJSONL)
		v.SetDefault("out", "./data/game_logs.jsonl")
		v.SetDefault("checkpoint", "./data/checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("checkpoint-name", "game_logs")
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
	})
	if err != nil {
		return IndexConfig{}, err
	}
	common, err := loadCommon(v)
	if err != nil {
		return IndexConfig{}, err
	}

	cfg := IndexConfig{
		Common:            common,
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		Events:            getStringSlice(v, "events"),
		BatchSize:         v.GetUint64("batch-size"),
		Sink:              v.GetString("sink"),
		Out:               v.GetString("out"),
		PGDSN:             v.GetString("pg-dsn"),
		Migrate:           v.GetBool("migrate"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		CheckpointName:    v.GetString("checkpoint-name"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
	}
	return cfg, nil
}

// Validate checks sink-specific settings.
func (c IndexConfig) Validate() error {
	if err := c.Common.Validate(); err != nil {
		return err
	}
	if c.ToBlock != 0 && c.ToBlock < c.FromBlock {
		return fmt.Errorf("to block must be >= from block")
	}
	switch c.Sink {
	case SinkJSONL:
		if c.Out == "" {
			return fmt.Errorf("out path is required for the jsonl sink")
		}
	case SinkPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres sink")
		}
	default:
		return fmt.Errorf("unsupported sink: %q", c.Sink)
	}
	return nil
}
