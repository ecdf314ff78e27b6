package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"puzzleScope/internal/activity"
	"puzzleScope/internal/contracts"
	"puzzleScope/internal/model"
	"puzzleScope/internal/storage"
)

// Chain is the node access the archiver needs.
type Chain interface {
	ChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// RunConfig holds runtime settings for the archiver.
type RunConfig struct {
	FromBlock    uint64
	ToBlock      uint64
	Contracts    contracts.Addresses
	Events       []contracts.EventSpec
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// Stats summarizes a run.
type Stats struct {
	Batches   int
	Logs      int
	Skipped   int
	ByType    map[model.ActivityType]int
	LastBlock uint64
}

// Runner archives game contract logs batch by batch.
type Runner struct {
	cfg        RunConfig
	chain      Chain
	storage    storage.Storage
	checkpoint CheckpointStore
	logger     *zap.Logger
	retry      retryPolicy
	seen       map[string]struct{}
}

// NewRunner builds a Runner. A nil checkpoint disables resume.
func NewRunner(cfg RunConfig, chainClient Chain, sink storage.Storage, checkpoint CheckpointStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Events) == 0 {
		cfg.Events = contracts.Events()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		storage:    sink,
		checkpoint: checkpoint,
		logger:     logger,
		retry:      newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff, logger),
		seen:       make(map[string]struct{}),
	}
}

// Run executes the archive loop.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	stats := Stats{ByType: make(map[model.ActivityType]int)}
	if r.chain == nil {
		return stats, fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return stats, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return stats, fmt.Errorf("batch size must be greater than zero")
	}

	addresses, topics, names, err := filterTargets(r.cfg.Contracts, r.cfg.Events)
	if err != nil {
		return stats, err
	}

	chainID, err := r.chain.ChainID(ctx)
	if err != nil {
		return stats, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return stats, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return stats, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		last, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return stats, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok && last >= from {
			from = last + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return stats, nil
	}

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return stats, err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To), zap.Uint64("blocks", blockRange.Blocks()))

		query := ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(blockRange.From),
			ToBlock:   new(big.Int).SetUint64(blockRange.To),
			Addresses: addresses,
			Topics:    [][]common.Hash{topics},
		}
		logs, err := r.filterLogsWithRetry(ctx, query)
		if err != nil {
			return stats, fmt.Errorf("filter logs: %w", err)
		}

		ingestedAt := time.Now().UTC()
		records := make([]model.LogRecord, 0, len(logs))
		for _, log := range logs {
			if r.isDuplicate(log) {
				continue
			}
			if !activity.IsKnownTopic(log) {
				stats.Skipped++
				r.logger.Warn("skip untracked log", zap.String("tx_hash", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
				continue
			}
			eventType, err := activity.Classify(log)
			if err != nil {
				stats.Skipped++
				r.logger.Warn("skip unclassifiable log", zap.String("tx_hash", log.TxHash.Hex()), zap.Error(err))
				continue
			}
			// Transfer shares topic0 between the ERC20 GameToken and the ERC721 NFT.
			if spec, _ := contracts.EventByType(eventType); names[log.Address] != spec.Contract {
				stats.Skipped++
				r.logger.Debug("skip log from other emitter",
					zap.String("tx_hash", log.TxHash.Hex()),
					zap.Uint("log_index", log.Index),
					zap.String("event", spec.Event),
					zap.String("emitter", string(names[log.Address])),
				)
				continue
			}

			ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				return stats, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			records = append(records, buildLogRecord(chainIDValue, log, names[log.Address], eventType, ts, ingestedAt))
			stats.ByType[eventType]++
		}

		if err := r.storage.PutLogBatch(ctx, records); err != nil {
			return stats, fmt.Errorf("store logs: %w", err)
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(ctx, blockRange.To); err != nil {
				return stats, fmt.Errorf("save checkpoint: %w", err)
			}
		}

		stats.Batches++
		stats.Logs += len(records)
		stats.LastBlock = blockRange.To
		r.logger.Info("batch complete", zap.Int("logs", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	}

	return stats, nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := r.retry.do(ctx, "eth_getLogs", func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := r.retry.do(ctx, fmt.Sprintf("block %d timestamp", blockNumber), func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		return err
	})
	return ts, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
