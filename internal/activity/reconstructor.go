package activity

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"puzzleScope/internal/cache"
	"puzzleScope/internal/contracts"
	"puzzleScope/internal/model"
)

// ActivityWindow is how far back the activity feed reaches in wall-clock time.
var ActivityWindow = model.TimeframeWeek.Duration()

// ChainReader is the subset of the node client the reconstructor needs.
type ChainReader interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// ContractReader performs the view calls used for enrichment and summaries.
type ContractReader interface {
	KeyBalance(ctx context.Context, player common.Address) (*big.Int, error)
	HasEnoughKeys(ctx context.Context, player common.Address, amount *big.Int) (bool, error)
	Achievement(ctx context.Context, id uint64) (model.Achievement, error)
	PlayerAchievements(ctx context.Context, player common.Address) ([]uint64, error)
	IsAchievementUnlocked(ctx context.Context, player common.Address, id uint64) (bool, error)
	CanClaimReward(ctx context.Context, player common.Address) (bool, error)
	ConsecutiveDays(ctx context.Context, player common.Address) (uint64, error)
	NextRewardAmount(ctx context.Context, player common.Address) (*big.Int, error)
	LastClaimTime(ctx context.Context, player common.Address) (uint64, error)
	RewardPoolBalance(ctx context.Context) (*big.Int, error)
	Roles(ctx context.Context, account common.Address) (model.Roles, error)
}

// Config tunes the reconstructor.
type Config struct {
	Addresses    contracts.Addresses
	WindowBlocks uint64
	EnrichLimit  int
	Timeout      time.Duration
	Now          func() time.Time
}

const (
	defaultEnrichLimit = 8
	defaultTimeout     = 30 * time.Second
)

// Reconstructor rebuilds a player's activity feed and balance history from logs.
type Reconstructor struct {
	cfg    Config
	chain  ChainReader
	reader ContractReader
	cache  cache.Store
	logger *zap.Logger
}

// New builds a Reconstructor. A nil store falls back to an in-memory cache.
func New(cfg Config, chainReader ChainReader, reader ContractReader, store cache.Store, logger *zap.Logger) *Reconstructor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = cache.NewMemory()
	}
	if cfg.WindowBlocks == 0 {
		cfg.WindowBlocks = model.WeekBlocks
	}
	if cfg.EnrichLimit <= 0 {
		cfg.EnrichLimit = defaultEnrichLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reconstructor{
		cfg:    cfg,
		chain:  chainReader,
		reader: reader,
		cache:  store,
		logger: logger,
	}
}

// ParseAddress validates a wallet address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, input)
	}
	return common.HexToAddress(input), nil
}

// ActivityEvents returns the player's classified events of the last seven days,
// newest first.
func (r *Reconstructor) ActivityEvents(ctx context.Context, address string) model.Result[model.ActivityEvent] {
	player, err := ParseAddress(address)
	if err != nil {
		return model.Failed[model.ActivityEvent](err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	events, err := r.activityEvents(ctx, player)
	if err != nil {
		r.logger.Warn("activity reconstruction failed", zap.String("address", player.Hex()), zap.Error(err))
		return model.Failed[model.ActivityEvent](err)
	}
	return model.OK(events)
}

func (r *Reconstructor) activityEvents(ctx context.Context, player common.Address) ([]model.ActivityEvent, error) {
	if r.chain == nil {
		return nil, ErrProviderUnavailable
	}
	latest, err := r.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: latest block: %v", ErrProviderUnavailable, err)
	}
	fromBlock := windowStart(latest, r.cfg.WindowBlocks)

	specs := contracts.Events()
	results := make([][]types.Log, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		contract, err := r.cfg.Addresses.Of(spec.Contract)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			logs, err := r.chain.FilterLogs(gctx, ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(fromBlock),
				ToBlock:   new(big.Int).SetUint64(latest),
				Addresses: []common.Address{contract},
				Topics:    [][]common.Hash{{spec.Topic}},
			})
			if err != nil {
				return fmt.Errorf("filter %s logs: %w", spec.Event, err)
			}
			results[i] = logs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	target := strings.ToLower(player.Hex())
	var events []model.ActivityEvent
	for _, logs := range results {
		for _, log := range logs {
			event, ok := r.buildEvent(log, target)
			if ok {
				events = append(events, event)
			}
		}
	}

	if err := r.enrich(ctx, events); err != nil {
		return nil, err
	}

	SortEvents(events)
	cutoff := cutoffTimestamp(r.cfg.Now(), ActivityWindow)
	filtered := events[:0]
	for _, event := range events {
		if event.Timestamp >= cutoff {
			filtered = append(filtered, event)
		}
	}
	return filtered, nil
}

func (r *Reconstructor) buildEvent(log types.Log, target string) (model.ActivityEvent, bool) {
	if !IsKnownTopic(log) {
		r.logger.Warn("unknown topic classified as tokenize", zap.String("tx_hash", log.TxHash.Hex()), zap.Uint("log_index", log.Index))
	}
	activityType, err := Classify(log)
	if err != nil {
		r.logger.Warn("classify log", zap.String("tx_hash", log.TxHash.Hex()), zap.Error(err))
		return model.ActivityEvent{}, false
	}
	data, err := ParseEventData(log)
	if err != nil {
		r.logger.Warn("parse event data", zap.String("tx_hash", log.TxHash.Hex()), zap.Uint("log_index", log.Index), zap.Error(err))
		return model.ActivityEvent{}, false
	}
	if !involves(data, target) {
		return model.ActivityEvent{}, false
	}
	return model.ActivityEvent{
		Type:        activityType,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Data:        data,
	}, true
}

// involves reports whether target is the first or second address argument.
func involves(data model.ActivityData, target string) bool {
	participants := data.Participants()
	for i := 0; i < len(participants) && i < 2; i++ {
		if participants[i] == target {
			return true
		}
	}
	return false
}

func (r *Reconstructor) enrich(ctx context.Context, events []model.ActivityEvent) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.EnrichLimit)
	for i := range events {
		event := &events[i]
		g.Go(func() error {
			ts, err := r.blockTime(gctx, event.BlockNumber)
			if err != nil {
				return err
			}
			event.Timestamp = ts
			if data, ok := event.Data.(model.AchievementData); ok {
				event.Data = r.withAchievementName(gctx, data)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Reconstructor) blockTime(ctx context.Context, number uint64) (uint64, error) {
	if ts, ok, err := r.cache.BlockTime(ctx, number); err == nil && ok {
		return ts, nil
	} else if err != nil {
		r.logger.Warn("block time cache read", zap.Uint64("block_number", number), zap.Error(err))
	}
	ts, err := r.chain.BlockTimestamp(ctx, number)
	if err != nil {
		return 0, fmt.Errorf("block timestamp %d: %w", number, err)
	}
	if err := r.cache.SetBlockTime(ctx, number, ts); err != nil {
		r.logger.Warn("block time cache write", zap.Uint64("block_number", number), zap.Error(err))
	}
	return ts, nil
}

func (r *Reconstructor) withAchievementName(ctx context.Context, data model.AchievementData) model.AchievementData {
	name, err := r.achievementName(ctx, data.AchievementID)
	if err != nil {
		r.logger.Warn("achievement name lookup failed", zap.Uint64("achievement_id", data.AchievementID), zap.Error(err))
		return data
	}
	data.Name = name
	return data
}

func (r *Reconstructor) achievementName(ctx context.Context, id uint64) (string, error) {
	if name, ok, err := r.cache.AchievementName(ctx, id); err == nil && ok {
		return name, nil
	}
	if r.reader == nil {
		return "", errors.New("contract reader is nil")
	}
	achievement, err := r.reader.Achievement(ctx, id)
	if err != nil {
		return "", err
	}
	if err := r.cache.SetAchievementName(ctx, id, achievement.Name); err != nil {
		r.logger.Warn("achievement name cache write", zap.Uint64("achievement_id", id), zap.Error(err))
	}
	return achievement.Name, nil
}

// HistoricalBalances reconstructs the player's balance over the timeframe by
// undoing transfers from the current on-chain balance.
func (r *Reconstructor) HistoricalBalances(ctx context.Context, address string, timeframe model.Timeframe) model.Result[model.BalancePoint] {
	player, err := ParseAddress(address)
	if err != nil {
		return model.Failed[model.BalancePoint](err)
	}
	if timeframe.Blocks() == 0 {
		return model.Failed[model.BalancePoint](fmt.Errorf("unsupported timeframe: %q", timeframe))
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	points, err := r.historicalBalances(ctx, player, timeframe)
	if err != nil {
		r.logger.Warn("balance reconstruction failed", zap.String("address", player.Hex()), zap.String("timeframe", string(timeframe)), zap.Error(err))
		return model.Failed[model.BalancePoint](err)
	}
	return model.OK(points)
}

func (r *Reconstructor) historicalBalances(ctx context.Context, player common.Address, timeframe model.Timeframe) ([]model.BalancePoint, error) {
	if r.chain == nil {
		return nil, ErrProviderUnavailable
	}
	if r.reader == nil {
		return nil, errors.New("contract reader is nil")
	}
	latest, err := r.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: latest block: %v", ErrProviderUnavailable, err)
	}
	fromBlock := windowStart(latest, timeframe.Blocks())

	spec, _ := contracts.EventByType(model.ActivityTransfer)
	playerTopic := common.BytesToHash(player.Bytes())
	base := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(latest),
		Addresses: []common.Address{r.cfg.Addresses.GameToken},
	}
	received := base
	received.Topics = [][]common.Hash{{spec.Topic}, nil, {playerTopic}}
	sent := base
	sent.Topics = [][]common.Hash{{spec.Topic}, {playerTopic}}

	var (
		receivedLogs, sentLogs []types.Log
		current                *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logs, err := r.chain.FilterLogs(gctx, received)
		if err != nil {
			return fmt.Errorf("filter incoming transfers: %w", err)
		}
		receivedLogs = logs
		return nil
	})
	g.Go(func() error {
		logs, err := r.chain.FilterLogs(gctx, sent)
		if err != nil {
			return fmt.Errorf("filter outgoing transfers: %w", err)
		}
		sentLogs = logs
		return nil
	})
	g.Go(func() error {
		balance, err := r.reader.KeyBalance(gctx, player)
		if err != nil {
			return fmt.Errorf("key balance: %w", err)
		}
		current = balance
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	changes, err := r.balanceChanges(ctx, player, dedupeLogs(receivedLogs, sentLogs))
	if err != nil {
		return nil, err
	}
	return ReplayBalances(current, changes, uint64(r.cfg.Now().Unix())), nil
}

func (r *Reconstructor) balanceChanges(ctx context.Context, player common.Address, logs []types.Log) ([]BalanceChange, error) {
	changes := make([]BalanceChange, 0, len(logs))
	for _, log := range logs {
		from, to, value, err := TransferAmount(log)
		if err != nil {
			r.logger.Warn("skip undecodable transfer", zap.String("tx_hash", log.TxHash.Hex()), zap.Error(err))
			continue
		}
		delta := new(big.Int)
		switch {
		case from == player && to == player:
		case to == player:
			delta.Set(value)
		case from == player:
			delta.Neg(value)
		default:
			continue
		}
		changes = append(changes, BalanceChange{
			BlockNumber: log.BlockNumber,
			LogIndex:    log.Index,
			Delta:       delta,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.EnrichLimit)
	for i := range changes {
		change := &changes[i]
		g.Go(func() error {
			ts, err := r.blockTime(gctx, change.BlockNumber)
			if err != nil {
				return err
			}
			change.Timestamp = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return changes, nil
}

// dedupeLogs merges log sets, dropping entries that appear in more than one.
func dedupeLogs(sets ...[]types.Log) []types.Log {
	seen := make(map[string]struct{})
	var out []types.Log
	for _, logs := range sets {
		for _, log := range logs {
			key := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, log)
		}
	}
	return out
}

// SortEvents orders events newest first; ties fall back to block number and log
// index so output is stable across calls.
func SortEvents(events []model.ActivityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		if a.BlockNumber != b.BlockNumber {
			return a.BlockNumber > b.BlockNumber
		}
		return a.LogIndex > b.LogIndex
	})
}

func windowStart(latest, window uint64) uint64 {
	if latest < window {
		return 0
	}
	return latest - window
}

func cutoffTimestamp(now time.Time, window time.Duration) uint64 {
	cutoff := now.Add(-window).Unix()
	if cutoff < 0 {
		return 0
	}
	return uint64(cutoff)
}
