package activity

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"puzzleScope/internal/contracts"
	"puzzleScope/internal/model"
)

// SummaryWindow is the lookback used for balance change and recent unlocks.
var SummaryWindow = model.TimeframeMonth.Duration()

// Summary composes the dashboard overview. Only the key balance is required;
// every other field is left empty when its read fails.
func (r *Reconstructor) Summary(ctx context.Context, address string) (model.Summary, error) {
	player, err := ParseAddress(address)
	if err != nil {
		return model.Summary{}, err
	}
	if r.reader == nil {
		return model.Summary{}, ErrProviderUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	now := r.cfg.Now()
	current, err := r.reader.KeyBalance(ctx, player)
	if err != nil {
		return model.Summary{}, fmt.Errorf("key balance: %w", err)
	}
	summary := model.Summary{
		Address:     player.Hex(),
		KeyBalance:  contracts.FormatEther(current),
		GeneratedAt: uint64(now.Unix()),
	}

	var (
		history  model.Result[model.BalancePoint]
		feed     model.Result[model.ActivityEvent]
		unlocked []uint64
		rewards  *model.RewardStatus
		roles    *model.Roles
	)
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	run(func() {
		history = r.HistoricalBalances(ctx, player.Hex(), model.TimeframeMonth)
	})
	run(func() {
		feed = r.ActivityEvents(ctx, player.Hex())
	})
	run(func() {
		ids, err := r.reader.PlayerAchievements(ctx, player)
		if err != nil {
			r.logger.Warn("player achievements", zap.String("address", player.Hex()), zap.Error(err))
			return
		}
		unlocked = ids
	})
	run(func() {
		status, err := r.RewardStatus(ctx, player)
		if err != nil {
			r.logger.Warn("reward status", zap.String("address", player.Hex()), zap.Error(err))
			return
		}
		rewards = &status
	})
	run(func() {
		held, err := r.reader.Roles(ctx, player)
		if err != nil {
			r.logger.Warn("roles", zap.String("address", player.Hex()), zap.Error(err))
			return
		}
		roles = &held
	})
	wg.Wait()

	since := cutoffTimestamp(now, SummaryWindow)
	if !history.IsError() {
		pct := BalanceChangePct(current, history.Items, since)
		summary.KeyBalanceChangePct = &pct
	}
	if unlocked != nil {
		count := len(unlocked)
		summary.UnlockedCount = &count
	}
	if !feed.IsError() {
		recent := CountRecentAchievements(feed.Items, since)
		summary.RecentUnlocked = &recent
	}
	summary.Rewards = rewards
	summary.Roles = roles
	return summary, nil
}

// RewardStatus reads the daily reward state of a player.
func (r *Reconstructor) RewardStatus(ctx context.Context, player common.Address) (model.RewardStatus, error) {
	var status model.RewardStatus
	var next, pool *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		status.CanClaim, err = r.reader.CanClaimReward(gctx, player)
		return err
	})
	g.Go(func() (err error) {
		status.ConsecutiveDays, err = r.reader.ConsecutiveDays(gctx, player)
		return err
	})
	g.Go(func() (err error) {
		next, err = r.reader.NextRewardAmount(gctx, player)
		return err
	})
	g.Go(func() (err error) {
		status.LastClaimTime, err = r.reader.LastClaimTime(gctx, player)
		return err
	})
	g.Go(func() (err error) {
		pool, err = r.reader.RewardPoolBalance(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.RewardStatus{}, err
	}
	status.NextRewardAmount = contracts.FormatEther(next)
	status.RewardPoolBalance = contracts.FormatEther(pool)
	return status, nil
}

// Achievements returns the definitions of every achievement the player unlocked,
// ordered by id.
func (r *Reconstructor) Achievements(ctx context.Context, address string) model.Result[model.Achievement] {
	player, err := ParseAddress(address)
	if err != nil {
		return model.Failed[model.Achievement](err)
	}
	if r.reader == nil {
		return model.Failed[model.Achievement](ErrProviderUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	ids, err := r.reader.PlayerAchievements(ctx, player)
	if err != nil {
		return model.Failed[model.Achievement](fmt.Errorf("player achievements: %w", err))
	}
	out := make([]model.Achievement, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.EnrichLimit)
	for i, id := range ids {
		g.Go(func() error {
			achievement, err := r.reader.Achievement(gctx, id)
			if err != nil {
				return fmt.Errorf("achievement %d: %w", id, err)
			}
			achievement.Unlocked = true
			if err := r.cache.SetAchievementName(gctx, id, achievement.Name); err != nil {
				r.logger.Warn("achievement name cache write", zap.Uint64("achievement_id", id), zap.Error(err))
			}
			out[i] = achievement
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Failed[model.Achievement](err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return model.OK(out)
}

// HasEnoughKeys checks the player's key balance against amount, given in keys
// ("1.5").
func (r *Reconstructor) HasEnoughKeys(ctx context.Context, address, amount string) (model.KeyCheck, error) {
	player, err := ParseAddress(address)
	if err != nil {
		return model.KeyCheck{}, err
	}
	value, err := contracts.ParseEther(amount)
	if err != nil {
		return model.KeyCheck{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if r.reader == nil {
		return model.KeyCheck{}, ErrProviderUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	enough, err := r.reader.HasEnoughKeys(ctx, player, value)
	if err != nil {
		return model.KeyCheck{}, fmt.Errorf("has enough keys: %w", err)
	}
	return model.KeyCheck{
		Address:   player.Hex(),
		Amount:    contracts.FormatEther(value),
		HasEnough: enough,
	}, nil
}

// AchievementUnlocked reports whether the player holds one achievement.
func (r *Reconstructor) AchievementUnlocked(ctx context.Context, address string, id uint64) (model.AchievementStatus, error) {
	player, err := ParseAddress(address)
	if err != nil {
		return model.AchievementStatus{}, err
	}
	if r.reader == nil {
		return model.AchievementStatus{}, ErrProviderUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	unlocked, err := r.reader.IsAchievementUnlocked(ctx, player, id)
	if err != nil {
		return model.AchievementStatus{}, fmt.Errorf("achievement %d unlocked: %w", id, err)
	}
	return model.AchievementStatus{Address: player.Hex(), ID: id, Unlocked: unlocked}, nil
}

// Roles reads the wallet's access-control roles.
func (r *Reconstructor) Roles(ctx context.Context, address string) (model.Roles, error) {
	player, err := ParseAddress(address)
	if err != nil {
		return model.Roles{}, err
	}
	if r.reader == nil {
		return model.Roles{}, ErrProviderUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	return r.reader.Roles(ctx, player)
}

// BalanceChangePct compares current against the history point closest to since:
// (current - past) / current * 100 rounded to two decimals, or 0 when current is
// zero.
func BalanceChangePct(current *big.Int, history []model.BalancePoint, since uint64) float64 {
	currentValue := contracts.ToFloat(current)
	if currentValue == 0 {
		return 0
	}
	var past float64
	var best uint64
	found := false
	for _, point := range history {
		distance := absDiff(point.Timestamp, since)
		if !found || distance < best {
			best = distance
			past = contracts.ToFloat(point.Balance)
			found = true
		}
	}
	pct := (currentValue - past) / currentValue * 100
	return math.Round(pct*100) / 100
}

// CountRecentAchievements counts achievement events at or after since.
func CountRecentAchievements(events []model.ActivityEvent, since uint64) int {
	count := 0
	for _, event := range events {
		if event.Type == model.ActivityAchievement && event.Timestamp >= since {
			count++
		}
	}
	return count
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
