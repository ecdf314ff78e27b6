package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"puzzleScope/internal/activity"
	"puzzleScope/internal/cache"
	"puzzleScope/internal/chain"
	"puzzleScope/internal/config"
	"puzzleScope/internal/contracts"
)

// newReconstructor wires the chain client, contract reader and cache. The
// returned func releases them.
func newReconstructor(ctx context.Context, common config.Common, cacheCfg config.Cache, logger *zap.Logger) (*activity.Reconstructor, func(), error) {
	if err := common.Validate(); err != nil {
		return nil, nil, err
	}
	addresses, err := common.Addresses()
	if err != nil {
		return nil, nil, err
	}

	chainClient, err := chain.NewClient(ctx, common.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", activity.ErrProviderUnavailable, err)
	}

	store, closeStore, err := newCacheStore(ctx, cacheCfg, logger)
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}

	reconstructor := activity.New(activity.Config{
		Addresses:    addresses,
		WindowBlocks: common.WindowBlocks,
		EnrichLimit:  common.EnrichLimit,
		Timeout:      common.Timeout,
		Now:          common.NowTime(),
	}, chainClient, contracts.NewReader(chainClient, addresses), store, logger.Named("activity"))

	cleanup := func() {
		closeStore()
		chainClient.Close()
	}
	return reconstructor, cleanup, nil
}

func newCacheStore(ctx context.Context, cfg config.Cache, logger *zap.Logger) (cache.Store, func(), error) {
	if !cfg.Enabled() {
		return cache.NewMemory(), func() {}, nil
	}
	store, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		NameTTL:  cfg.NameTTL,
		BlockTTL: cfg.BlockTTL,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("redis cache enabled", zap.String("addr", cfg.RedisAddr), zap.Int("db", cfg.RedisDB))
	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}, nil
}
