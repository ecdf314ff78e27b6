package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// NameTTL bounds how long achievement names are trusted; zero keeps them forever.
	NameTTL time.Duration
	// BlockTTL expires block timestamps so a reorg at a height cannot pin a stale
	// value. Zero uses DefaultBlockTTL.
	BlockTTL time.Duration
}

// DefaultBlockTTL outlives the activity feed window.
const DefaultBlockTTL = 7 * 24 * time.Hour

// Redis is a Store shared between processes.
type Redis struct {
	client   *redis.Client
	nameTTL  time.Duration
	blockTTL time.Duration
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return NewRedisFromClient(client, cfg), nil
}

// NewRedisFromClient wraps an existing client. Connection fields of cfg are ignored.
func NewRedisFromClient(client *redis.Client, cfg RedisConfig) *Redis {
	blockTTL := cfg.BlockTTL
	if blockTTL <= 0 {
		blockTTL = DefaultBlockTTL
	}
	return &Redis{client: client, nameTTL: cfg.NameTTL, blockTTL: blockTTL}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func achievementNameKey(id uint64) string {
	return fmt.Sprintf("puzzle:achievement:%d:name", id)
}

func blockTimeKey(number uint64) string {
	return fmt.Sprintf("puzzle:block:%d:ts", number)
}

func (r *Redis) AchievementName(ctx context.Context, id uint64) (string, bool, error) {
	name, err := r.client.Get(ctx, achievementNameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting achievement name: %w", err)
	}
	return name, true, nil
}

func (r *Redis) SetAchievementName(ctx context.Context, id uint64, name string) error {
	if err := r.client.Set(ctx, achievementNameKey(id), name, r.nameTTL).Err(); err != nil {
		return fmt.Errorf("setting achievement name: %w", err)
	}
	return nil
}

func (r *Redis) BlockTime(ctx context.Context, number uint64) (uint64, bool, error) {
	raw, err := r.client.Get(ctx, blockTimeKey(number)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("getting block time: %w", err)
	}
	ts, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse block time %q: %w", raw, err)
	}
	return ts, true, nil
}

// SetBlockTime stores a block timestamp for blockTTL.
func (r *Redis) SetBlockTime(ctx context.Context, number uint64, ts uint64) error {
	if err := r.client.Set(ctx, blockTimeKey(number), strconv.FormatUint(ts, 10), r.blockTTL).Err(); err != nil {
		return fmt.Errorf("setting block time: %w", err)
	}
	return nil
}
