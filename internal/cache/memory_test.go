package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	var store Store = NewMemory()

	if _, ok, err := store.AchievementName(ctx, 7); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.SetAchievementName(ctx, 7, "Star Gazer"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	name, ok, err := store.AchievementName(ctx, 7)
	if err != nil || !ok || name != "Star Gazer" {
		t.Fatalf("name lookup: %q %v %v", name, ok, err)
	}

	if err := store.SetBlockTime(ctx, 100, 1700000000); err != nil {
		t.Fatalf("set block time: %v", err)
	}
	ts, ok, err := store.BlockTime(ctx, 100)
	if err != nil || !ok || ts != 1700000000 {
		t.Fatalf("block time lookup: %d %v %v", ts, ok, err)
	}
	if _, ok, _ := store.BlockTime(ctx, 101); ok {
		t.Fatalf("unexpected hit for block 101")
	}
}

func TestRedisKeys(t *testing.T) {
	if got := achievementNameKey(3); got != "puzzle:achievement:3:name" {
		t.Fatalf("name key: %s", got)
	}
	if got := blockTimeKey(42); got != "puzzle:block:42:ts" {
		t.Fatalf("block key: %s", got)
	}
}

func TestMemoryStoreResetsWhenFull(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	store.limit = 3

	for i := uint64(0); i < 3; i++ {
		if err := store.SetBlockTime(ctx, i, i+100); err != nil {
			t.Fatalf("set block time: %v", err)
		}
		if err := store.SetAchievementName(ctx, i, "name"); err != nil {
			t.Fatalf("set name: %v", err)
		}
	}
	if err := store.SetBlockTime(ctx, 2, 999); err != nil {
		t.Fatalf("overwrite block time: %v", err)
	}
	if len(store.blocks) != 3 {
		t.Fatalf("overwrite should not reset, got %d entries", len(store.blocks))
	}

	if err := store.SetBlockTime(ctx, 3, 103); err != nil {
		t.Fatalf("set block time: %v", err)
	}
	if err := store.SetAchievementName(ctx, 3, "Nebula"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if len(store.blocks) != 1 || len(store.names) != 1 {
		t.Fatalf("expected reset, got %d blocks and %d names", len(store.blocks), len(store.names))
	}
	if _, ok, _ := store.BlockTime(ctx, 0); ok {
		t.Fatalf("evicted block still cached")
	}
	if ts, ok, _ := store.BlockTime(ctx, 3); !ok || ts != 103 {
		t.Fatalf("newest block missing: %d %v", ts, ok)
	}
}

func TestRedisBlockTTLDefault(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	store := NewRedisFromClient(client, RedisConfig{NameTTL: time.Hour})
	if store.blockTTL != DefaultBlockTTL || store.nameTTL != time.Hour {
		t.Fatalf("unexpected ttls: block=%s name=%s", store.blockTTL, store.nameTTL)
	}
	store = NewRedisFromClient(client, RedisConfig{BlockTTL: time.Minute})
	if store.blockTTL != time.Minute {
		t.Fatalf("configured block ttl ignored: %s", store.blockTTL)
	}
}
