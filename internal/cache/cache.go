// Package cache stores lookups that never change for a given key: achievement
// names by id and block timestamps by number.
package cache

import "context"

// Store caches enrichment lookups. Misses return ok=false with a nil error.
type Store interface {
	AchievementName(ctx context.Context, id uint64) (string, bool, error)
	SetAchievementName(ctx context.Context, id uint64, name string) error
	BlockTime(ctx context.Context, number uint64) (uint64, bool, error)
	SetBlockTime(ctx context.Context, number uint64, ts uint64) error
}
