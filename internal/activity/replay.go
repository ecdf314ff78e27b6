package activity

import (
	"math/big"
	"sort"

	"puzzleScope/internal/model"
)

// BalanceChange is one transfer seen from a single wallet. Delta is positive for
// receipts, negative for sends and zero for self-transfers.
type BalanceChange struct {
	Timestamp   uint64
	BlockNumber uint64
	LogIndex    uint
	Delta       *big.Int
}

// ReplayBalances walks changes from newest to oldest starting at current, undoing
// each one. The balance held just before a change is attached to its timestamp.
// Points come back in ascending time order followed by {now, current}.
func ReplayBalances(current *big.Int, changes []BalanceChange, now uint64) []model.BalancePoint {
	if current == nil {
		current = new(big.Int)
	}
	ordered := make([]BalanceChange, len(changes))
	copy(ordered, changes)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].BlockNumber != ordered[j].BlockNumber {
			return ordered[i].BlockNumber < ordered[j].BlockNumber
		}
		return ordered[i].LogIndex < ordered[j].LogIndex
	})

	points := make([]model.BalancePoint, len(ordered)+1)
	running := new(big.Int).Set(current)
	for i := len(ordered) - 1; i >= 0; i-- {
		if ordered[i].Delta != nil {
			running.Sub(running, ordered[i].Delta)
		}
		points[i] = model.BalancePoint{
			Timestamp: ordered[i].Timestamp,
			Balance:   new(big.Int).Set(running),
		}
	}
	points[len(ordered)] = model.BalancePoint{Timestamp: now, Balance: new(big.Int).Set(current)}
	return points
}

// ReplayForward re-applies changes in ascending order from start and returns the
// resulting balance.
func ReplayForward(start *big.Int, changes []BalanceChange) *big.Int {
	out := new(big.Int)
	if start != nil {
		out.Set(start)
	}
	for _, change := range changes {
		if change.Delta != nil {
			out.Add(out, change.Delta)
		}
	}
	return out
}
