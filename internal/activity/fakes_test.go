package activity

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"puzzleScope/internal/contracts"
	"puzzleScope/internal/model"
)

var testAddresses = contracts.Addresses{
	GameToken:      common.HexToAddress("0x46B0cFbf0786D48D2A97ae628d3E76cB8e1943B9"),
	RewardPool:     common.HexToAddress("0x905e29f9F5c4298339B3A0a6989119340d9059F3"),
	SpacePuzzleNFT: common.HexToAddress("0xb19355A7E708883Df704998A3FAd5a506fFE1880"),
}

type fakeChain struct {
	latest     uint64
	latestErr  error
	logs       []types.Log
	filterErr  error
	timestamps map[uint64]uint64
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, f.latestErr
}

func (f *fakeChain) FilterLogs(_ context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	var out []types.Log
	for _, log := range f.logs {
		if query.FromBlock != nil && log.BlockNumber < query.FromBlock.Uint64() {
			continue
		}
		if query.ToBlock != nil && log.BlockNumber > query.ToBlock.Uint64() {
			continue
		}
		if !matchAddress(query.Addresses, log.Address) || !matchTopics(query.Topics, log.Topics) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (f *fakeChain) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	ts, ok := f.timestamps[number]
	if !ok {
		return 0, fmt.Errorf("block %d not found", number)
	}
	return ts, nil
}

func matchAddress(addresses []common.Address, address common.Address) bool {
	if len(addresses) == 0 {
		return true
	}
	for _, candidate := range addresses {
		if candidate == address {
			return true
		}
	}
	return false
}

func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	for i, options := range filter {
		if len(options) == 0 {
			continue
		}
		if i >= len(topics) {
			return false
		}
		found := false
		for _, option := range options {
			if option == topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type fakeReader struct {
	balance      *big.Int
	balanceErr   error
	achievements map[uint64]model.Achievement
	unlocked     []uint64
	roles        model.Roles
	nameCalls    atomic.Int64
}

func (f *fakeReader) KeyBalance(context.Context, common.Address) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeReader) Achievement(_ context.Context, id uint64) (model.Achievement, error) {
	f.nameCalls.Add(1)
	achievement, ok := f.achievements[id]
	if !ok {
		return model.Achievement{}, errors.New("execution reverted")
	}
	return achievement, nil
}

func (f *fakeReader) HasEnoughKeys(_ context.Context, _ common.Address, amount *big.Int) (bool, error) {
	if f.balanceErr != nil {
		return false, f.balanceErr
	}
	return f.balance.Cmp(amount) >= 0, nil
}

func (f *fakeReader) IsAchievementUnlocked(_ context.Context, _ common.Address, id uint64) (bool, error) {
	for _, unlocked := range f.unlocked {
		if unlocked == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReader) PlayerAchievements(context.Context, common.Address) ([]uint64, error) {
	return f.unlocked, nil
}

func (f *fakeReader) CanClaimReward(context.Context, common.Address) (bool, error) { return true, nil }

func (f *fakeReader) ConsecutiveDays(context.Context, common.Address) (uint64, error) { return 3, nil }

func (f *fakeReader) NextRewardAmount(context.Context, common.Address) (*big.Int, error) {
	return ether(10), nil
}

func (f *fakeReader) LastClaimTime(context.Context, common.Address) (uint64, error) {
	return 1_699_990_000, nil
}

func (f *fakeReader) RewardPoolBalance(context.Context) (*big.Int, error) { return ether(5000), nil }

func (f *fakeReader) Roles(context.Context, common.Address) (model.Roles, error) {
	return f.roles, nil
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func addressTopic(address common.Address) common.Hash {
	return common.BytesToHash(address.Bytes())
}

// buildLog packs a synthetic log for a tracked event.
func buildLog(t *testing.T, activityType model.ActivityType, block uint64, index uint, indexed []common.Hash, values ...interface{}) types.Log {
	t.Helper()
	spec, ok := contracts.EventByType(activityType)
	if !ok {
		t.Fatalf("no event for %s", activityType)
	}
	parsed, err := contracts.ABI(spec.Contract)
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	data, err := parsed.Events[spec.Event].Inputs.NonIndexed().Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", spec.Event, err)
	}
	address, err := testAddresses.Of(spec.Contract)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	topics := append([]common.Hash{spec.Topic}, indexed...)
	return types.Log{
		Address:     address,
		Topics:      topics,
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index))),
		Index:       index,
	}
}

func transferLog(t *testing.T, block uint64, index uint, from, to common.Address, value *big.Int) types.Log {
	t.Helper()
	return buildLog(t, model.ActivityTransfer, block, index, []common.Hash{addressTopic(from), addressTopic(to)}, value)
}
