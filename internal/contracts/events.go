package contracts

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"puzzleScope/internal/model"
)

// EventSpec describes one tracked game event.
type EventSpec struct {
	Type      model.ActivityType
	Contract  Name
	Event     string
	Signature string
	Topic     common.Hash
}

var (
	eventSpecs     []EventSpec
	eventsByTopic  map[common.Hash]EventSpec
	eventsByType   map[model.ActivityType]EventSpec
	eventSpecsOnce sync.Once
)

func loadEventSpecs() {
	eventSpecsOnce.Do(func() {
		eventSpecs = []EventSpec{
			{Type: model.ActivityReward, Contract: RewardPool, Event: "RewardClaimed", Signature: "RewardClaimed(address,uint256)"},
			{Type: model.ActivityAchievement, Contract: SpacePuzzleNFT, Event: "AchievementUnlocked", Signature: "AchievementUnlocked(address,uint256,uint256)"},
			{Type: model.ActivityTokenize, Contract: GameToken, Event: "KeysTokenized", Signature: "KeysTokenized(address,uint256)"},
			{Type: model.ActivityDetokenize, Contract: GameToken, Event: "KeysDetokenized", Signature: "KeysDetokenized(address,uint256)"},
			{Type: model.ActivityBurn, Contract: GameToken, Event: "KeysBurned", Signature: "KeysBurned(address,uint256)"},
			{Type: model.ActivityTransfer, Contract: GameToken, Event: "Transfer", Signature: "Transfer(address,address,uint256)"},
		}
		eventsByTopic = make(map[common.Hash]EventSpec, len(eventSpecs))
		eventsByType = make(map[model.ActivityType]EventSpec, len(eventSpecs))
		for i := range eventSpecs {
			eventSpecs[i].Topic = crypto.Keccak256Hash([]byte(eventSpecs[i].Signature))
			eventsByTopic[eventSpecs[i].Topic] = eventSpecs[i]
			eventsByType[eventSpecs[i].Type] = eventSpecs[i]
		}
	})
}

// Events returns the tracked events in a stable order.
func Events() []EventSpec {
	loadEventSpecs()
	out := make([]EventSpec, len(eventSpecs))
	copy(out, eventSpecs)
	return out
}

// EventByTopic looks up an event by its topic0 hash.
func EventByTopic(topic common.Hash) (EventSpec, bool) {
	loadEventSpecs()
	spec, ok := eventsByTopic[topic]
	return spec, ok
}

// EventByType looks up the event that produces an activity type.
func EventByType(t model.ActivityType) (EventSpec, bool) {
	loadEventSpecs()
	spec, ok := eventsByType[t]
	return spec, ok
}
