package activity

import (
	"errors"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"puzzleScope/internal/model"
)

var (
	alice = common.HexToAddress("0xAAAaaAAaaaaAAAAAaAAaAaaaAaaAaAAAaAaaAAaa")
	bob   = common.HexToAddress("0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB")
)

func TestClassifyKnownAndUnknownTopics(t *testing.T) {
	player := []common.Hash{addressTopic(alice)}
	cases := []struct {
		name string
		log  types.Log
		want model.ActivityType
	}{
		{"reward", buildLog(t, model.ActivityReward, 1, 0, player, ether(1)), model.ActivityReward},
		{"achievement", buildLog(t, model.ActivityAchievement, 1, 1, []common.Hash{addressTopic(alice), common.BigToHash(big.NewInt(2))}, big.NewInt(1_700_000_000)), model.ActivityAchievement},
		{"tokenize", buildLog(t, model.ActivityTokenize, 1, 2, player, ether(1)), model.ActivityTokenize},
		{"detokenize", buildLog(t, model.ActivityDetokenize, 1, 3, player, ether(1)), model.ActivityDetokenize},
		{"burn", buildLog(t, model.ActivityBurn, 1, 4, player, ether(1)), model.ActivityBurn},
		{"transfer", transferLog(t, 1, 5, alice, bob, ether(1)), model.ActivityTransfer},
		{"garbage", types.Log{Topics: []common.Hash{common.HexToHash("0xdeadbeef")}}, model.ActivityTokenize},
	}

	for _, tc := range cases {
		got, err := Classify(tc.log)
		if err != nil {
			t.Fatalf("%s: classify: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
		if known := IsKnownTopic(tc.log); known != (tc.name != "garbage") {
			t.Fatalf("%s: unexpected known flag %v", tc.name, known)
		}
	}
}

func TestClassifyWithoutTopics(t *testing.T) {
	_, err := Classify(types.Log{})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestParseEventData(t *testing.T) {
	reward := buildLog(t, model.ActivityReward, 1, 0, []common.Hash{addressTopic(alice)}, ether(1))
	got, err := ParseEventData(reward)
	if err != nil {
		t.Fatalf("reward: %v", err)
	}
	if want := (model.RewardData{Player: alice.Hex(), Amount: "1.0"}); !reflect.DeepEqual(got, want) {
		t.Fatalf("reward mismatch: %#v", got)
	}

	half := new(big.Int).Div(ether(1), big.NewInt(2))
	transfer := transferLog(t, 1, 1, alice, bob, half)
	got, err = ParseEventData(transfer)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if want := (model.TransferData{From: alice.Hex(), To: bob.Hex(), Amount: "0.5"}); !reflect.DeepEqual(got, want) {
		t.Fatalf("transfer mismatch: %#v", got)
	}

	achievement := buildLog(t, model.ActivityAchievement, 1, 2,
		[]common.Hash{addressTopic(bob), common.BigToHash(big.NewInt(4))}, big.NewInt(1_700_000_000))
	got, err = ParseEventData(achievement)
	if err != nil {
		t.Fatalf("achievement: %v", err)
	}
	want := model.AchievementData{Player: bob.Hex(), AchievementID: 4, UnlockedAt: 1_700_000_000}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("achievement mismatch: %#v", got)
	}

	burn := buildLog(t, model.ActivityBurn, 1, 3, []common.Hash{addressTopic(alice)}, big.NewInt(1_234_500_000_000_000_000))
	got, err = ParseEventData(burn)
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if want := (model.BurnData{Player: alice.Hex(), Amount: "1.2345"}); !reflect.DeepEqual(got, want) {
		t.Fatalf("burn mismatch: %#v", got)
	}
}

func TestParseEventDataMissingArgs(t *testing.T) {
	reward := buildLog(t, model.ActivityReward, 1, 0, []common.Hash{addressTopic(alice)}, ether(1))
	reward.Topics = reward.Topics[:1]
	reward.Data = nil

	_, err := ParseEventData(reward)
	if !errors.Is(err, ErrMissingArgs) {
		t.Fatalf("expected ErrMissingArgs, got %v", err)
	}
}

func TestParseEventDataMalformed(t *testing.T) {
	reward := buildLog(t, model.ActivityReward, 1, 0, []common.Hash{addressTopic(alice)}, ether(1))
	reward.Data = reward.Data[:7]

	_, err := ParseEventData(reward)
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}

	transfer := transferLog(t, 1, 1, alice, bob, ether(1))
	transfer.Topics = transfer.Topics[:2]
	if _, err := ParseEventData(transfer); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for short topics, got %v", err)
	}
}

func TestTransferAmount(t *testing.T) {
	log := transferLog(t, 1, 0, alice, bob, big.NewInt(42))
	from, to, value, err := TransferAmount(log)
	if err != nil {
		t.Fatalf("transfer amount: %v", err)
	}
	if from != alice || to != bob || value.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("unexpected transfer: %s %s %s", from.Hex(), to.Hex(), value)
	}

	reward := buildLog(t, model.ActivityReward, 1, 1, []common.Hash{addressTopic(alice)}, ether(1))
	if _, _, _, err := TransferAmount(reward); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for reward log, got %v", err)
	}
}
