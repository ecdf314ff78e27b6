package activity

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"puzzleScope/internal/contracts"
	"puzzleScope/internal/model"
)

// Classify maps a log to its activity type by topic0. Unknown topics fall back to
// tokenize; use IsKnownTopic to detect that case.
func Classify(log types.Log) (model.ActivityType, error) {
	if len(log.Topics) == 0 {
		return "", fmt.Errorf("%w: log has no topics", ErrInvalidEvent)
	}
	if spec, ok := contracts.EventByTopic(log.Topics[0]); ok {
		return spec.Type, nil
	}
	return model.ActivityTokenize, nil
}

// IsKnownTopic reports whether topic0 is one of the tracked game events.
func IsKnownTopic(log types.Log) bool {
	if len(log.Topics) == 0 {
		return false
	}
	_, ok := contracts.EventByTopic(log.Topics[0])
	return ok
}

// ParseEventData decodes the indexed topics and data of a log into the payload
// of its activity type.
func ParseEventData(log types.Log) (model.ActivityData, error) {
	activityType, err := Classify(log)
	if err != nil {
		return nil, err
	}
	if len(log.Topics) == 1 && len(log.Data) == 0 {
		return nil, fmt.Errorf("%w: %s log %s", ErrMissingArgs, activityType, log.TxHash.Hex())
	}

	spec, ok := contracts.EventByType(activityType)
	if !ok {
		return nil, fmt.Errorf("%w: no event for type %s", ErrInvalidEvent, activityType)
	}
	parsed, err := contracts.ABI(spec.Contract)
	if err != nil {
		return nil, fmt.Errorf("parse %s abi: %w", spec.Contract, err)
	}
	event, ok := parsed.Events[spec.Event]
	if !ok {
		return nil, fmt.Errorf("%w: event %s missing from %s abi", ErrInvalidEvent, spec.Event, spec.Contract)
	}

	args, err := unpackEvent(event, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEvent, spec.Event, err)
	}

	switch activityType {
	case model.ActivityReward:
		player, amount, err := playerAmount(args, "player", "amount")
		if err != nil {
			return nil, err
		}
		return model.RewardData{Player: player, Amount: contracts.FormatEther(amount)}, nil
	case model.ActivityTokenize:
		player, amount, err := playerAmount(args, "player", "amount")
		if err != nil {
			return nil, err
		}
		return model.TokenizeData{Player: player, Amount: contracts.FormatEther(amount)}, nil
	case model.ActivityDetokenize:
		player, amount, err := playerAmount(args, "player", "amount")
		if err != nil {
			return nil, err
		}
		return model.DetokenizeData{Player: player, Amount: contracts.FormatEther(amount)}, nil
	case model.ActivityBurn:
		player, amount, err := playerAmount(args, "player", "amount")
		if err != nil {
			return nil, err
		}
		return model.BurnData{Player: player, Amount: contracts.FormatEther(amount)}, nil
	case model.ActivityTransfer:
		from, err := addressArg(args, "from")
		if err != nil {
			return nil, err
		}
		to, amount, err := playerAmount(args, "to", "value")
		if err != nil {
			return nil, err
		}
		return model.TransferData{From: from.Hex(), To: to, Amount: contracts.FormatEther(amount)}, nil
	case model.ActivityAchievement:
		player, err := addressArg(args, "player")
		if err != nil {
			return nil, err
		}
		id, err := bigIntArg(args, "achievementId")
		if err != nil {
			return nil, err
		}
		if !id.IsUint64() {
			return nil, fmt.Errorf("%w: achievement id overflows uint64: %s", ErrInvalidEvent, id)
		}
		data := model.AchievementData{Player: player.Hex(), AchievementID: id.Uint64()}
		if ts, err := bigIntArg(args, "timestamp"); err == nil && ts.IsUint64() {
			data.UnlockedAt = ts.Uint64()
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidEvent, activityType)
	}
}

// TransferAmount decodes the raw smallest-unit value of a Transfer log.
func TransferAmount(log types.Log) (from, to common.Address, value *big.Int, err error) {
	spec, ok := contracts.EventByType(model.ActivityTransfer)
	if !ok || len(log.Topics) == 0 || log.Topics[0] != spec.Topic {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("%w: not a transfer log", ErrInvalidEvent)
	}
	parsed, err := contracts.ABI(spec.Contract)
	if err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	args, err := unpackEvent(parsed.Events[spec.Event], log)
	if err != nil {
		return common.Address{}, common.Address{}, nil, fmt.Errorf("%w: transfer: %v", ErrInvalidEvent, err)
	}
	if from, err = addressArg(args, "from"); err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	if to, err = addressArg(args, "to"); err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	if value, err = bigIntArg(args, "value"); err != nil {
		return common.Address{}, common.Address{}, nil, err
	}
	return from, to, value, nil
}

func unpackEvent(event abi.Event, log types.Log) (map[string]interface{}, error) {
	indexed := indexedArguments(event.Inputs)
	if len(log.Topics) != len(indexed)+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", len(indexed)+1, len(log.Topics))
	}
	args := make(map[string]interface{}, len(event.Inputs))
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	if err := event.Inputs.NonIndexed().UnpackIntoMap(args, log.Data); err != nil {
		return nil, fmt.Errorf("unpack data: %w", err)
	}
	return args, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func playerAmount(args map[string]interface{}, playerKey, amountKey string) (string, *big.Int, error) {
	player, err := addressArg(args, playerKey)
	if err != nil {
		return "", nil, err
	}
	amount, err := bigIntArg(args, amountKey)
	if err != nil {
		return "", nil, err
	}
	return player.Hex(), amount, nil
}

func addressArg(args map[string]interface{}, key string) (common.Address, error) {
	switch v := args[key].(type) {
	case common.Address:
		return v, nil
	case nil:
		return common.Address{}, fmt.Errorf("%w: %s", ErrMissingArgs, key)
	default:
		return common.Address{}, fmt.Errorf("%w: %s has type %T", ErrInvalidEvent, key, v)
	}
}

func bigIntArg(args map[string]interface{}, key string) (*big.Int, error) {
	switch v := args[key].(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingArgs, key)
		}
		return v, nil
	case nil:
		return nil, fmt.Errorf("%w: %s", ErrMissingArgs, key)
	default:
		return nil, fmt.Errorf("%w: %s has type %T", ErrInvalidEvent, key, v)
	}
}
