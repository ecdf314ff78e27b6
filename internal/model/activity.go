package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActivityType tags a classified game event.
type ActivityType string

const (
	ActivityReward      ActivityType = "reward"
	ActivityAchievement ActivityType = "achievement"
	ActivityTokenize    ActivityType = "tokenize"
	ActivityDetokenize  ActivityType = "detokenize"
	ActivityTransfer    ActivityType = "transfer"
	ActivityBurn        ActivityType = "burn"
)

// ActivityTypes lists every known activity type.
var ActivityTypes = []ActivityType{
	ActivityReward,
	ActivityAchievement,
	ActivityTokenize,
	ActivityDetokenize,
	ActivityTransfer,
	ActivityBurn,
}

// ActivityData is the type-specific payload of an ActivityEvent.
type ActivityData interface {
	ActivityType() ActivityType
	// Participants returns the lowercase hex addresses involved, in argument order.
	Participants() []string
}

// ActivityEvent is a classified on-chain occurrence for a player.
type ActivityEvent struct {
	Type        ActivityType `json:"type"`
	Timestamp   uint64       `json:"timestamp"`
	BlockNumber uint64       `json:"block_number"`
	TxHash      string       `json:"tx_hash"`
	LogIndex    uint64       `json:"log_index"`
	Data        ActivityData `json:"data"`
}

// RewardData is the RewardClaimed payload.
type RewardData struct {
	Player string `json:"player"`
	Amount string `json:"amount"`
}

func (RewardData) ActivityType() ActivityType { return ActivityReward }

func (d RewardData) Participants() []string { return []string{lowerHex(d.Player)} }

// AchievementData is the AchievementUnlocked payload. Name is set only after a successful lookup.
type AchievementData struct {
	Player        string `json:"player"`
	AchievementID uint64 `json:"achievement_id"`
	UnlockedAt    uint64 `json:"unlocked_at,omitempty"`
	Name          string `json:"name,omitempty"`
}

func (AchievementData) ActivityType() ActivityType { return ActivityAchievement }

func (d AchievementData) Participants() []string { return []string{lowerHex(d.Player)} }

// TokenizeData is the KeysTokenized payload.
type TokenizeData struct {
	Player string `json:"player"`
	Amount string `json:"amount"`
}

func (TokenizeData) ActivityType() ActivityType { return ActivityTokenize }

func (d TokenizeData) Participants() []string { return []string{lowerHex(d.Player)} }

// DetokenizeData is the KeysDetokenized payload.
type DetokenizeData struct {
	Player string `json:"player"`
	Amount string `json:"amount"`
}

func (DetokenizeData) ActivityType() ActivityType { return ActivityDetokenize }

func (d DetokenizeData) Participants() []string { return []string{lowerHex(d.Player)} }

// BurnData is the KeysBurned payload.
type BurnData struct {
	Player string `json:"player"`
	Amount string `json:"amount"`
}

func (BurnData) ActivityType() ActivityType { return ActivityBurn }

func (d BurnData) Participants() []string { return []string{lowerHex(d.Player)} }

// TransferData is the ERC20 Transfer payload.
type TransferData struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (TransferData) ActivityType() ActivityType { return ActivityTransfer }

func (d TransferData) Participants() []string {
	return []string{lowerHex(d.From), lowerHex(d.To)}
}

// ParseActivityType validates a type tag.
func ParseActivityType(input string) (ActivityType, error) {
	for _, t := range ActivityTypes {
		if string(t) == input {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown activity type: %q", input)
}

// UnmarshalJSON decodes an ActivityEvent, picking the data variant from the type tag.
func (e *ActivityEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type        ActivityType    `json:"type"`
		Timestamp   uint64          `json:"timestamp"`
		BlockNumber uint64          `json:"block_number"`
		TxHash      string          `json:"tx_hash"`
		LogIndex    uint64          `json:"log_index"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var data ActivityData
	switch raw.Type {
	case ActivityReward:
		var d RewardData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode reward data: %w", err)
		}
		data = d
	case ActivityAchievement:
		var d AchievementData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode achievement data: %w", err)
		}
		data = d
	case ActivityTokenize:
		var d TokenizeData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode tokenize data: %w", err)
		}
		data = d
	case ActivityDetokenize:
		var d DetokenizeData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode detokenize data: %w", err)
		}
		data = d
	case ActivityBurn:
		var d BurnData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode burn data: %w", err)
		}
		data = d
	case ActivityTransfer:
		var d TransferData
		if err := json.Unmarshal(raw.Data, &d); err != nil {
			return fmt.Errorf("decode transfer data: %w", err)
		}
		data = d
	default:
		return fmt.Errorf("unknown activity type: %q", raw.Type)
	}

	*e = ActivityEvent{
		Type:        raw.Type,
		Timestamp:   raw.Timestamp,
		BlockNumber: raw.BlockNumber,
		TxHash:      raw.TxHash,
		LogIndex:    raw.LogIndex,
		Data:        data,
	}
	return nil
}

func lowerHex(address string) string {
	return strings.ToLower(address)
}
