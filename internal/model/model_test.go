package model

import (
	"encoding/json"
	"errors"
	"math/big"
	"reflect"
	"testing"
)

func TestActivityEventJSONPicksVariant(t *testing.T) {
	events := []ActivityEvent{
		{Type: ActivityReward, Timestamp: 10, BlockNumber: 1, TxHash: "0x01", LogIndex: 0, Data: RewardData{Player: "0xaa", Amount: "1.0"}},
		{Type: ActivityAchievement, Timestamp: 11, BlockNumber: 2, TxHash: "0x02", LogIndex: 1, Data: AchievementData{Player: "0xaa", AchievementID: 7, UnlockedAt: 11, Name: "First Flight"}},
		{Type: ActivityTransfer, Timestamp: 12, BlockNumber: 3, TxHash: "0x03", LogIndex: 2, Data: TransferData{From: "0xaa", To: "0xbb", Amount: "0.5"}},
		{Type: ActivityBurn, Timestamp: 13, BlockNumber: 4, TxHash: "0x04", LogIndex: 3, Data: BurnData{Player: "0xaa", Amount: "2.0"}},
	}

	for _, event := range events {
		b, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal %s: %v", event.Type, err)
		}
		var decoded ActivityEvent
		if err := json.Unmarshal(b, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", event.Type, err)
		}
		if !reflect.DeepEqual(event, decoded) {
			t.Fatalf("%s mismatch: %+v != %+v", event.Type, event, decoded)
		}
	}
}

func TestActivityEventJSONUnknownType(t *testing.T) {
	var event ActivityEvent
	if err := json.Unmarshal([]byte(`{"type":"swap","data":{}}`), &event); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestAchievementNameOmittedWhenUnset(t *testing.T) {
	b, err := json.Marshal(AchievementData{Player: "0xaa", AchievementID: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["name"]; ok {
		t.Fatalf("name should be omitted: %s", b)
	}
}

func TestTransferParticipantsLowercase(t *testing.T) {
	data := TransferData{From: "0xAbC", To: "0xDeF"}
	if got := data.Participants(); !reflect.DeepEqual(got, []string{"0xabc", "0xdef"}) {
		t.Fatalf("unexpected participants: %v", got)
	}
}

func TestParseActivityType(t *testing.T) {
	for _, activityType := range ActivityTypes {
		got, err := ParseActivityType(string(activityType))
		if err != nil || got != activityType {
			t.Fatalf("parse %s: %v %v", activityType, got, err)
		}
	}
	if _, err := ParseActivityType("swap"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseTimeframe(t *testing.T) {
	cases := map[string]uint64{"day": DayBlocks, " Week ": WeekBlocks, "MONTH": MonthBlocks}
	for input, blocks := range cases {
		tf, err := ParseTimeframe(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if tf.Blocks() != blocks {
			t.Fatalf("%q blocks = %d, want %d", input, tf.Blocks(), blocks)
		}
	}
	if _, err := ParseTimeframe("year"); err == nil {
		t.Fatalf("expected error for year")
	}
	if Timeframe("year").Blocks() != 0 {
		t.Fatalf("unknown timeframe should cover no blocks")
	}
}

func TestBalancePointJSON(t *testing.T) {
	balance, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	point := BalancePoint{Timestamp: 42, Balance: balance}

	b, err := json.Marshal(point)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"timestamp":42,"balance":"123456789012345678901234567890"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	var decoded BalancePoint
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Timestamp != 42 || decoded.Balance.Cmp(balance) != 0 {
		t.Fatalf("unexpected point: %+v", decoded)
	}

	if err := json.Unmarshal([]byte(`{"timestamp":1,"balance":"1.5"}`), &decoded); err == nil {
		t.Fatalf("expected error for fractional balance")
	}
}

func TestResultStatus(t *testing.T) {
	if r := OK([]int{}); !r.IsEmpty() {
		t.Fatalf("OK of nothing should be empty, got %s", r.Status)
	}
	if r := OK([]int{1}); r.Status != StatusOK {
		t.Fatalf("expected ok, got %s", r.Status)
	}
	failed := Failed[int](errors.New("rpc down"))
	if !failed.IsError() || failed.IsEmpty() {
		t.Fatalf("failed result should be an error, got %s", failed.Status)
	}

	b, err := json.Marshal(failed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"status":"error","items":[],"error":"rpc down"}` {
		t.Fatalf("unexpected json: %s", b)
	}

	b, err = json.Marshal(Empty[int]())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"status":"empty","items":[]}` {
		t.Fatalf("unexpected json: %s", b)
	}
}

func TestLogRecordKeyAndDecodeError(t *testing.T) {
	record := LogRecord{
		ChainID:     97,
		BlockNumber: 36000000,
		TxHash:      "0xdef456",
		LogIndex:    12,
		Contract:    "GameToken",
		Address:     "0x1111111111111111111111111111111111111111",
		Topics:      []string{"0xaaa", "0xbbb"},
	}
	if got := record.Key(); got != "36000000:0xdef456:12" {
		t.Fatalf("unexpected key: %s", got)
	}

	decodeErr := NewDecodeError(record, errors.New("bad data"))
	want := DecodeError{
		ChainID:     97,
		BlockNumber: 36000000,
		TxHash:      "0xdef456",
		LogIndex:    12,
		Contract:    "GameToken",
		Address:     "0x1111111111111111111111111111111111111111",
		Topic0:      "0xaaa",
		Error:       "bad data",
	}
	if !reflect.DeepEqual(decodeErr, want) {
		t.Fatalf("unexpected decode error: %+v", decodeErr)
	}
	if NewDecodeError(LogRecord{}, errors.New("x")).Topic0 != "" {
		t.Fatalf("topic0 should be empty without topics")
	}
}
