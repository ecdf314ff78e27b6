package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"puzzleScope/internal/activity"
	"puzzleScope/internal/model"
)

const player = "0xAAAaaAAaaaaAAAAAaAAaAaaaAaaAaAAAaAaaAAaa"

type fakeService struct {
	activity   model.Result[model.ActivityEvent]
	balances   model.Result[model.BalancePoint]
	timeframe  model.Timeframe
	summary    model.Summary
	summaryErr error
	roles      model.Roles
}

func (f *fakeService) ActivityEvents(context.Context, string) model.Result[model.ActivityEvent] {
	return f.activity
}

func (f *fakeService) HistoricalBalances(_ context.Context, _ string, timeframe model.Timeframe) model.Result[model.BalancePoint] {
	f.timeframe = timeframe
	return f.balances
}

func (f *fakeService) Summary(context.Context, string) (model.Summary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeService) Achievements(context.Context, string) model.Result[model.Achievement] {
	return model.OK([]model.Achievement{{ID: 1, Name: "First Light", Unlocked: true}})
}

func (f *fakeService) Roles(context.Context, string) (model.Roles, error) {
	return f.roles, nil
}

func (f *fakeService) HasEnoughKeys(_ context.Context, address, amount string) (model.KeyCheck, error) {
	if amount == "lots" {
		return model.KeyCheck{}, fmt.Errorf("%w: %q", activity.ErrInvalidAmount, amount)
	}
	return model.KeyCheck{Address: address, Amount: amount, HasEnough: amount == "1.0"}, nil
}

func (f *fakeService) AchievementUnlocked(_ context.Context, address string, id uint64) (model.AchievementStatus, error) {
	return model.AchievementStatus{Address: address, ID: id, Unlocked: id == 7}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, h http.Handler, path string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v (%s)", path, err, rec.Body.String())
	}
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, time.Second).Router()
	code, body := do(t, h, "/health")
	if code != http.StatusOK || !body.Success {
		t.Fatalf("unexpected health response %d %+v", code, body)
	}
}

func TestActivityEndpoint(t *testing.T) {
	svc := &fakeService{activity: model.OK([]model.ActivityEvent{{
		Type:        model.ActivityReward,
		Timestamp:   1_700_000_000,
		BlockNumber: 10,
		TxHash:      "0xabc",
		Data:        model.RewardData{Player: player, Amount: "10.0"},
	}})}
	h := NewHandler(svc, nil, time.Second).Router()

	code, body := do(t, h, "/api/v1/players/"+player+"/activity")
	if code != http.StatusOK || !body.Success {
		t.Fatalf("unexpected response %d %+v", code, body)
	}
	var result struct {
		Status string                `json:"status"`
		Items  []model.ActivityEvent `json:"items"`
	}
	if err := json.Unmarshal(body.Data, &result); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if result.Status != "ok" || len(result.Items) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if data, ok := result.Items[0].Data.(model.RewardData); !ok || data.Amount != "10.0" {
		t.Fatalf("unexpected event data %#v", result.Items[0].Data)
	}
}

func TestActivityEndpointStatuses(t *testing.T) {
	svc := &fakeService{activity: model.Empty[model.ActivityEvent]()}
	h := NewHandler(svc, nil, time.Second).Router()

	code, body := do(t, h, "/api/v1/players/"+player+"/activity")
	if code != http.StatusOK || string(body.Data) != `{"status":"empty","items":[]}` {
		t.Fatalf("unexpected empty response %d %s", code, body.Data)
	}

	svc.activity = model.Failed[model.ActivityEvent](fmt.Errorf("%w: dial tcp", activity.ErrProviderUnavailable))
	code, body = do(t, h, "/api/v1/players/"+player+"/activity")
	if code != http.StatusBadGateway || body.Success || body.Error == "" {
		t.Fatalf("unexpected error response %d %+v", code, body)
	}

	code, _ = do(t, h, "/api/v1/players/0x1234/activity")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid address, got %d", code)
	}
}

func TestBalancesEndpoint(t *testing.T) {
	svc := &fakeService{balances: model.OK([]model.BalancePoint{{Timestamp: 5, Balance: big.NewInt(70)}})}
	h := NewHandler(svc, nil, time.Second).Router()

	code, body := do(t, h, "/api/v1/players/"+player+"/balances")
	if code != http.StatusOK || svc.timeframe != model.TimeframeWeek {
		t.Fatalf("expected default week, got %d %s", code, svc.timeframe)
	}
	if string(body.Data) != `{"status":"ok","items":[{"timestamp":5,"balance":"70"}]}` {
		t.Fatalf("unexpected data %s", body.Data)
	}

	if code, _ := do(t, h, "/api/v1/players/"+player+"/balances?timeframe=month"); code != http.StatusOK || svc.timeframe != model.TimeframeMonth {
		t.Fatalf("expected month, got %d %s", code, svc.timeframe)
	}
	if code, _ := do(t, h, "/api/v1/players/"+player+"/balances?timeframe=year"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown timeframe, got %d", code)
	}
}

func TestSummaryAndRolesEndpoints(t *testing.T) {
	svc := &fakeService{
		summary: model.Summary{Address: player, KeyBalance: "70.0"},
		roles:   model.Roles{Admin: true},
	}
	h := NewHandler(svc, nil, time.Second).Router()

	code, body := do(t, h, "/api/v1/players/"+player+"/summary")
	if code != http.StatusOK {
		t.Fatalf("summary status %d", code)
	}
	var summary model.Summary
	if err := json.Unmarshal(body.Data, &summary); err != nil || summary.KeyBalance != "70.0" {
		t.Fatalf("unexpected summary %s (%v)", body.Data, err)
	}

	code, body = do(t, h, "/api/v1/players/"+player+"/roles")
	if code != http.StatusOK || string(body.Data) != `{"admin":true,"game":false,"minter":false}` {
		t.Fatalf("unexpected roles %d %s", code, body.Data)
	}

	code, _ = do(t, h, "/api/v1/players/"+player+"/achievements")
	if code != http.StatusOK {
		t.Fatalf("achievements status %d", code)
	}

	svc.summaryErr = errors.New("execution reverted")
	if code, _ := do(t, h, "/api/v1/players/"+player+"/summary"); code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", code)
	}
}

func TestKeysEndpoint(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, time.Second).Router()

	code, body := do(t, h, "/api/v1/players/"+player+"/keys?amount=1.0")
	if code != http.StatusOK {
		t.Fatalf("keys status %d", code)
	}
	var check model.KeyCheck
	if err := json.Unmarshal(body.Data, &check); err != nil || !check.HasEnough || check.Amount != "1.0" {
		t.Fatalf("unexpected key check %s (%v)", body.Data, err)
	}

	if code, _ := do(t, h, "/api/v1/players/"+player+"/keys"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 without amount, got %d", code)
	}
	if code, _ := do(t, h, "/api/v1/players/"+player+"/keys?amount=lots"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid amount, got %d", code)
	}
}

func TestAchievementUnlockedEndpoint(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, time.Second).Router()

	code, body := do(t, h, "/api/v1/players/"+player+"/achievements/7")
	if code != http.StatusOK {
		t.Fatalf("achievement status %d", code)
	}
	var status model.AchievementStatus
	if err := json.Unmarshal(body.Data, &status); err != nil || status.ID != 7 || !status.Unlocked {
		t.Fatalf("unexpected achievement status %s (%v)", body.Data, err)
	}
	if code, _ := do(t, h, "/api/v1/players/"+player+"/achievements/seven"); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", code)
	}
}
