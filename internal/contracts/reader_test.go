package contracts

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type stubCall struct {
	to     common.Address
	method abi.Method
	result []interface{}
	err    error
}

type stubCaller struct {
	calls []stubCall
	seen  []string
}

func (s *stubCaller) on(t *testing.T, to common.Address, parsed abi.ABI, method string, result ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		t.Fatalf("method %s not in abi", method)
	}
	s.calls = append(s.calls, stubCall{to: to, method: m, result: result})
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	for _, call := range s.calls {
		if msg.To == nil || *msg.To != call.to || !bytes.HasPrefix(msg.Data, call.method.ID) {
			continue
		}
		s.seen = append(s.seen, call.method.Name)
		if call.err != nil {
			return nil, call.err
		}
		return call.method.Outputs.Pack(call.result...)
	}
	return nil, fmt.Errorf("no stub for call to %s", msg.To.Hex())
}

func testAddresses() Addresses {
	return Addresses{
		GameToken:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		RewardPool:     common.HexToAddress("0x2222222222222222222222222222222222222222"),
		SpacePuzzleNFT: common.HexToAddress("0x3333333333333333333333333333333333333333"),
	}
}

func mustABI(t *testing.T, name Name) abi.ABI {
	t.Helper()
	parsed, err := ABI(name)
	if err != nil {
		t.Fatalf("abi %s: %v", name, err)
	}
	return parsed
}

func TestReaderKeyBalanceAndAchievement(t *testing.T) {
	addrs := testAddresses()
	player := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	caller := &stubCaller{}

	balance, _ := new(big.Int).SetString("70000000000000000000", 10)
	caller.on(t, addrs.GameToken, mustABI(t, GameToken), "keyBalance", balance)
	caller.on(t, addrs.SpacePuzzleNFT, mustABI(t, SpacePuzzleNFT), "achievements",
		"First Steps", "Solve a puzzle", uint8(2), big.NewInt(100), big.NewInt(1))
	caller.on(t, addrs.SpacePuzzleNFT, mustABI(t, SpacePuzzleNFT), "getPlayerAchievements",
		[]*big.Int{big.NewInt(1), big.NewInt(3)})

	reader := NewReader(caller, addrs)
	ctx := context.Background()

	got, err := reader.KeyBalance(ctx, player)
	if err != nil {
		t.Fatalf("key balance: %v", err)
	}
	if got.Cmp(balance) != 0 {
		t.Fatalf("balance mismatch: %s", got)
	}

	achievement, err := reader.Achievement(ctx, 1)
	if err != nil {
		t.Fatalf("achievement: %v", err)
	}
	if achievement.Name != "First Steps" || achievement.Rarity != 2 || achievement.RequiredScore != "100" {
		t.Fatalf("achievement mismatch: %+v", achievement)
	}

	ids, err := reader.PlayerAchievements(ctx, player)
	if err != nil {
		t.Fatalf("player achievements: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("ids mismatch: %v", ids)
	}
}

func TestReaderRewardPoolBalance(t *testing.T) {
	addrs := testAddresses()
	token := common.HexToAddress("0x4444444444444444444444444444444444444444")
	caller := &stubCaller{}

	erc20, err := ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	caller.on(t, addrs.RewardPool, mustABI(t, RewardPool), "rewardToken", token)
	caller.on(t, token, erc20, "balanceOf", big.NewInt(5000))

	got, err := NewReader(caller, addrs).RewardPoolBalance(context.Background())
	if err != nil {
		t.Fatalf("reward pool balance: %v", err)
	}
	if got.Int64() != 5000 {
		t.Fatalf("balance mismatch: %s", got)
	}
}

func TestReaderRoles(t *testing.T) {
	addrs := testAddresses()
	caller := &stubCaller{}
	caller.on(t, addrs.GameToken, mustABI(t, GameToken), "hasRole", true)

	roles, err := NewReader(caller, addrs).Roles(context.Background(), common.HexToAddress("0xaa"))
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	if !roles.Admin || !roles.Game || !roles.Minter {
		t.Fatalf("roles mismatch: %+v", roles)
	}
	if len(caller.seen) != 3 {
		t.Fatalf("expected 3 hasRole calls, got %d", len(caller.seen))
	}
}

func TestReaderCallError(t *testing.T) {
	addrs := testAddresses()
	caller := &stubCaller{}
	parsed := mustABI(t, RewardPool)
	caller.calls = append(caller.calls, stubCall{to: addrs.RewardPool, method: parsed.Methods["canClaimReward"], err: fmt.Errorf("boom")})

	if _, err := NewReader(caller, addrs).CanClaimReward(context.Background(), common.HexToAddress("0xaa")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseAddresses(t *testing.T) {
	if _, err := ParseAddresses("0x1111111111111111111111111111111111111111", "nope", "0x3333333333333333333333333333333333333333"); err == nil {
		t.Fatalf("expected invalid address error")
	}
	addrs, err := ParseAddresses(
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
	)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addrs != testAddresses() {
		t.Fatalf("addresses mismatch: %+v", addrs)
	}
}
