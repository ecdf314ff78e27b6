package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"puzzleScope/internal/model"
)

// Access-control role identifiers shared by the game contracts.
var (
	RoleAdmin  = crypto.Keccak256Hash([]byte("ADMIN_ROLE"))
	RoleGame   = crypto.Keccak256Hash([]byte("GAME_ROLE"))
	RoleMinter = crypto.Keccak256Hash([]byte("MINTER_ROLE"))
)

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Addresses holds the deployed game contract addresses.
type Addresses struct {
	GameToken      common.Address
	RewardPool     common.Address
	SpacePuzzleNFT common.Address
}

// Of returns the address of a named contract.
func (a Addresses) Of(name Name) (common.Address, error) {
	switch name {
	case GameToken:
		return a.GameToken, nil
	case RewardPool:
		return a.RewardPool, nil
	case SpacePuzzleNFT:
		return a.SpacePuzzleNFT, nil
	default:
		return common.Address{}, fmt.Errorf("unknown contract: %s", name)
	}
}

// ParseAddresses validates hex contract addresses.
func ParseAddresses(gameToken, rewardPool, nft string) (Addresses, error) {
	inputs := []struct{ label, value string }{
		{"game token", gameToken},
		{"reward pool", rewardPool},
		{"nft", nft},
	}
	for _, input := range inputs {
		if !common.IsHexAddress(input.value) {
			return Addresses{}, fmt.Errorf("invalid %s address: %q", input.label, input.value)
		}
	}
	return Addresses{
		GameToken:      common.HexToAddress(gameToken),
		RewardPool:     common.HexToAddress(rewardPool),
		SpacePuzzleNFT: common.HexToAddress(nft),
	}, nil
}

// Reader performs typed view calls against the game contracts.
type Reader struct {
	caller    Caller
	addresses Addresses
}

func NewReader(caller Caller, addresses Addresses) *Reader {
	return &Reader{caller: caller, addresses: addresses}
}

// Addresses returns the configured contract addresses.
func (r *Reader) Addresses() Addresses {
	return r.addresses
}

// KeyBalance returns the player's key token balance in the smallest unit.
func (r *Reader) KeyBalance(ctx context.Context, player common.Address) (*big.Int, error) {
	values, err := r.call(ctx, GameToken, "keyBalance", player)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// HasEnoughKeys reports whether the player holds at least amount keys.
func (r *Reader) HasEnoughKeys(ctx context.Context, player common.Address, amount *big.Int) (bool, error) {
	values, err := r.call(ctx, GameToken, "hasEnoughKeys", player, amount)
	if err != nil {
		return false, err
	}
	return asBool(values[0])
}

// CanClaimReward reports whether the daily reward is claimable.
func (r *Reader) CanClaimReward(ctx context.Context, player common.Address) (bool, error) {
	values, err := r.call(ctx, RewardPool, "canClaimReward", player)
	if err != nil {
		return false, err
	}
	return asBool(values[0])
}

// ConsecutiveDays returns the player's uninterrupted daily claim streak.
func (r *Reader) ConsecutiveDays(ctx context.Context, player common.Address) (uint64, error) {
	values, err := r.call(ctx, RewardPool, "getConsecutiveDays", player)
	if err != nil {
		return 0, err
	}
	return asUint64(values[0])
}

// NextRewardAmount returns the amount the next claim would pay out.
func (r *Reader) NextRewardAmount(ctx context.Context, player common.Address) (*big.Int, error) {
	values, err := r.call(ctx, RewardPool, "getNextRewardAmount", player)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// LastClaimTime returns the unix time of the player's last claim.
func (r *Reader) LastClaimTime(ctx context.Context, player common.Address) (uint64, error) {
	values, err := r.call(ctx, RewardPool, "getLastClaimTime", player)
	if err != nil {
		return 0, err
	}
	return asUint64(values[0])
}

// RewardPoolBalance returns the reward token balance held by the pool.
func (r *Reader) RewardPoolBalance(ctx context.Context) (*big.Int, error) {
	values, err := r.call(ctx, RewardPool, "rewardToken")
	if err != nil {
		return nil, err
	}
	token, err := asAddress(values[0])
	if err != nil {
		return nil, fmt.Errorf("reward token: %w", err)
	}

	erc20, err := ERC20ABI()
	if err != nil {
		return nil, err
	}
	values, err = r.callAt(ctx, token, erc20, "balanceOf", r.addresses.RewardPool)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// PlayerAchievements returns the achievement ids unlocked by the player.
func (r *Reader) PlayerAchievements(ctx context.Context, player common.Address) ([]uint64, error) {
	values, err := r.call(ctx, SpacePuzzleNFT, "getPlayerAchievements", player)
	if err != nil {
		return nil, err
	}
	ids, err := asBigIntSlice(values[0])
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !id.IsUint64() {
			return nil, fmt.Errorf("achievement id overflow: %s", id)
		}
		out = append(out, id.Uint64())
	}
	return out, nil
}

// Achievement reads an achievement definition by id.
func (r *Reader) Achievement(ctx context.Context, id uint64) (model.Achievement, error) {
	values, err := r.call(ctx, SpacePuzzleNFT, "achievements", new(big.Int).SetUint64(id))
	if err != nil {
		return model.Achievement{}, err
	}
	if len(values) != 5 {
		return model.Achievement{}, fmt.Errorf("unexpected achievement values: %d", len(values))
	}

	name, err := asString(values[0])
	if err != nil {
		return model.Achievement{}, fmt.Errorf("name: %w", err)
	}
	description, err := asString(values[1])
	if err != nil {
		return model.Achievement{}, fmt.Errorf("description: %w", err)
	}
	rarity, err := asUint8(values[2])
	if err != nil {
		return model.Achievement{}, fmt.Errorf("rarity: %w", err)
	}
	score, err := asBigInt(values[3])
	if err != nil {
		return model.Achievement{}, fmt.Errorf("required score: %w", err)
	}
	level, err := asBigInt(values[4])
	if err != nil {
		return model.Achievement{}, fmt.Errorf("required level: %w", err)
	}

	return model.Achievement{
		ID:            id,
		Name:          name,
		Description:   description,
		Rarity:        rarity,
		RequiredScore: score.String(),
		RequiredLevel: level.String(),
	}, nil
}

// IsAchievementUnlocked reports whether the player owns the achievement.
func (r *Reader) IsAchievementUnlocked(ctx context.Context, player common.Address, id uint64) (bool, error) {
	values, err := r.call(ctx, SpacePuzzleNFT, "isAchievementUnlocked", player, new(big.Int).SetUint64(id))
	if err != nil {
		return false, err
	}
	return asBool(values[0])
}

// HasRole checks an access-control role on a game contract.
func (r *Reader) HasRole(ctx context.Context, contract Name, role common.Hash, account common.Address) (bool, error) {
	values, err := r.call(ctx, contract, "hasRole", [32]byte(role), account)
	if err != nil {
		return false, err
	}
	return asBool(values[0])
}

// Roles reads the admin, game and minter roles on GameToken.
func (r *Reader) Roles(ctx context.Context, account common.Address) (model.Roles, error) {
	var roles model.Roles
	var err error
	if roles.Admin, err = r.HasRole(ctx, GameToken, RoleAdmin, account); err != nil {
		return model.Roles{}, fmt.Errorf("admin role: %w", err)
	}
	if roles.Game, err = r.HasRole(ctx, GameToken, RoleGame, account); err != nil {
		return model.Roles{}, fmt.Errorf("game role: %w", err)
	}
	if roles.Minter, err = r.HasRole(ctx, GameToken, RoleMinter, account); err != nil {
		return model.Roles{}, fmt.Errorf("minter role: %w", err)
	}
	return roles, nil
}

func (r *Reader) call(ctx context.Context, contract Name, method string, args ...interface{}) ([]interface{}, error) {
	parsed, err := ABI(contract)
	if err != nil {
		return nil, fmt.Errorf("parse %s abi: %w", contract, err)
	}
	address, err := r.addresses.Of(contract)
	if err != nil {
		return nil, err
	}
	return r.callAt(ctx, address, parsed, method, args...)
}

func (r *Reader) callAt(ctx context.Context, address common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	if r.caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &address, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}
