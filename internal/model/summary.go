package model

// Achievement is the on-chain achievement definition.
type Achievement struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Rarity        uint8  `json:"rarity"`
	RequiredScore string `json:"required_score"`
	RequiredLevel string `json:"required_level"`
	Unlocked      bool   `json:"unlocked"`
}

// RewardStatus captures the daily reward state of a player.
type RewardStatus struct {
	CanClaim          bool   `json:"can_claim"`
	ConsecutiveDays   uint64 `json:"consecutive_days"`
	NextRewardAmount  string `json:"next_reward_amount"`
	LastClaimTime     uint64 `json:"last_claim_time"`
	RewardPoolBalance string `json:"reward_pool_balance"`
}

// Roles reports the access-control roles held on GameToken.
type Roles struct {
	Admin  bool `json:"admin"`
	Game   bool `json:"game"`
	Minter bool `json:"minter"`
}

// Summary is the dashboard overview for a player.
type Summary struct {
	Address             string        `json:"address"`
	KeyBalance          string        `json:"key_balance"`
	KeyBalanceChangePct *float64      `json:"key_balance_change_pct,omitempty"`
	UnlockedCount       *int          `json:"unlocked_count,omitempty"`
	RecentUnlocked      *int          `json:"recent_unlocked,omitempty"`
	Rewards             *RewardStatus `json:"rewards,omitempty"`
	Roles               *Roles        `json:"roles,omitempty"`
	GeneratedAt         uint64        `json:"generated_at"`
}

// KeyCheck answers whether a player holds at least Amount keys.
type KeyCheck struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	HasEnough bool   `json:"has_enough"`
}

// AchievementStatus reports whether a player holds one achievement.
type AchievementStatus struct {
	Address  string `json:"address"`
	ID       uint64 `json:"id"`
	Unlocked bool   `json:"unlocked"`
}
