package model

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// BalancePoint is a reconstructed token balance at a moment in time.
type BalancePoint struct {
	Timestamp uint64
	Balance   *big.Int
}

type balancePointJSON struct {
	Timestamp uint64 `json:"timestamp"`
	Balance   string `json:"balance"`
}

// MarshalJSON encodes the balance as a base-10 string of the smallest unit.
func (p BalancePoint) MarshalJSON() ([]byte, error) {
	balance := "0"
	if p.Balance != nil {
		balance = p.Balance.String()
	}
	return json.Marshal(balancePointJSON{Timestamp: p.Timestamp, Balance: balance})
}

// UnmarshalJSON decodes a BalancePoint from JSON.
func (p *BalancePoint) UnmarshalJSON(data []byte) error {
	var raw balancePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	balance, ok := new(big.Int).SetString(raw.Balance, 10)
	if !ok {
		return fmt.Errorf("invalid balance: %q", raw.Balance)
	}
	*p = BalancePoint{Timestamp: raw.Timestamp, Balance: balance}
	return nil
}
