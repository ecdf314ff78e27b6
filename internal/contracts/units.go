package contracts

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenDecimals is the fixed-point precision of GameToken amounts.
const TokenDecimals = 18

// FormatUnits renders a fixed-point integer as a decimal string with trailing
// fractional zeros trimmed and at least one fractional digit ("1.0", "0.25").
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0.0"
	}
	sign := ""
	abs := new(big.Int).Abs(value)
	if value.Sign() < 0 {
		sign = "-"
	}
	if decimals == 0 {
		return sign + abs.String() + ".0"
	}

	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, denom, new(big.Int))

	fracText := frac.String()
	if pad := int(decimals) - len(fracText); pad > 0 {
		fracText = strings.Repeat("0", pad) + fracText
	}
	fracText = strings.TrimRight(fracText, "0")
	if fracText == "" {
		fracText = "0"
	}
	return sign + whole.String() + "." + fracText
}

// FormatEther formats an 18-decimal amount.
func FormatEther(value *big.Int) string {
	return FormatUnits(value, TokenDecimals)
}

// ParseUnits is the inverse of FormatUnits for non-negative plain decimals
// such as "2", "1.5" or ".25".
func ParseUnits(input string, decimals uint8) (*big.Int, error) {
	input = strings.TrimSpace(input)
	whole, frac, _ := strings.Cut(input, ".")
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount %q", input)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", input, decimals)
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid amount %q", input)
		}
	}
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", input)
	}
	return value, nil
}

// ParseEther parses an 18-decimal amount.
func ParseEther(input string) (*big.Int, error) {
	return ParseUnits(input, TokenDecimals)
}

// ToFloat converts an 18-decimal amount into a float for ratio math.
func ToFloat(value *big.Int) float64 {
	if value == nil {
		return 0
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)
	f, _ := new(big.Rat).SetFrac(value, denom).Float64()
	return f
}
