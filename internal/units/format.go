package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders a native-precision integer amount as a decimal string.
func Format(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// Parse reads a human decimal amount ("12.5") into native precision. Digits
// beyond the asset's precision are rejected rather than silently dropped.
func Parse(text string, decimals uint8) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return big.NewInt(0), nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount.Wrapf("%s", text)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", text, decimals)
	}
	out := shifted.BigInt()
	if err := CheckBounds(out); err != nil {
		return nil, err
	}
	return out, nil
}
