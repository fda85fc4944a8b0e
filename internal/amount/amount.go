package amount

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// WeiDecimals is the fixed-point scale used at the ledger boundary.
const WeiDecimals = 18

// ToWei converts a human decimal string into its 18-decimal fixed-point
// integer representation. Conversion is exact: inputs with more than 18
// fractional digits are rejected rather than rounded.
func ToWei(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", s)
	}

	shifted := d.Shift(WeiDecimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, WeiDecimals)
	}
	return shifted.BigInt(), nil
}

// FromWei converts an 18-decimal fixed-point integer back into a decimal
// string, trimming trailing fractional zeros. FromWei(ToWei(s)) == s for
// any s with at most 18 fractional digits and no redundant zeros.
func FromWei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -WeiDecimals).String()
}

// Positive reports whether the decimal string parses and is strictly
// greater than zero.
func Positive(s string) bool {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return d.IsPositive()
}
