package tezos

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ScaleFactor converts between display units and minimal units. Both tez
// (mutez) and the FA2 token use six decimals.
const ScaleFactor = 1_000_000

// ErrInvalidAmount occurs when user input cannot be converted to a positive
// minimal-unit quantity.
var ErrInvalidAmount = errors.New("invalid amount")

var scale = decimal.New(1, 6)

// ToMinimalUnits converts a user-entered decimal string in display units to
// minimal units, flooring any precision beyond six decimals.
func ToMinimalUnits(text string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, text)
	}

	units := d.Mul(scale).Floor()
	if !units.IsPositive() {
		return 0, fmt.Errorf("%w: must be at least 0.000001", ErrInvalidAmount)
	}
	if units.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 {
		return 0, fmt.Errorf("%w: value out of range", ErrInvalidAmount)
	}

	return units.IntPart(), nil
}

// ToDisplayUnits converts minimal units back into display units.
func ToDisplayUnits(minimal int64) decimal.Decimal {
	return decimal.New(minimal, -6)
}
