package chain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// usdcDecimals is the precision of the collateral token.
const usdcDecimals = 6

// FromBaseUnits converts raw token units to USDC.
func FromBaseUnits(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	return decimal.NewFromBigInt(v, -usdcDecimals).InexactFloat64()
}

// ToBaseUnits converts USDC to raw token units, truncating sub-unit dust.
func ToBaseUnits(usdc float64) *big.Int {
	return decimal.NewFromFloat(usdc).Shift(usdcDecimals).Truncate(0).BigInt()
}

// FormatUSDC renders v rounded to token precision without exponent notation.
func FormatUSDC(v float64) string {
	return decimal.NewFromFloat(v).Round(usdcDecimals).String()
}
