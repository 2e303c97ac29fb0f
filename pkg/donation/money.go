package donation

import (
	"math"
	"strconv"
	"strings"
)

// moneyReplacer strips thousands separators and the currency symbol.
var moneyReplacer = strings.NewReplacer(",", "", "$", "")

// ParseMoney converts a currency token such as "$1,234.56" into its numeric
// amount.
//
// ParseMoney never fails: empty input, residual non-numeric characters
// (including the space a "$ 1,000" token keeps), overflow and negative
// values all yield 0. The result is always finite and
// non-negative.
func ParseMoney(s string) float64 {
	cleaned := moneyReplacer.Replace(s)
	if cleaned == "" {
		return 0
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}
