package report

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Bounds of the minor-unit amounts go-money can hold.
var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// FormatAmount renders amount in the currency's own notation. Unknown codes
// fall back to a plain two-place number followed by the code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	cur := money.GetCurrency(code)
	if cur == nil {
		return strings.TrimSpace(amount.StringFixed(2) + " " + code)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return strings.TrimSpace(amount.StringFixed(int32(cur.Fraction)) + " " + code)
	}
	return cur.Formatter().Format(minor.IntPart())
}
