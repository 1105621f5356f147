package httpx

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount turns a JSON number like 45 or 45.005 into integer cents,
// rounding half-up at the second decimal.
func ParseAmount(n json.Number) (int64, error) {
	if n == "" {
		return 0, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", n)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// FormatCents renders integer cents with exactly two decimals.
func FormatCents(c int64) string {
	return decimal.New(c, -2).StringFixed(2)
}
