package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor units (1/100 of the currency unit).
type Money int64

func MoneyFromUnits(units int64) Money {
	return Money(units * 100)
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid money %q: %w", raw, err)
	}
	*m = Money(math.Round(f * 100))
	return nil
}
