package layout

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in paise. Summing integers keeps totals independent of
// item order. Arithmetic saturates at MaxMoney and MinMoney instead of
// wrapping.
type Money int64

// Bounds of the Money range.
const (
	MaxMoney = Money(math.MaxInt64)
	MinMoney = Money(math.MinInt64)
)

// Input limits for a single placed item. An item at both limits is worth
// 1e17 paise, far below MaxMoney.
const (
	MaxUnitPrice = 1_000_000_000.0
	MaxQuantity  = 1_000_000
)

// FromFloat converts a rupee amount to Money. NaN and infinities become zero;
// amounts beyond the Money range saturate.
func FromFloat(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Round(v * 100)
	switch {
	case p >= float64(MaxMoney):
		return MaxMoney
	case p <= float64(MinMoney):
		return MinMoney
	}
	return Money(p)
}

// Mul multiplies by a quantity.
func (m Money) Mul(qty int) Money {
	if m == 0 || qty == 0 {
		return 0
	}
	r := m * Money(qty)
	if r/Money(qty) != m || (m == MinMoney && qty == -1) {
		if (m > 0) == (qty > 0) {
			return MaxMoney
		}
		return MinMoney
	}
	return r
}

// Add sums two amounts.
func (m Money) Add(o Money) Money {
	r := m + o
	switch {
	case o > 0 && r < m:
		return MaxMoney
	case o < 0 && r > m:
		return MinMoney
	}
	return r
}

// Float64 returns the amount in rupees.
func (m Money) Float64() float64 { return float64(m) / 100 }

// String renders the amount with two decimals.
func (m Money) String() string {
	return strconv.FormatFloat(m.Float64(), 'f', 2, 64)
}

// Format renders the amount with the rupee sign and locale grouping.
func (m Money) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("₹%.2f", m.Float64())
}

// MarshalJSON encodes the amount as a decimal number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a decimal number.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*m = FromFloat(v)
	return nil
}
