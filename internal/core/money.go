package core

import (
	"strconv"
	"strings"
)

// Dollars returns the value as float64 for display and ratio math only.
// Sums are always computed in cents.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// String formats cents as "$1,234.56" (negative values get a leading "-").
func (m Money) String() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Dollars builds Money from a whole-dollar amount.
func Dollars(d int64) Money {
	return Money{Cents: d * 100}
}
