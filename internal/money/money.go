// Package money stores amounts as integer cents so sums never drift.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MAX_CENTS is the largest single amount Parse accepts (100 billion).
const MAX_CENTS int64 = 10_000_000_000_000

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOverflow      = errors.New("amount overflow")
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

// Parse converts a decimal string to cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Digits past the
// second decimal place are rounded half-up on the third one:
//
//	Parse("12.34")  -> 1234
//	Parse("12.345") -> 1235
//	Parse("12.344") -> 1234
//
// Signs, exponents and anything that is not a plain decimal are rejected.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if iv > MAX_CENTS/100 {
		return Money{}, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents > MAX_CENTS {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// Add does not check for overflow; use CheckedAdd when summing input.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// CheckedAdd returns ErrOverflow instead of wrapping around.
func (m Money) CheckedAdd(other Money) (Money, error) {
	sum := m.Cents + other.Cents
	if (other.Cents > 0 && sum < m.Cents) || (other.Cents < 0 && sum > m.Cents) {
		return Money{}, ErrOverflow
	}
	return Money{Cents: sum}, nil
}

func (m Money) IsAboveMax() bool {
	return m.Cents > MAX_CENTS
}

func (m Money) IsPositive() bool {
	return m.Cents > 0
}

// String formats the amount with exactly two decimals, e.g. "165.50".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number (45.5) or a numeric string ("45.50").
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return ErrInvalidAmount
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrInvalidAmount
		}
		raw = s
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
