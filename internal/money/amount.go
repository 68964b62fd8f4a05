package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional decimal digits an Amount carries.
// Anything beyond it is dust and is discarded at construction time.
const Scale = 4

var (
	// ErrAmountOverflow is returned when an arithmetic operation would leave
	// the representable range. Callers treat this as fatal; balances must
	// never wrap silently.
	ErrAmountOverflow = errors.New("amount overflow")

	// ErrAmountOutOfRange is returned when a value being constructed cannot
	// fit into the underlying representation.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Amount is a signed fixed-precision currency value stored as an integer
// number of 1/10000 units. All arithmetic is exact: no floating point value
// ever enters it, repeated operations cannot drift, and overflow is an error
// rather than a wrap.
//
// The zero value is zero currency and ready to use.
type Amount struct {
	units int64
}

// Zero is the zero amount.
var Zero = Amount{}

// Parse constructs an Amount from decimal text such as "1.2345".
// Fractional digits beyond Scale are truncated, so "1.23456" parses to the
// same value as "1.2345".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return FromDecimal(d)
}

// FromDecimal converts an exact decimal value into an Amount, truncating
// dust. It is the single construction path shared by text parsing and
// database scans.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	units := d.Truncate(Scale).Shift(Scale).BigInt()
	if !units.IsInt64() {
		return Amount{}, ErrAmountOutOfRange
	}
	return Amount{units: units.Int64()}, nil
}

// FromUnits constructs an Amount from a raw count of 1/10000 units.
func FromUnits(units int64) Amount {
	return Amount{units: units}
}

// Units returns the raw count of 1/10000 units.
func (a Amount) Units() int64 {
	return a.units
}

// Add returns a+b, or ErrAmountOverflow if the sum leaves the representable
// range.
func (a Amount) Add(b Amount) (Amount, error) {
	if b.units > 0 && a.units > math.MaxInt64-b.units {
		return Amount{}, ErrAmountOverflow
	}
	if b.units < 0 && a.units < math.MinInt64-b.units {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{units: a.units + b.units}, nil
}

// Sub returns a-b, or ErrAmountOverflow if the difference leaves the
// representable range. The result may be negative; callers that require a
// non-negative balance check before subtracting.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b.units < 0 && a.units > math.MaxInt64+b.units {
		return Amount{}, ErrAmountOverflow
	}
	if b.units > 0 && a.units < math.MinInt64+b.units {
		return Amount{}, ErrAmountOverflow
	}
	return Amount{units: a.units - b.units}, nil
}

// Cmp returns -1, 0 or +1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.units < b.units:
		return -1
	case a.units > b.units:
		return 1
	default:
		return 0
	}
}

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool {
	return a.units > b.units
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.units < 0
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.units == 0
}

// Decimal returns the exact decimal value, for storage backends that persist
// amounts as NUMERIC.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.units, -Scale)
}

// String renders the amount at the fixed scale, e.g. "2.0000".
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}
