// Package money implements the fixed-precision amount type used for every
// transaction amount and account balance.
//
// Values are held as shopspring decimals with two fractional digits and are
// persisted as integer minor units (kobo, cents), so that a storage-side
// "balance = balance + delta" increment is exact on every backend.
package money

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	apperrors "finjournal/internal/errors"
)

// Scale is the number of fractional digits a Money value carries.
const Scale = 2

// MaxMinor bounds the magnitude of every amount and balance in minor units.
// Sums of a few thousand bounded values stay far inside int64.
const MaxMinor int64 = 1_000_000_000_000_000

var (
	minorFactor = decimal.New(1, Scale)
	maxMinor    = decimal.NewFromInt(MaxMinor)
	minMinor    = decimal.NewFromInt(-MaxMinor)
)

// Money is an exact decimal amount. The zero value is 0.00.
type Money struct {
	value decimal.Decimal
}

// Zero is 0.00.
var Zero = Money{}

// Parse parses user input into Money. Signed values are accepted; use
// ParsePositive for transaction amounts. Thousands separators (",", "_")
// and surrounding spaces are tolerated.
func Parse(s string) (Money, error) {
	clean := strings.TrimSpace(s)
	clean = strings.NewReplacer(",", "", "_", "").Replace(clean)
	if clean == "" {
		return Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount is required")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%q is not a number", s))
	}
	return FromDecimal(d)
}

// ParsePositive parses a transaction amount, which must be strictly positive.
func ParsePositive(s string) (Money, error) {
	m, err := Parse(s)
	if err != nil {
		return Zero, err
	}
	if !m.IsPositive() {
		return Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}
	return m, nil
}

// FromDecimal converts d into Money, rejecting values that would lose
// precision or overflow the minor-unit representation.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount,
			fmt.Sprintf("amount has more than %d decimal places", Scale))
	}
	minor := d.Mul(minorFactor)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount is out of range")
	}
	return Money{value: d}, nil
}

// FromFloat converts a float coming from an untrusted decoder (e.g. a
// generated JSON draft). NaN and infinities are rejected.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount is not a finite number")
	}
	return FromDecimal(decimal.NewFromFloat(f).Round(Scale))
}

// FromMinor builds Money from integer minor units.
func FromMinor(minor int64) Money {
	return Money{value: decimal.New(minor, -Scale)}
}

// New builds Money from a whole number of major units.
func New(major int64) Money {
	return Money{value: decimal.NewFromInt(major)}
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money        { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money        { return Money{value: m.value.Abs()} }

func (m Money) IsZero() bool       { return m.value.IsZero() }
func (m Money) IsPositive() bool   { return m.value.IsPositive() }
func (m Money) IsNegative() bool   { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool { return m.value.Equal(n.value) }
func (m Money) Cmp(n Money) int    { return m.value.Cmp(n.value) }

// InRange reports whether m lies within ±MaxMinor minor units.
func (m Money) InRange() bool {
	minor := m.value.Mul(minorFactor)
	return !minor.GreaterThan(maxMinor) && !minor.LessThan(minMinor)
}

// Decimal exposes the underlying decimal for read-only arithmetic.
func (m Money) Decimal() decimal.Decimal { return m.value }

// Minor returns the value in integer minor units.
func (m Money) Minor() int64 {
	return m.value.Mul(minorFactor).IntPart()
}

// String renders the plain decimal with exactly Scale fractional digits.
func (m Money) String() string {
	return m.value.StringFixed(Scale)
}

// Format renders the amount with the symbol and grouping of the given ISO
// currency, e.g. "₦12,500.00" for NGN.
func (m Money) Format(currency string) string {
	return gomoney.New(m.Minor(), currency).Display()
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MarshalJSON encodes Money as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*m = Zero
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer, storing minor units.
func (m Money) Value() (driver.Value, error) {
	return m.Minor(), nil
}

// Scan implements sql.Scanner for minor-unit columns.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Zero
	case int64:
		*m = FromMinor(v)
	case float64:
		// SQLite promotes an overflowing integer expression to REAL.
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= math.MaxInt64 {
			return fmt.Errorf("money: scanned value %g is outside the minor-unit range", v)
		}
		*m = FromMinor(int64(math.Round(v)))
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}

func (m *Money) scanString(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("money: scan %q: %w", s, err)
	}
	*m = FromMinor(d.IntPart())
	return nil
}
