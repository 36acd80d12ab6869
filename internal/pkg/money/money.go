// Package money holds the fixed-point arithmetic used for every balance,
// commission and proration computation. Amounts are integer counts of the
// smallest currency unit; there is no floating point anywhere in this package.
package money

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RateScale is the number of basis points that make up a rate of 1.0.
const RateScale = 10000

var (
	ErrInvalidRate = errors.New("invalid rate")
	ErrDivByZero   = errors.New("division by zero")
)

// Amount is a signed count of minor currency units.
type Amount int64

// Rate is a fraction expressed in basis points (10000 = 1.0).
type Rate int64

func (a Amount) Int64() int64 { return int64(a) }

func (a Amount) Neg() Amount { return -a }

func (a Amount) IsPositive() bool { return a > 0 }

func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// String renders the amount with thousands separators, e.g. "-1,250,000".
func (a Amount) String() string {
	digits := strconv.FormatInt(int64(a), 10)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}

// ParseRate converts a decimal string in [0, 1] into basis points. Precision
// finer than one basis point is rejected rather than rounded.
func ParseRate(s string) (Rate, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %s", ErrInvalidRate, s, err.Error())
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("%w: %q must be between 0 and 1", ErrInvalidRate, s)
	}

	bps := d.Mul(decimal.NewFromInt(RateScale))
	if !bps.Equal(bps.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q is finer than one basis point", ErrInvalidRate, s)
	}
	return Rate(bps.IntPart()), nil
}

// MustParseRate is ParseRate for constants and tests.
func MustParseRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rate) Valid() bool { return r >= 0 && r <= RateScale }

func (r Rate) BasisPoints() int64 { return int64(r) }

// String renders the rate as a decimal fraction, e.g. "0.05".
func (r Rate) String() string {
	return decimal.New(int64(r), -4).String()
}

// MulDiv returns a*b/c truncated toward zero without intermediate overflow.
func MulDiv(a, b, c int64) int64 {
	if c == 0 {
		panic(ErrDivByZero)
	}
	if a == 0 || b == 0 {
		return 0
	}
	if a != math.MinInt64 && b != math.MinInt64 {
		p := a * b
		if p/b == a {
			return p / c
		}
	}

	p := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return p.Quo(p, big.NewInt(c)).Int64()
}

// Split divides a gross amount into the part kept by the payee and the
// platform commission. commission = floor(amount * rate), so
// net + commission == amount always holds.
func Split(amount Amount, rate Rate) (net Amount, commission Amount) {
	if amount <= 0 || rate <= 0 {
		return amount, 0
	}
	if rate > RateScale {
		rate = RateScale
	}
	commission = Amount(MulDiv(int64(amount), int64(rate), RateScale))
	return amount - commission, commission
}

// Prorate returns the unused share of price for daysRemaining out of
// cycleDays, truncated. daysRemaining is clamped to [0, cycleDays].
func Prorate(price Amount, daysRemaining, cycleDays int) Amount {
	if cycleDays <= 0 || price <= 0 {
		return 0
	}
	if daysRemaining < 0 {
		daysRemaining = 0
	}
	if daysRemaining > cycleDays {
		daysRemaining = cycleDays
	}
	return Amount(MulDiv(int64(price), int64(daysRemaining), int64(cycleDays)))
}
