package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Rate
		wantErr bool
	}{
		{"five percent", "0.05", 500, false},
		{"zero", "0", 0, false},
		{"one", "1", RateScale, false},
		{"one basis point", "0.0001", 1, false},
		{"padded", "  0.10 ", 1000, false},
		{"negative", "-0.01", 0, true},
		{"above one", "1.5", 0, true},
		{"too precise", "0.00015", 0, true},
		{"garbage", "ten percent", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateString(t *testing.T) {
	assert.Equal(t, "0.05", Rate(500).String())
	assert.Equal(t, "1", Rate(RateScale).String())
	assert.Equal(t, "0", Rate(0).String())
}

func TestSplit(t *testing.T) {
	t.Run("Transfer Example", func(t *testing.T) {
		net, commission := Split(10000, MustParseRate("0.05"))
		assert.Equal(t, Amount(9500), net)
		assert.Equal(t, Amount(500), commission)
	})

	t.Run("Commission Is Floored", func(t *testing.T) {
		net, commission := Split(999, MustParseRate("0.05"))
		assert.Equal(t, Amount(49), commission)
		assert.Equal(t, Amount(950), net)
	})

	t.Run("Net Plus Commission Equals Amount", func(t *testing.T) {
		rates := []Rate{0, 1, 333, 500, 1250, 9999, RateScale}
		for amount := Amount(1); amount < 5000; amount += 37 {
			for _, rate := range rates {
				net, commission := Split(amount, rate)
				assert.Equal(t, amount, net+commission)
				assert.GreaterOrEqual(t, int64(commission), int64(0))
			}
		}
	})

	t.Run("Zero Rate", func(t *testing.T) {
		net, commission := Split(10000, 0)
		assert.Equal(t, Amount(10000), net)
		assert.Equal(t, Amount(0), commission)
	})
}

func TestProrate(t *testing.T) {
	assert.Equal(t, Amount(33333), Prorate(100000, 10, 30))
	assert.Equal(t, Amount(0), Prorate(100000, -3, 30))
	assert.Equal(t, Amount(100000), Prorate(100000, 45, 30))
	assert.Equal(t, Amount(0), Prorate(100000, 10, 0))
}

func TestMulDiv(t *testing.T) {
	assert.Equal(t, int64(7), MulDiv(22, 1, 3))
	assert.Equal(t, int64(-7), MulDiv(-22, 1, 3), "truncates toward zero")

	// a*b overflows int64 but the quotient fits.
	assert.Equal(t, int64(math.MaxInt64/2), MulDiv(math.MaxInt64, 5000, 10000))

	assert.Panics(t, func() { MulDiv(1, 1, 0) })
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "0", Amount(0).String())
	assert.Equal(t, "950", Amount(950).String())
	assert.Equal(t, "50,000", Amount(50000).String())
	assert.Equal(t, "-1,250,000", Amount(-1250000).String())
}
