package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-registry/internal/models"
)

func TestToKHR(t *testing.T) {
	assert.True(t, ToKHR(decimal.NewFromInt(2), models.CurrencyUSD).Equal(decimal.NewFromInt(8000)))
	assert.True(t, ToKHR(decimal.NewFromInt(4000), models.CurrencyKHR).Equal(decimal.NewFromInt(4000)))
}

func TestToUSD(t *testing.T) {
	assert.True(t, ToUSD(decimal.NewFromInt(8000), models.CurrencyKHR).Equal(decimal.NewFromInt(2)))
	assert.True(t, ToUSD(decimal.NewFromInt(2), models.CurrencyUSD).Equal(decimal.NewFromInt(2)))
}

func TestNormalize(t *testing.T) {
	got := Normalize(decimal.NewFromInt(4000), models.CurrencyKHR)
	assert.True(t, got.KHR.Equal(decimal.NewFromInt(4000)))
	assert.True(t, got.USD.Equal(decimal.NewFromInt(1)))
	assert.True(t, got.Original.Equal(decimal.NewFromInt(4000)))
	assert.Equal(t, models.CurrencyKHR, got.OriginalCurrency)
}

func TestNormalizeRatioAndExactSide(t *testing.T) {
	amounts := []string{"1", "0.25", "99.99", "12345.678", "400000", "1000000"}

	for _, raw := range amounts {
		for _, c := range []models.Currency{models.CurrencyKHR, models.CurrencyUSD} {
			t.Run(raw+"_"+string(c), func(t *testing.T) {
				amount := decimal.RequireFromString(raw)
				got := Normalize(amount, c)

				if c == models.CurrencyKHR {
					assert.True(t, got.KHR.Equal(amount))
				} else {
					assert.True(t, got.USD.Equal(amount))
				}

				ratio, _ := got.KHR.Div(got.USD).Float64()
				assert.InDelta(t, float64(Rate), ratio, 1e-6)
			})
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, raw := range []string{"0", "1", "0.01", "3.5", "250", "-7.125", "123456789.123"} {
		x := decimal.RequireFromString(raw)
		back := ToUSD(ToKHR(x, models.CurrencyUSD), models.CurrencyKHR)
		require.True(t, back.Equal(x), "round trip of %s gave %s", raw, back)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "100", want: "100"},
		{in: " 12.5 ", want: "12.5"},
		{in: "1,000", want: "1000"},
		{in: "", want: "0"},
		{in: "abc", want: "0"},
		{in: "-20", want: "-20"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseAmount(tt.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}
