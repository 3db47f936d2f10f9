// Package currency converts gift amounts between riel and dollars at the
// registry's fixed exchange rate.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"wedding-registry/internal/models"
)

// Rate is the number of riel in one dollar.
const Rate = 4000

// divisionPlaces bounds the fractional digits kept when converting riel to
// dollars.
const divisionPlaces = 16

var rate = decimal.NewFromInt(Rate)

// Converted is an amount expressed in both currencies
type Converted struct {
	KHR              decimal.Decimal `json:"khr"`
	USD              decimal.Decimal `json:"usd"`
	Original         decimal.Decimal `json:"original"`
	OriginalCurrency models.Currency `json:"original_currency"`
}

// ToKHR returns amount in riel.
func ToKHR(amount decimal.Decimal, from models.Currency) decimal.Decimal {
	if from == models.CurrencyKHR {
		return amount
	}
	return amount.Mul(rate)
}

// ToUSD returns amount in dollars.
func ToUSD(amount decimal.Decimal, from models.Currency) decimal.Decimal {
	if from == models.CurrencyUSD {
		return amount
	}
	return amount.DivRound(rate, divisionPlaces)
}

// Normalize expresses amount in both currencies.
func Normalize(amount decimal.Decimal, c models.Currency) Converted {
	return Converted{
		KHR:              ToKHR(amount, c),
		USD:              ToUSD(amount, c),
		Original:         amount,
		OriginalCurrency: c,
	}
}

// ParseAmount reads a user supplied amount. Anything that is not a number
// becomes zero; validation of the value happens in the front end.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}
