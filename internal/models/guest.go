package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the denomination a gift was recorded in
type Currency string

const (
	CurrencyKHR Currency = "KHR"
	CurrencyUSD Currency = "USD"
)

// PaymentType describes how a gift was handed over
type PaymentType string

const (
	PaymentCash PaymentType = "CASH"
	PaymentABA  PaymentType = "ABA"
	PaymentAC   PaymentType = "AC"
)

// Guest represents an attendee recorded in the gift registry
type Guest struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	NameKm            string          `json:"name_km,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Note              string          `json:"note,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          Currency        `json:"currency"`
	AmountKHR         decimal.Decimal `json:"amount_khr"`
	AmountUSD         decimal.Decimal `json:"amount_usd"`
	PaymentType       PaymentType     `json:"payment_type"`
	InvitationGuestID *int64          `json:"invitation_guest_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// GuestDraft is the write shape for adding or replacing a guest.
// Amount is kept raw so the store can apply its coercion policy.
type GuestDraft struct {
	Name              string      `json:"name" validate:"required"`
	NameKm            string      `json:"name_km"`
	Phone             string      `json:"phone"`
	Note              string      `json:"note"`
	Amount            string      `json:"amount"`
	Currency          Currency    `json:"currency" validate:"oneof=KHR USD"`
	PaymentType       PaymentType `json:"payment_type" validate:"oneof=CASH ABA AC"`
	InvitationGuestID *int64      `json:"invitation_guest_id,omitempty"`
}

// Totals aggregates the whole gift registry
type Totals struct {
	TotalGuests int64           `json:"total_guests"`
	TotalKHR    decimal.Decimal `json:"total_khr"`
	TotalUSD    decimal.Decimal `json:"total_usd"`
	CashTotal   decimal.Decimal `json:"cash_total"`
}
