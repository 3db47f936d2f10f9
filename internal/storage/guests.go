package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"wedding-registry/internal/currency"
	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
)

const guestColumns = `id, name, name_km, phone, note, amount, currency, amount_khr, amount_usd,
	payment_type, invitation_guest_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// guestValues are the insert/update parameters for a validated draft.
type guestValues struct {
	draft models.GuestDraft
	conv  currency.Converted
}

// prepareGuest applies defaults, validates, and computes derived amounts.
func (s *Store) prepareGuest(draft models.GuestDraft) (guestValues, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Currency == "" {
		draft.Currency = models.CurrencyKHR
	}
	if draft.PaymentType == "" {
		draft.PaymentType = models.PaymentCash
	}
	if err := s.check(draft); err != nil {
		return guestValues{}, err
	}
	return guestValues{
		draft: draft,
		conv:  currency.Normalize(currency.ParseAmount(draft.Amount), draft.Currency),
	}, nil
}

func insertGuest(ctx context.Context, exec execer, v guestValues) (int64, error) {
	d := v.draft
	res, err := exec.ExecContext(ctx, `
		INSERT INTO guests (name, name_km, phone, note, amount, currency, amount_khr, amount_usd, payment_type, invitation_guest_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name, nullString(d.NameKm), d.Phone, d.Note,
		v.conv.Original, string(d.Currency), v.conv.KHR, v.conv.USD,
		string(d.PaymentType), nullInt64(d.InvitationGuestID),
	)
	if err != nil {
		return 0, errs.Storage(err, "insert guest")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.Storage(err, "read guest id")
	}
	return id, nil
}

// AddGuest records a new guest and returns its id
func (s *Store) AddGuest(ctx context.Context, draft models.GuestDraft) (int64, error) {
	v, err := s.prepareGuest(draft)
	if err != nil {
		return 0, err
	}
	return insertGuest(ctx, s.db, v)
}

// AddGuestFromInvitation records a guest picked from the invitation list and
// marks that invitation guest as imported in the same transaction.
func (s *Store) AddGuestFromInvitation(ctx context.Context, draft models.GuestDraft) (int64, error) {
	if draft.InvitationGuestID == nil {
		return s.AddGuest(ctx, draft)
	}
	v, err := s.prepareGuest(draft)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = insertGuest(ctx, tx, v); err != nil {
			return err
		}
		_, err = markImported(ctx, tx, *draft.InvitationGuestID)
		return err
	})
	return id, err
}

// UpdateGuest replaces every field of a guest and recomputes its derived
// amounts. It returns the number of rows changed; zero means no such guest.
func (s *Store) UpdateGuest(ctx context.Context, id int64, draft models.GuestDraft) (int64, error) {
	v, err := s.prepareGuest(draft)
	if err != nil {
		return 0, err
	}
	d := v.draft
	res, err := s.db.ExecContext(ctx, `
		UPDATE guests
		SET name = ?, name_km = ?, phone = ?, note = ?, amount = ?, currency = ?, amount_khr = ?, amount_usd = ?,
			payment_type = ?, invitation_guest_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		d.Name, nullString(d.NameKm), d.Phone, d.Note,
		v.conv.Original, string(d.Currency), v.conv.KHR, v.conv.USD,
		string(d.PaymentType), nullInt64(d.InvitationGuestID), id,
	)
	if err != nil {
		return 0, errs.Storage(err, "update guest")
	}
	return rowsChanged(res)
}

// DeleteGuest removes a guest. The linked invitation guest is untouched.
func (s *Store) DeleteGuest(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM guests WHERE id = ?", id)
	if err != nil {
		return 0, errs.Storage(err, "delete guest")
	}
	return rowsChanged(res)
}

// GetGuests returns every guest, newest first
func (s *Store) GetGuests(ctx context.Context) ([]models.Guest, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+guestColumns+" FROM guests ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, errs.Storage(err, "select guests")
	}
	defer rows.Close()

	guests := make([]models.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, errs.Storage(rows.Err(), "select guests")
}

// GetGuest returns a single guest or a not-found error
func (s *Store) GetGuest(ctx context.Context, id int64) (*models.Guest, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+guestColumns+" FROM guests WHERE id = ?", id)
	g, err := scanGuest(row)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetTotals aggregates the registry. CashTotal adds each cash gift's amount
// in the currency it was given in, riel and dollars alike.
func (s *Store) GetTotals(ctx context.Context) (models.Totals, error) {
	var t models.Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount_khr), 0),
			COALESCE(SUM(amount_usd), 0),
			COALESCE(SUM(CASE
				WHEN payment_type = 'CASH' AND currency = 'KHR' THEN amount_khr
				WHEN payment_type = 'CASH' AND currency = 'USD' THEN amount_usd
				ELSE 0 END), 0)
		FROM guests`,
	).Scan(&t.TotalGuests, &t.TotalKHR, &t.TotalUSD, &t.CashTotal)
	if err != nil {
		return t, errs.Storage(err, "select totals")
	}
	return t, nil
}

func scanGuest(row rowScanner) (models.Guest, error) {
	var (
		g              models.Guest
		nameKm         sql.NullString
		phone          sql.NullString
		note           sql.NullString
		invitationID   sql.NullInt64
		currencyCode   string
		paymentTypeRaw string
	)
	err := row.Scan(&g.ID, &g.Name, &nameKm, &phone, &note, &g.Amount, &currencyCode,
		&g.AmountKHR, &g.AmountUSD, &paymentTypeRaw, &invitationID, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, errs.New(errs.CodeNotFound, "guest not found")
	}
	if err != nil {
		return g, errs.Storage(err, "scan guest")
	}
	g.NameKm = nameKm.String
	g.Phone = phone.String
	g.Note = note.String
	g.Currency = models.Currency(currencyCode)
	g.PaymentType = models.PaymentType(paymentTypeRaw)
	if invitationID.Valid {
		id := invitationID.Int64
		g.InvitationGuestID = &id
	}
	return g, nil
}
