package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
)

const invitationColumns = `id, name, name_km, phone, email, address, group_category, note,
	is_imported, created_at, updated_at`

func (s *Store) prepareInvitation(draft models.InvitationGuestDraft) (models.InvitationGuestDraft, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	return draft, s.check(draft)
}

func insertInvitation(ctx context.Context, exec execer, d models.InvitationGuestDraft) (int64, error) {
	res, err := exec.ExecContext(ctx, `
		INSERT INTO invitation_guests (name, name_km, phone, email, address, group_category, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Name, nullString(d.NameKm), nullString(d.Phone), nullString(d.Email),
		nullString(d.Address), nullString(d.GroupCategory), nullString(d.Note),
	)
	if err != nil {
		return 0, errs.Storage(err, "insert invitation guest")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.Storage(err, "read invitation guest id")
	}
	return id, nil
}

// AddInvitationGuest adds a single person to the invitation list
func (s *Store) AddInvitationGuest(ctx context.Context, draft models.InvitationGuestDraft) (int64, error) {
	d, err := s.prepareInvitation(draft)
	if err != nil {
		return 0, err
	}
	return insertInvitation(ctx, s.db, d)
}

// BulkAddInvitationGuests inserts drafts in one transaction. A failing row is
// recorded and skipped; the rest still commit. When any row failed the
// returned error carries CodePartialFailure and the result as details.
func (s *Store) BulkAddInvitationGuests(ctx context.Context, drafts []models.InvitationGuestDraft) (models.BulkResult, error) {
	var result models.BulkResult

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i, draft := range drafts {
			d, err := s.prepareInvitation(draft)
			if err == nil {
				_, err = insertInvitation(ctx, tx, d)
			}
			if err != nil {
				result.ErrorCount++
				result.Errors = append(result.Errors, models.RowError{Row: i + 1, Error: err.Error()})
				s.log.Warn().Err(err).Int("row", i+1).Msg("Skipping invitation row")
				continue
			}
			result.SuccessCount++
		}
		return nil
	})
	if err != nil {
		return models.BulkResult{}, err
	}

	s.log.Info().Int("success", result.SuccessCount).Int("errors", result.ErrorCount).Msg("Bulk invitation insert finished")
	if result.ErrorCount > 0 {
		return result, errs.New(errs.CodePartialFailure,
			fmt.Sprintf("%d of %d rows failed", result.ErrorCount, len(drafts))).WithDetails(result)
	}
	return result, nil
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GetInvitationGuests lists invitation guests matching filter, newest first
func (s *Store) GetInvitationGuests(ctx context.Context, filter models.InvitationFilter) ([]models.InvitationGuest, error) {
	query := "SELECT " + invitationColumns + " FROM invitation_guests WHERE 1=1"
	var args []any

	if filter.Search != "" {
		query += ` AND (name LIKE ? ESCAPE '\' OR name_km LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')`
		term := "%" + likeEscaper.Replace(filter.Search) + "%"
		args = append(args, term, term, term, term)
	}
	if filter.GroupCategory != "" {
		query += " AND group_category = ?"
		args = append(args, filter.GroupCategory)
	}
	if filter.IsImported != nil {
		query += " AND is_imported = ?"
		args = append(args, *filter.IsImported)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Storage(err, "select invitation guests")
	}
	defer rows.Close()

	guests := make([]models.InvitationGuest, 0)
	for rows.Next() {
		g, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, errs.Storage(rows.Err(), "select invitation guests")
}

// GetInvitationGuest returns one invitation guest or a not-found error
func (s *Store) GetInvitationGuest(ctx context.Context, id int64) (*models.InvitationGuest, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+invitationColumns+" FROM invitation_guests WHERE id = ?", id)
	g, err := scanInvitation(row)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateInvitationGuest replaces the editable fields. The imported flag is
// not touched. Returns rows changed.
func (s *Store) UpdateInvitationGuest(ctx context.Context, id int64, draft models.InvitationGuestDraft) (int64, error) {
	d, err := s.prepareInvitation(draft)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE invitation_guests
		SET name = ?, name_km = ?, phone = ?, email = ?, address = ?, group_category = ?, note = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		d.Name, nullString(d.NameKm), nullString(d.Phone), nullString(d.Email),
		nullString(d.Address), nullString(d.GroupCategory), nullString(d.Note), id,
	)
	if err != nil {
		return 0, errs.Storage(err, "update invitation guest")
	}
	return rowsChanged(res)
}

// DeleteInvitationGuest removes an invitation guest and clears any guest
// reference to it.
func (s *Store) DeleteInvitationGuest(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE guests SET invitation_guest_id = NULL WHERE invitation_guest_id = ?", id); err != nil {
			return errs.Storage(err, "unlink guests")
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM invitation_guests WHERE id = ?", id)
		if err != nil {
			return errs.Storage(err, "delete invitation guest")
		}
		n, err = rowsChanged(res)
		return err
	})
	return n, err
}

func markImported(ctx context.Context, exec execer, id int64) (int64, error) {
	res, err := exec.ExecContext(ctx,
		"UPDATE invitation_guests SET is_imported = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return 0, errs.Storage(err, "mark invitation guest imported")
	}
	return rowsChanged(res)
}

// MarkInvitationGuestImported flags an invitation guest as used for a
// registry entry. There is no way back.
func (s *Store) MarkInvitationGuestImported(ctx context.Context, id int64) (int64, error) {
	return markImported(ctx, s.db, id)
}

// GetInvitationGuestStats counts the invitation list
func (s *Store) GetInvitationGuestStats(ctx context.Context) (models.InvitationStats, error) {
	var st models.InvitationStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN is_imported = 1 THEN 1 END),
			COUNT(CASE WHEN is_imported = 0 OR is_imported IS NULL THEN 1 END),
			COUNT(DISTINCT group_category)
		FROM invitation_guests`,
	).Scan(&st.Total, &st.Imported, &st.NotImported, &st.TotalGroups)
	if err != nil {
		return st, errs.Storage(err, "select invitation stats")
	}
	return st, nil
}

// GetGroupCategories lists the distinct non-empty groups, sorted
func (s *Store) GetGroupCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT group_category FROM invitation_guests
		WHERE group_category IS NOT NULL AND group_category != ''
		ORDER BY group_category`)
	if err != nil {
		return nil, errs.Storage(err, "select group categories")
	}
	defer rows.Close()

	groups := make([]string, 0)
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, errs.Storage(err, "scan group category")
		}
		groups = append(groups, g)
	}
	return groups, errs.Storage(rows.Err(), "select group categories")
}

// ClearAllInvitationGuests empties the invitation list and returns how many
// rows were deleted
func (s *Store) ClearAllInvitationGuests(ctx context.Context) (int64, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "UPDATE guests SET invitation_guest_id = NULL WHERE invitation_guest_id IS NOT NULL"); err != nil {
			return errs.Storage(err, "unlink guests")
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM invitation_guests")
		if err != nil {
			return errs.Storage(err, "clear invitation guests")
		}
		n, err = rowsChanged(res)
		return err
	})
	return n, err
}

func scanInvitation(row rowScanner) (models.InvitationGuest, error) {
	var (
		g                                          models.InvitationGuest
		nameKm, phone, email, address, group, note sql.NullString
		imported                                   sql.NullBool
	)
	err := row.Scan(&g.ID, &g.Name, &nameKm, &phone, &email, &address, &group, &note,
		&imported, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, errs.New(errs.CodeNotFound, "invitation guest not found")
	}
	if err != nil {
		return g, errs.Storage(err, "scan invitation guest")
	}
	g.NameKm = nameKm.String
	g.Phone = phone.String
	g.Email = email.String
	g.Address = address.String
	g.GroupCategory = group.String
	g.Note = note.String
	g.IsImported = imported.Bool
	return g, nil
}
