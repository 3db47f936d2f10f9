package storage

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
)

func upsertInfo(ctx context.Context, exec execer, key, value string) (int64, error) {
	res, err := exec.ExecContext(ctx, `
		INSERT INTO wedding_info (field_name, field_value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(field_name) DO UPDATE SET field_value = excluded.field_value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return 0, errs.Storage(err, "upsert wedding info")
	}
	return rowsChanged(res)
}

// SetWeddingInfo stores value under key, overwriting any previous value
func (s *Store) SetWeddingInfo(ctx context.Context, key, value string) (int64, error) {
	if key == "" {
		return 0, errs.New(errs.CodeValidation, "field_name is required")
	}
	return upsertInfo(ctx, s.db, key, value)
}

// GetWeddingInfo returns the value under key and whether it was set
func (s *Store) GetWeddingInfo(ctx context.Context, key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT field_value FROM wedding_info WHERE field_name = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Storage(err, "select wedding info")
	}
	return value.String, true, nil
}

// GetAllWeddingInfo loads every stored key
func (s *Store) GetAllWeddingInfo(ctx context.Context) (models.WeddingInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT field_name, field_value FROM wedding_info")
	if err != nil {
		return models.WeddingInfo{}, errs.Storage(err, "select wedding info")
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var (
			key   string
			value sql.NullString
		)
		if err := rows.Scan(&key, &value); err != nil {
			return models.WeddingInfo{}, errs.Storage(err, "scan wedding info")
		}
		values[key] = value.String
	}
	if err := rows.Err(); err != nil {
		return models.WeddingInfo{}, errs.Storage(err, "select wedding info")
	}
	return models.WeddingInfoFromMap(values), nil
}

// SaveWeddingInfo writes all known fields and extras of info at once
func (s *Store) SaveWeddingInfo(ctx context.Context, info models.WeddingInfo) error {
	values := info.Map()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := upsertInfo(ctx, tx, k, values[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Snapshot gathers the read-only view used by exporters
func (s *Store) Snapshot(ctx context.Context) (models.Snapshot, error) {
	guests, err := s.GetGuests(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	totals, err := s.GetTotals(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	info, err := s.GetAllWeddingInfo(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	return models.Snapshot{Guests: guests, Totals: totals, WeddingInfo: info}, nil
}
