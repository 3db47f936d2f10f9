package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"wedding-registry/internal/currency"
	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
	"wedding-registry/internal/storage/migrations"
)

// column is a column that databases created by older releases may lack.
type column struct {
	Table string
	Name  string
	DDL   string
}

// requiredColumns is checked on every start; only ADD COLUMN is ever issued.
var requiredColumns = []column{
	{Table: "guests", Name: "amount_khr", DDL: "amount_khr REAL NOT NULL DEFAULT 0"},
	{Table: "guests", Name: "amount_usd", DDL: "amount_usd REAL NOT NULL DEFAULT 0"},
	{Table: "guests", Name: "invitation_guest_id", DDL: "invitation_guest_id INTEGER REFERENCES invitation_guests(id) ON DELETE SET NULL"},
	{Table: "guests", Name: "name_km", DDL: "name_km TEXT"},
	{Table: "wedding_files", Name: "type", DDL: "type TEXT DEFAULT 'document'"},
	{Table: "invitation_guests", Name: "name_km", DDL: "name_km TEXT"},
}

// gooseLogger sends goose output to the store logger at debug level.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), v...)
}

// MigrationReport describes what a Migrate call changed
type MigrationReport struct {
	Applied      []int64  `json:"applied"`
	AddedColumns []string `json:"added_columns"`
	Backfilled   int      `json:"backfilled"`
}

// Changed reports whether the run touched the schema or any row.
func (r MigrationReport) Changed() bool {
	return len(r.Applied) > 0 || len(r.AddedColumns) > 0 || r.Backfilled > 0
}

// Migrate creates missing tables, adds missing columns and fills in derived
// amounts for legacy rows. Safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) (MigrationReport, error) {
	var report MigrationReport

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations.FS,
		goose.WithLogger(gooseLogger{s.log}),
		goose.WithVerbose(s.log.GetLevel() <= zerolog.DebugLevel),
	)
	if err != nil {
		return report, fmt.Errorf("failed to load migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return report, errs.Storage(err, "apply migrations")
	}
	for _, r := range results {
		report.Applied = append(report.Applied, r.Source.Version)
		s.log.Info().Int64("version", r.Source.Version).Dur("took", r.Duration).Msg("Applied migration")
	}

	for _, c := range requiredColumns {
		added, err := s.ensureColumn(ctx, c)
		if err != nil {
			return report, err
		}
		if added {
			report.AddedColumns = append(report.AddedColumns, c.Table+"."+c.Name)
			s.log.Info().Str("table", c.Table).Str("column", c.Name).Msg("Added missing column")
		}
	}

	n, err := s.backfillConversions(ctx)
	if err != nil {
		return report, err
	}
	report.Backfilled = n
	if n > 0 {
		s.log.Info().Int("guests", n).Msg("Updated currency conversions")
	}

	return report, nil
}

func (s *Store) ensureColumn(ctx context.Context, c column) (bool, error) {
	names, err := s.columnNames(ctx, c.Table)
	if err != nil {
		return false, err
	}
	if names[c.Name] {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", c.Table, c.DDL)); err != nil {
		return false, errs.Storage(err, fmt.Sprintf("add column %s.%s", c.Table, c.Name))
	}
	return true, nil
}

func (s *Store) columnNames(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, errs.Storage(err, "read table info")
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, errs.Storage(err, "scan table info")
		}
		names[name] = true
	}
	return names, errs.Storage(rows.Err(), "read table info")
}

// backfillConversions recomputes derived amounts for rows still carrying
// the zero/zero sentinel. Rows whose amount is zero already hold the right
// values and are left alone, so a second run changes nothing.
func (s *Store) backfillConversions(ctx context.Context) (int, error) {
	type legacyRow struct {
		id       int64
		amount   decimal.Decimal
		currency models.Currency
	}

	var updated int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT id, amount, currency FROM guests WHERE amount_khr = 0 AND amount_usd = 0 AND amount != 0")
		if err != nil {
			return errs.Storage(err, "select legacy guests")
		}
		var pending []legacyRow
		for rows.Next() {
			var r legacyRow
			if err := rows.Scan(&r.id, &r.amount, &r.currency); err != nil {
				rows.Close()
				return errs.Storage(err, "scan legacy guest")
			}
			pending = append(pending, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return errs.Storage(err, "select legacy guests")
		}

		for _, r := range pending {
			conv := currency.Normalize(r.amount, r.currency)
			if _, err := tx.ExecContext(ctx, "UPDATE guests SET amount_khr = ?, amount_usd = ? WHERE id = ?",
				conv.KHR, conv.USD, r.id); err != nil {
				return errs.Storage(err, "update legacy guest")
			}
		}
		updated = len(pending)
		return nil
	})
	return updated, err
}
