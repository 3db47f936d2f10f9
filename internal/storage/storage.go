package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"wedding-registry/internal/errs"
)

// Store is the registry's single SQLite connection. Calls are expected to
// be issued one after another from a single control flow.
type Store struct {
	db       *sql.DB
	log      zerolog.Logger
	validate *validator.Validate

	opened MigrationReport
}

// Open opens (or creates) the registry database at path and brings its
// schema up to date.
func Open(ctx context.Context, path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		db:       db,
		log:      log.With().Str("component", "Storage").Logger(),
		validate: newValidator(),
	}

	report, err := s.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	s.opened = report

	s.log.Info().Str("path", path).Msg("Registry database ready")
	return s, nil
}

// OpenReport is what the Migrate run inside Open changed
func (s *Store) OpenReport() MigrationReport {
	return s.opened
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.log.Info().Msg("Registry database closed")
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Storage(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Storage(err, "commit transaction")
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// check validates a draft and reports failures as a validation error.
func (s *Store) check(draft any) error {
	err := s.validate.Struct(draft)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msg := validationMessage(fe)
			details[fe.Field()] = msg
			parts = append(parts, fe.Field()+" "+msg)
		}
		return errs.New(errs.CodeValidation, strings.Join(parts, "; ")).WithDetails(details)
	}
	return errs.Wrap(errs.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return "is invalid"
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func rowsChanged(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Storage(err, "read affected rows")
	}
	return n, nil
}
