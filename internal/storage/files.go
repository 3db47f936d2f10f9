package storage

import (
	"context"
	"database/sql"
	"errors"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
)

const fileColumns = "id, name, original_name, file_path, file_size, mime_type, file_type, type, created_at"

func insertFile(ctx context.Context, exec execer, f models.WeddingFile) (int64, error) {
	res, err := exec.ExecContext(ctx, `
		INSERT INTO wedding_files (name, original_name, file_path, file_size, mime_type, file_type, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.OriginalName, f.FilePath, f.FileSize, f.MimeType, string(f.FileType), string(f.Type),
	)
	if err != nil {
		return 0, errs.Storage(err, "insert wedding file")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.Storage(err, "read wedding file id")
	}
	return id, nil
}

// AddWeddingFile records an uploaded file and returns it with its id
func (s *Store) AddWeddingFile(ctx context.Context, f models.WeddingFile) (*models.WeddingFile, error) {
	if f.Type == "" {
		f.Type = models.FileSlotDocument
	}
	if f.Type == models.FileSlotQRCode {
		return s.AddPaymentQRCode(ctx, f)
	}
	id, err := insertFile(ctx, s.db, f)
	if err != nil {
		return nil, err
	}
	return s.GetWeddingFile(ctx, id)
}

// GetWeddingFiles returns every uploaded file, newest first
func (s *Store) GetWeddingFiles(ctx context.Context) ([]models.WeddingFile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+fileColumns+" FROM wedding_files ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, errs.Storage(err, "select wedding files")
	}
	defer rows.Close()

	files := make([]models.WeddingFile, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, errs.Storage(rows.Err(), "select wedding files")
}

// GetWeddingFile returns one file record or a not-found error
func (s *Store) GetWeddingFile(ctx context.Context, id int64) (*models.WeddingFile, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM wedding_files WHERE id = ?", id))
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteWeddingFile removes a file record and returns rows changed
func (s *Store) DeleteWeddingFile(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM wedding_files WHERE id = ?", id)
	if err != nil {
		return 0, errs.Storage(err, "delete wedding file")
	}
	return rowsChanged(res)
}

// GetPaymentQRCode returns the current payment QR code, or nil when none is set
func (s *Store) GetPaymentQRCode(ctx context.Context) (*models.WeddingFile, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM wedding_files WHERE type = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		string(models.FileSlotQRCode)))
	if errs.IsCode(err, errs.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// AddPaymentQRCode replaces the payment QR code slot with f
func (s *Store) AddPaymentQRCode(ctx context.Context, f models.WeddingFile) (*models.WeddingFile, error) {
	f.Type = models.FileSlotQRCode
	if f.FileType == "" {
		f.FileType = models.FileKindImage
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM wedding_files WHERE type = ?", string(models.FileSlotQRCode)); err != nil {
			return errs.Storage(err, "delete previous qr code")
		}
		var err error
		id, err = insertFile(ctx, tx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("id", id).Str("file", f.Name).Msg("Payment QR code replaced")
	return s.GetWeddingFile(ctx, id)
}

func scanFile(row rowScanner) (models.WeddingFile, error) {
	var (
		f        models.WeddingFile
		fileType string
		slot     sql.NullString
	)
	err := row.Scan(&f.ID, &f.Name, &f.OriginalName, &f.FilePath, &f.FileSize, &f.MimeType, &fileType, &slot, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return f, errs.New(errs.CodeNotFound, "wedding file not found")
	}
	if err != nil {
		return f, errs.Storage(err, "scan wedding file")
	}
	f.FileType = models.FileKind(fileType)
	f.Type = models.FileSlotDocument
	if slot.Valid && slot.String != "" {
		f.Type = models.FileSlot(slot.String)
	}
	return f, nil
}
