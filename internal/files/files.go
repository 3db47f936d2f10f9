// Package files keeps uploaded wedding files and the payment QR code on disk
// next to the registry database.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
)

const (
	MaxFileSize   = 10 << 20
	MaxQRCodeSize = 5 << 20

	// QRCodePixels is the edge length of generated payment QR codes.
	QRCodePixels = 512
)

var qrMimeTypes = []string{"image/png", "image/jpeg", "image/webp"}

// Store is the part of the registry the manager writes file records to
type Store interface {
	AddWeddingFile(ctx context.Context, f models.WeddingFile) (*models.WeddingFile, error)
	AddPaymentQRCode(ctx context.Context, f models.WeddingFile) (*models.WeddingFile, error)
	GetWeddingFiles(ctx context.Context) ([]models.WeddingFile, error)
	GetWeddingFile(ctx context.Context, id int64) (*models.WeddingFile, error)
	DeleteWeddingFile(ctx context.Context, id int64) (int64, error)
}

type Manager struct {
	dir   string
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewManager stores uploads under dir
func NewManager(dir string, store Store, log zerolog.Logger) *Manager {
	return &Manager{
		dir:   dir,
		store: store,
		log:   log.With().Str("component", "Files").Logger(),
		now:   time.Now,
	}
}

// Dir is the uploads directory
func (m *Manager) Dir() string {
	return m.dir
}

// Save copies src into the uploads directory and records it as a document
// slot file. Files over MaxFileSize and files with the same original name
// and size as an existing upload are rejected.
func (m *Manager) Save(ctx context.Context, src io.Reader, originalName string) (*models.WeddingFile, error) {
	originalName = filepath.Base(strings.TrimSpace(originalName))
	if originalName == "" || originalName == "." {
		return nil, errs.New(errs.CodeValidation, "file name is required")
	}

	data, err := readLimited(src, MaxFileSize)
	if err != nil {
		return nil, err
	}
	if err := m.checkDuplicate(ctx, originalName, int64(len(data))); err != nil {
		return nil, err
	}

	mimeType := detectMime(originalName, data)
	kind := models.FileKindDocument
	if strings.HasPrefix(mimeType, "image/") {
		kind = models.FileKindImage
	}

	name := fmt.Sprintf("%d_%s_%s", m.now().UnixMilli(), uuid.NewString(), originalName)
	record := models.WeddingFile{
		Name:         name,
		OriginalName: originalName,
		FilePath:     filepath.Join(m.dir, name),
		FileSize:     int64(len(data)),
		MimeType:     mimeType,
		FileType:     kind,
		Type:         models.FileSlotDocument,
	}
	if err := m.write(record.FilePath, data); err != nil {
		return nil, err
	}
	saved, err := m.store.AddWeddingFile(ctx, record)
	if err != nil {
		m.remove(record.FilePath)
		return nil, err
	}
	m.log.Info().Str("file", saved.Name).Str("mime_type", mimeType).Int64("size", saved.FileSize).Msg("File uploaded")
	return saved, nil
}

// SaveFile is Save for a file on local disk
func (m *Manager) SaveFile(ctx context.Context, path string) (*models.WeddingFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return m.Save(ctx, f, filepath.Base(path))
}

// SaveQRCode replaces the payment QR code with the image read from src.
// Only PNG, JPEG and WebP images up to MaxQRCodeSize are accepted.
func (m *Manager) SaveQRCode(ctx context.Context, src io.Reader, originalName string) (*models.WeddingFile, error) {
	data, err := readLimited(src, MaxQRCodeSize)
	if err != nil {
		return nil, err
	}
	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), qrMimeTypes...) {
		return nil, errs.New(errs.CodeValidation, "payment QR code must be a PNG, JPEG or WebP image").
			WithDetails(map[string]string{"mime_type": detected.String()})
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = detected.Extension()
	}
	return m.storeQRCode(ctx, data, filepath.Base(originalName), detected.String(), ext)
}

// GenerateQRCode renders payload as a PNG QR code and makes it the payment
// QR code.
func (m *Manager) GenerateQRCode(ctx context.Context, payload string) (*models.WeddingFile, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, errs.New(errs.CodeValidation, "QR code payload is required")
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, QRCodePixels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return m.storeQRCode(ctx, png, "generated.png", "image/png", ".png")
}

func (m *Manager) storeQRCode(ctx context.Context, data []byte, originalName, mimeType, ext string) (*models.WeddingFile, error) {
	name := fmt.Sprintf("qr_code_%d%s", m.now().UnixMilli(), ext)
	record := models.WeddingFile{
		Name:         name,
		OriginalName: originalName,
		FileSize:     int64(len(data)),
		MimeType:     mimeType,
		FileType:     models.FileKindImage,
		FilePath:     filepath.Join(m.dir, name),
		Type:         models.FileSlotQRCode,
	}

	if err := m.write(record.FilePath, data); err != nil {
		return nil, err
	}

	previous, err := m.currentQRCode(ctx)
	if err != nil {
		m.remove(record.FilePath)
		return nil, err
	}
	saved, err := m.store.AddPaymentQRCode(ctx, record)
	if err != nil {
		m.remove(record.FilePath)
		return nil, err
	}
	if previous != nil && previous.FilePath != saved.FilePath {
		m.remove(previous.FilePath)
	}
	m.log.Info().Str("file", saved.Name).Int64("size", saved.FileSize).Msg("Payment QR code replaced")
	return saved, nil
}

func (m *Manager) currentQRCode(ctx context.Context) (*models.WeddingFile, error) {
	list, err := m.store.GetWeddingFiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Type == models.FileSlotQRCode {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Delete removes the file record and then the file itself. A file already
// gone from disk is not an error.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	f, err := m.store.GetWeddingFile(ctx, id)
	if err != nil {
		return err
	}
	if _, err := m.store.DeleteWeddingFile(ctx, id); err != nil {
		return err
	}
	if err := os.Remove(f.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", f.FilePath, err)
	}
	m.log.Info().Int64("id", id).Str("file", f.Name).Msg("File deleted")
	return nil
}

func (m *Manager) checkDuplicate(ctx context.Context, originalName string, size int64) error {
	existing, err := m.store.GetWeddingFiles(ctx)
	if err != nil {
		return err
	}
	for _, f := range existing {
		if f.Type == models.FileSlotDocument && f.OriginalName == originalName && f.FileSize == size {
			return errs.New(errs.CodeValidation, originalName+" has already been uploaded").
				WithDetails(map[string]any{"existing_id": f.ID})
		}
	}
	return nil
}

func (m *Manager) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (m *Manager) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.log.Warn().Err(err).Str("path", path).Msg("Could not remove file")
	}
}

func readLimited(src io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n > limit {
		return nil, errs.New(errs.CodeValidation, fmt.Sprintf("file is larger than %d MB", limit>>20))
	}
	return buf.Bytes(), nil
}

// detectMime prefers the extension and falls back to sniffing the content.
func detectMime(name string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return mt
}
