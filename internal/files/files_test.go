package files

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
	"wedding-registry/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(context.Background(), filepath.Join(dir, "wedding.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := NewManager(filepath.Join(dir, "uploads"), store, zerolog.Nop())
	tick := time.UnixMilli(1700000000000)
	m.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	return m, store
}

func pngBytes(t *testing.T, content string) []byte {
	t.Helper()
	png, err := qrcode.Encode(content, qrcode.Low, 64)
	require.NoError(t, err)
	return png
}

func TestSaveDocumentAndImage(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	doc, err := m.Save(ctx, strings.NewReader("seating plan"), "plan.txt")
	require.NoError(t, err)
	assert.Regexp(t, `^1700000000001_[0-9a-f-]{36}_plan\.txt$`, doc.Name)
	assert.Equal(t, "plan.txt", doc.OriginalName)
	assert.Equal(t, "text/plain", doc.MimeType)
	assert.Equal(t, models.FileKindDocument, doc.FileType)
	assert.Equal(t, models.FileSlotDocument, doc.Type)
	assert.Equal(t, int64(len("seating plan")), doc.FileSize)

	onDisk, err := os.ReadFile(doc.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "seating plan", string(onDisk))
	assert.Equal(t, m.Dir(), filepath.Dir(doc.FilePath))

	img, err := m.Save(ctx, bytes.NewReader(pngBytes(t, "a")), "photo")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType, "content is sniffed when the name has no extension")
	assert.Equal(t, models.FileKindImage, img.FileType)
}

func TestSaveRejectsDuplicatesAndLargeFiles(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	_, err := m.Save(ctx, strings.NewReader("v1"), "menu.txt")
	require.NoError(t, err)

	_, err = m.Save(ctx, strings.NewReader("v2"), "menu.txt")
	assert.True(t, errs.IsCode(err, errs.CodeValidation), "same name and size is a duplicate")

	_, err = m.Save(ctx, strings.NewReader("version 3"), "menu.txt")
	assert.NoError(t, err, "same name with another size is accepted")

	_, err = m.Save(ctx, bytes.NewReader(make([]byte, MaxFileSize+1)), "video.bin")
	assert.True(t, errs.IsCode(err, errs.CodeValidation))

	_, err = m.Save(ctx, strings.NewReader("x"), "  ")
	assert.True(t, errs.IsCode(err, errs.CodeValidation))

	files, err := store.GetWeddingFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	entries, err := os.ReadDir(m.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSaveQRCodeReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	first, err := m.SaveQRCode(ctx, bytes.NewReader(pngBytes(t, "first")), "aba.PNG")
	require.NoError(t, err)
	assert.Equal(t, "qr_code_1700000000001.png", first.Name)
	assert.Equal(t, models.FileSlotQRCode, first.Type)
	assert.Equal(t, models.FileKindImage, first.FileType)

	second, err := m.SaveQRCode(ctx, bytes.NewReader(pngBytes(t, "second")), "acleda.png")
	require.NoError(t, err)

	current, err := store.GetPaymentQRCode(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)

	_, err = os.Stat(first.FilePath)
	assert.True(t, os.IsNotExist(err), "previous QR image is removed")
	_, err = os.Stat(second.FilePath)
	assert.NoError(t, err)
}

func TestSaveQRCodeValidation(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	_, err := m.SaveQRCode(ctx, strings.NewReader("not an image"), "qr.png")
	assert.True(t, errs.IsCode(err, errs.CodeValidation))

	big := append(pngBytes(t, "x"), make([]byte, MaxQRCodeSize)...)
	_, err = m.SaveQRCode(ctx, bytes.NewReader(big), "qr.png")
	assert.True(t, errs.IsCode(err, errs.CodeValidation))

	qr, err := store.GetPaymentQRCode(ctx)
	require.NoError(t, err)
	assert.Nil(t, qr)
}

func TestGenerateQRCode(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	_, err := m.GenerateQRCode(ctx, " ")
	assert.True(t, errs.IsCode(err, errs.CodeValidation))

	f, err := m.GenerateQRCode(ctx, "https://pay.example/khqr/123")
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MimeType)

	data, err := os.ReadFile(f.FilePath)
	require.NoError(t, err)
	assert.True(t, mimetype.Detect(data).Is("image/png"))
	assert.Equal(t, int64(len(data)), f.FileSize)

	_, err = m.GenerateQRCode(ctx, "https://pay.example/khqr/456")
	require.NoError(t, err)
	all, err := store.GetWeddingFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	f, err := m.Save(ctx, strings.NewReader("hello"), "hello.txt")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, f.ID))

	_, err = os.Stat(f.FilePath)
	assert.True(t, os.IsNotExist(err))

	err = m.Delete(ctx, f.ID)
	assert.True(t, errs.IsCode(err, errs.CodeNotFound))

	g, err := m.Save(ctx, strings.NewReader("bye"), "bye.txt")
	require.NoError(t, err)
	require.NoError(t, os.Remove(g.FilePath))
	assert.NoError(t, m.Delete(ctx, g.ID), "a file missing on disk is tolerated")
}
