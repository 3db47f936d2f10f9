// Package importer turns comma separated invitation lists into invitation
// guest drafts and stores them in bulk.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"wedding-registry/internal/models"
)

// BulkInserter is the part of the store the importer needs
type BulkInserter interface {
	BulkAddInvitationGuests(ctx context.Context, drafts []models.InvitationGuestDraft) (models.BulkResult, error)
}

// ParseCSV reads a header line followed by data rows.
func ParseCSV(r io.Reader) (headers []string, rows [][]string, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		if headers == nil {
			headers = rec
			continue
		}
		rows = append(rows, rec)
	}
	return headers, rows, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// MapRows converts data rows to drafts. Rows without a name are dropped.
func MapRows(headers []string, rows [][]string) []models.InvitationGuestDraft {
	cols := ResolveColumns(headers)
	nameIdx, ok := cols[FieldName]
	if !ok {
		return nil
	}

	drafts := make([]models.InvitationGuestDraft, 0, len(rows))
	for _, row := range rows {
		name := cell(row, nameIdx, true)
		if name == "" {
			continue
		}
		drafts = append(drafts, models.InvitationGuestDraft{
			Name:          name,
			NameKm:        lookup(row, cols, FieldNameKm),
			Phone:         lookup(row, cols, FieldPhone),
			Email:         lookup(row, cols, FieldEmail),
			Address:       lookup(row, cols, FieldAddress),
			GroupCategory: lookup(row, cols, FieldGroupCategory),
			Note:          lookup(row, cols, FieldNote),
		})
	}
	return drafts
}

func lookup(row []string, cols ColumnMap, f Field) string {
	idx, ok := cols[f]
	return cell(row, idx, ok)
}

func cell(row []string, idx int, ok bool) string {
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Preview parses r and returns the drafts an import would insert
func Preview(r io.Reader) ([]models.InvitationGuestDraft, error) {
	headers, rows, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return MapRows(headers, rows), nil
}

type Importer struct {
	store BulkInserter
	log   zerolog.Logger
}

// NewImporter creates an importer writing into store
func NewImporter(store BulkInserter, log zerolog.Logger) *Importer {
	return &Importer{
		store: store,
		log:   log.With().Str("component", "Importer").Logger(),
	}
}

// Import parses r and bulk inserts the resulting drafts. A partial failure
// returns both the result and the store's partial-failure error.
func (i *Importer) Import(ctx context.Context, r io.Reader) (models.BulkResult, error) {
	headers, rows, err := ParseCSV(r)
	if err != nil {
		return models.BulkResult{}, err
	}
	drafts := MapRows(headers, rows)
	i.log.Info().Int("rows", len(rows)).Int("accepted", len(drafts)).Msg("Parsed invitation list")

	if len(drafts) == 0 {
		return models.BulkResult{}, ErrNoRows
	}
	return i.store.BulkAddInvitationGuests(ctx, drafts)
}

// ErrNoRows is returned when a file holds no importable row
var ErrNoRows = errors.New("no rows with a name to import")
