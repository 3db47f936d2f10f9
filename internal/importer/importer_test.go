package importer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-registry/internal/models"
	"wedding-registry/internal/storage"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    ColumnMap
	}{
		{
			name:    "english template",
			headers: []string{"Name", "Name (Khmer)", "Phone", "Email", "Address", "Group", "Note"},
			want: ColumnMap{
				FieldName: 0, FieldNameKm: 1, FieldPhone: 2, FieldEmail: 3,
				FieldAddress: 4, FieldGroupCategory: 5, FieldNote: 6,
			},
		},
		{
			name:    "khmer headers",
			headers: []string{"Full Name", "ឈ្មោះ", "លេខទូរស័ព្ទ", "អ៊ីមែល", "អាសយដ្ឋាន", "ក្រុម", "កំណត់សម្គាល់"},
			want: ColumnMap{
				FieldName: 0, FieldNameKm: 1, FieldPhone: 2, FieldEmail: 3,
				FieldAddress: 4, FieldGroupCategory: 5, FieldNote: 6,
			},
		},
		{
			name:    "name km abbreviation and odd order",
			headers: []string{" phone number ", "name_km", "guest name"},
			want:    ColumnMap{FieldName: 2, FieldNameKm: 1, FieldPhone: 0},
		},
		{
			name:    "bom on first header",
			headers: []string{"\ufeffname", "group category"},
			want:    ColumnMap{FieldName: 0, FieldGroupCategory: 1},
		},
		{
			name:    "khmer word for name alone is the khmer name",
			headers: []string{"ឈ្មោះ"},
			want:    ColumnMap{FieldNameKm: 0},
		},
		{
			name:    "first matching column wins",
			headers: []string{"name", "nickname"},
			want:    ColumnMap{FieldName: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveColumns(tt.headers))
		})
	}
}

func TestHeaderRulesCoverEveryField(t *testing.T) {
	seen := map[Field]bool{}
	for _, r := range HeaderRules {
		assert.False(t, seen[r.Field], "duplicate rule for %s", r.Field)
		assert.NotEmpty(t, r.Patterns)
		seen[r.Field] = true
	}
	for _, f := range []Field{FieldName, FieldNameKm, FieldPhone, FieldEmail, FieldAddress, FieldGroupCategory, FieldNote} {
		assert.True(t, seen[f], "no rule for %s", f)
	}
}

func TestPreviewDropsRowsWithoutName(t *testing.T) {
	input := "Name,Name Khmer,Phone,Group\n" +
		"John Doe,ចន,012345678,Family\n" +
		",ជេន,098765432,Friends\n" +
		"\n" +
		"\"Roe, Jane\",,,\n" +
		"Short\n"

	drafts, err := Preview(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, drafts, 3)
	assert.Equal(t, models.InvitationGuestDraft{Name: "John Doe", NameKm: "ចន", Phone: "012345678", GroupCategory: "Family"}, drafts[0])
	assert.Equal(t, "Roe, Jane", drafts[1].Name)
	assert.Equal(t, models.InvitationGuestDraft{Name: "Short"}, drafts[2])
}

func TestPreviewWithoutNameColumn(t *testing.T) {
	drafts, err := Preview(strings.NewReader("phone,email\n012,a@b.c\n"))
	require.NoError(t, err)
	assert.Empty(t, drafts)

	drafts, err = Preview(strings.NewReader("name\n"))
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

type fakeInserter struct {
	got []models.InvitationGuestDraft
}

func (f *fakeInserter) BulkAddInvitationGuests(_ context.Context, drafts []models.InvitationGuestDraft) (models.BulkResult, error) {
	f.got = drafts
	return models.BulkResult{SuccessCount: len(drafts)}, nil
}

func TestImportPassesDraftsToStore(t *testing.T) {
	fake := &fakeInserter{}
	imp := NewImporter(fake, zerolog.Nop())

	res, err := imp.Import(context.Background(), strings.NewReader("name,note\nA,x\nB,y\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	require.Len(t, fake.got, 2)
	assert.Equal(t, "y", fake.got[1].Note)

	_, err = imp.Import(context.Background(), strings.NewReader("name\n,\n"))
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestImportIntoStore(t *testing.T) {
	ctx := context.Background()
	s, err := storage.Open(ctx, filepath.Join(t.TempDir(), "wedding.db"), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	input := "Name,Phone,Group\n" +
		"Dara,011,Family\n" +
		"Sophea,012,Family\n" +
		",013,Work\n" +
		"Vibol,014,Work\n" +
		"  ,015,\n"

	res, err := NewImporter(s, zerolog.Nop()).Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, 0, res.ErrorCount)

	stats, err := s.GetInvitationGuestStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.TotalGroups)
}
