package invite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
	"wedding-registry/internal/storage"
)

type sentMessage struct {
	phone, text string
}

type fakeMessenger struct {
	sent []sentMessage
	fail map[string]error
}

func (f *fakeMessenger) SendMessage(_ context.Context, phone, text string) error {
	if err := f.fail[phone]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{phone: phone, text: text})
	return nil
}

func TestCompose(t *testing.T) {
	guest := models.InvitationGuest{Name: "Dara", NameKm: "តារា"}

	t.Run("default wording", func(t *testing.T) {
		info := models.WeddingInfo{
			GroomName:       "Vichea",
			BrideName:       "Sophea",
			WeddingDate:     "2026-12-12",
			WeddingTime:     "17:00",
			WeddingLocation: "Phnom Penh",
			Latitude:        "11.5564",
			Longitude:       "104.9282",
		}
		msg := Compose(info, guest)
		assert.Contains(t, msg, "Dear Dara (តារា),")
		assert.Contains(t, msg, "*Vichea* & *Sophea*")
		assert.Contains(t, msg, "📅 Date: 2026-12-12 17:00")
		assert.Contains(t, msg, "📍 Location: Phnom Penh")
		assert.Contains(t, msg, "https://maps.google.com/?q=11.5564,104.9282")
		assert.NotContains(t, msg, "\n\n\n")
	})

	t.Run("custom message and sparse info", func(t *testing.T) {
		info := models.WeddingInfo{InvitationMessage: "  Join us for our big day!  ", WeddingDate: "Saturday"}
		msg := Compose(info, models.InvitationGuest{NameKm: "តារា"})
		assert.Contains(t, msg, "Dear តារា,")
		assert.Contains(t, msg, "Join us for our big day!\n")
		assert.NotContains(t, msg, "cordially")
		assert.Contains(t, msg, "📅 Date: Saturday")
		assert.NotContains(t, msg, "Location")
		assert.NotContains(t, msg, "maps.google.com")
	})

	t.Run("missing names fall back", func(t *testing.T) {
		msg := Compose(models.WeddingInfo{}, guest)
		assert.Contains(t, msg, "*Groom* & *Bride*")
	})
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "wedding.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSendAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SetWeddingInfo(ctx, "groomName", "Vichea")
	require.NoError(t, err)
	for _, d := range []models.InvitationGuestDraft{
		{Name: "Dara", Phone: "012345678", GroupCategory: "Family"},
		{Name: "Sophea", GroupCategory: "Family"},
		{Name: "Bopha", Phone: "098765432", GroupCategory: "Family"},
		{Name: "Work Friend", Phone: "011111111", GroupCategory: "Work"},
	} {
		_, err := s.AddInvitationGuest(ctx, d)
		require.NoError(t, err)
	}

	messenger := &fakeMessenger{fail: map[string]error{"098765432": errors.New("not on whatsapp")}}
	sender := NewSender(messenger, s, zerolog.Nop())

	report, err := sender.SendAll(ctx, models.InvitationFilter{GroupCategory: "Family"})
	require.NoError(t, err)
	require.Len(t, report.Sent, 1)
	assert.Equal(t, "Dara", report.Sent[0].Name)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "Sophea", report.Skipped[0].Name)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Bopha", report.Failed[0].Guest.Name)
	assert.Equal(t, "not on whatsapp", report.Failed[0].Error)

	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "012345678", messenger.sent[0].phone)
	assert.Contains(t, messenger.sent[0].text, "*Vichea*")
}

func TestSendAllStopsOnCancelledContext(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddInvitationGuest(context.Background(), models.InvitationGuestDraft{Name: "Dara", Phone: "012"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	messenger := &fakeMessenger{}
	_, err = NewSender(messenger, s, zerolog.Nop()).SendAll(ctx, models.InvitationFilter{})
	assert.Error(t, err)
	assert.Empty(t, messenger.sent)
}

func TestSendOne(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	withPhone, err := s.AddInvitationGuest(ctx, models.InvitationGuestDraft{Name: "Dara", Phone: "012345678"})
	require.NoError(t, err)
	noPhone, err := s.AddInvitationGuest(ctx, models.InvitationGuestDraft{Name: "Sophea"})
	require.NoError(t, err)

	messenger := &fakeMessenger{}
	sender := NewSender(messenger, s, zerolog.Nop())

	require.NoError(t, sender.Send(ctx, withPhone))
	assert.Len(t, messenger.sent, 1)
	assert.True(t, errs.IsCode(sender.Send(ctx, noPhone), errs.CodeValidation))
	assert.True(t, errs.IsCode(sender.Send(ctx, 999), errs.CodeNotFound))
}
