// Package invite sends wedding invitations to the invitation list over a
// messenger such as WhatsApp.
package invite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wedding-registry/internal/errs"
	"wedding-registry/internal/models"
)

// Messenger delivers a text message to a phone number
type Messenger interface {
	SendMessage(ctx context.Context, phone, text string) error
}

// Store is the read side of the registry the sender needs
type Store interface {
	GetAllWeddingInfo(ctx context.Context) (models.WeddingInfo, error)
	GetInvitationGuests(ctx context.Context, filter models.InvitationFilter) ([]models.InvitationGuest, error)
	GetInvitationGuest(ctx context.Context, id int64) (*models.InvitationGuest, error)
}

// Compose builds the invitation text for guest. The couple's own
// invitationMessage replaces the default wording when set.
func Compose(info models.WeddingInfo, guest models.InvitationGuest) string {
	var b strings.Builder

	b.WriteString("🎉 *Wedding Invitation*\n\n")
	b.WriteString("Dear " + displayName(guest) + ",\n\n")

	if msg := strings.TrimSpace(info.InvitationMessage); msg != "" {
		b.WriteString(msg + "\n\n")
	} else {
		b.WriteString("You are cordially invited to celebrate the wedding of\n\n")
		fmt.Fprintf(&b, "*%s* & *%s*\n\n", orDefault(info.GroomName, "Groom"), orDefault(info.BrideName, "Bride"))
	}

	when := strings.TrimSpace(strings.Join(nonEmpty(info.WeddingDate, info.WeddingTime), " "))
	if when != "" {
		b.WriteString("📅 Date: " + when + "\n")
	}
	if info.WeddingLocation != "" {
		b.WriteString("📍 Location: " + info.WeddingLocation + "\n")
	}
	if info.Latitude != "" && info.Longitude != "" {
		fmt.Fprintf(&b, "🗺 https://maps.google.com/?q=%s,%s\n", info.Latitude, info.Longitude)
	}
	return strings.TrimRight(b.String(), "\n")
}

func displayName(g models.InvitationGuest) string {
	switch {
	case g.Name != "" && g.NameKm != "":
		return g.Name + " (" + g.NameKm + ")"
	case g.Name != "":
		return g.Name
	default:
		return g.NameKm
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// Failure is one guest the messenger could not reach
type Failure struct {
	Guest models.InvitationGuest `json:"guest"`
	Error string                 `json:"error"`
}

// Report summarises a send run. Guests without a phone are skipped.
type Report struct {
	Sent    []models.InvitationGuest `json:"sent"`
	Skipped []models.InvitationGuest `json:"skipped"`
	Failed  []Failure                `json:"failed"`
}

type Sender struct {
	messenger Messenger
	store     Store
	log       zerolog.Logger
}

// NewSender creates a sender reading guests from store
func NewSender(messenger Messenger, store Store, log zerolog.Logger) *Sender {
	return &Sender{
		messenger: messenger,
		store:     store,
		log:       log.With().Str("component", "Invite").Logger(),
	}
}

// Send invites a single invitation guest
func (s *Sender) Send(ctx context.Context, id int64) error {
	guest, err := s.store.GetInvitationGuest(ctx, id)
	if err != nil {
		return err
	}
	if guest.Phone == "" {
		return errs.New(errs.CodeValidation, fmt.Sprintf("invitation guest %d has no phone number", id))
	}
	info, err := s.store.GetAllWeddingInfo(ctx)
	if err != nil {
		return err
	}
	if err := s.messenger.SendMessage(ctx, guest.Phone, Compose(info, *guest)); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	return nil
}

// SendAll invites every guest matching filter. Delivery failures are
// collected in the report; only a storage failure or a cancelled context
// ends the run early.
func (s *Sender) SendAll(ctx context.Context, filter models.InvitationFilter) (Report, error) {
	var report Report

	info, err := s.store.GetAllWeddingInfo(ctx)
	if err != nil {
		return report, err
	}
	guests, err := s.store.GetInvitationGuests(ctx, filter)
	if err != nil {
		return report, err
	}

	for _, g := range guests {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if strings.TrimSpace(g.Phone) == "" {
			report.Skipped = append(report.Skipped, g)
			continue
		}
		if err := s.messenger.SendMessage(ctx, g.Phone, Compose(info, g)); err != nil {
			s.log.Warn().Err(err).Int64("guest_id", g.ID).Str("name", g.Name).Msg("Invitation not delivered")
			report.Failed = append(report.Failed, Failure{Guest: g, Error: err.Error()})
			continue
		}
		report.Sent = append(report.Sent, g)
	}

	s.log.Info().
		Int("sent", len(report.Sent)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Msg("Invitations sent")
	return report, nil
}
