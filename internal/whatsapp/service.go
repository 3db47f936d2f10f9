package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// ErrNotOnWhatsApp is returned when the recipient has no WhatsApp account
var ErrNotOnWhatsApp = errors.New("number is not registered on WhatsApp")

type Config struct {
	DataDir string
}

type Service struct {
	client *whatsmeow.Client
	cfg    *Config
	log    zerolog.Logger
}

// NewService opens the device store under cfg.DataDir and prepares a client.
// Nothing is sent over the network until Connect.
func NewService(ctx context.Context, cfg *Config, log zerolog.Logger) (*Service, error) {
	logger := log.With().Str("component", "WhatsApp").Logger()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create whatsapp data dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))
	container, err := sqlstore.New(ctx, "sqlite3", dsn, waLog.Zerolog(logger.With().Str("module", "store").Logger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, waLog.Zerolog(logger.With().Str("module", "client").Logger().Level(zerolog.WarnLevel)))

	service := &Service{
		client: client,
		cfg:    cfg,
		log:    logger,
	}
	client.AddEventHandler(service.eventHandler)

	return service, nil
}

// NormalizePhoneNumber converts a Cambodian phone number to the digits-only
// international form WhatsApp expects. Local numbers starting with 0
// (012 345 678, 0987654321) get the 855 country code and a stray trunk zero
// after 855 is dropped.
func NormalizePhoneNumber(phoneNumber string) string {
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phoneNumber = b.String()

	if strings.HasPrefix(phoneNumber, "0") && (len(phoneNumber) == 9 || len(phoneNumber) == 10) {
		phoneNumber = "855" + phoneNumber[1:]
	}
	if strings.HasPrefix(phoneNumber, "8550") {
		phoneNumber = "855" + phoneNumber[4:]
	}
	return phoneNumber
}

// Connect connects to WhatsApp. A device that has not been linked yet
// prints login QR codes to qrOut until one is scanned.
func (s *Service) Connect(ctx context.Context, qrOut io.Writer) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			renderLoginCode(qrOut, evt.Code)
		case "success":
			s.log.Info().Msg("Device linked")
			return nil
		default:
			s.log.Warn().Str("event", evt.Event).Msg("Login event")
			if evt.Error != nil {
				return fmt.Errorf("login failed: %w", evt.Error)
			}
		}
	}
	if s.client.Store.ID == nil {
		return errors.New("login was not completed")
	}
	return nil
}

func renderLoginCode(w io.Writer, code string) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(w, "QR Code: %s\n", code)
		return
	}
	fmt.Fprintln(w, "\n"+q.ToSmallString(false))
	fmt.Fprintln(w, "Scan the QR code above with WhatsApp:")
	fmt.Fprintln(w, "   Settings > Linked Devices > Link a Device")
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// SendMessage sends a text message to phoneNumber after checking the number
// is on WhatsApp.
func (s *Service) SendMessage(ctx context.Context, phoneNumber, message string) error {
	phoneNumber = NormalizePhoneNumber(phoneNumber)
	if phoneNumber == "" {
		return errors.New("phone number is empty")
	}

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("%s: %w", phoneNumber, ErrNotOnWhatsApp)
	}
	jid := resp[0].JID

	s.log.Debug().Str("jid", jid.String()).Str("phone", phoneNumber).Msg("Sending message")
	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", phoneNumber, err)
	}
	s.log.Info().Str("phone", phoneNumber).Str("id", sent.ID).Msg("Message sent")
	return nil
}

func (s *Service) eventHandler(evt interface{}) {
	switch evt := evt.(type) {
	case *events.Message:
		if evt.Info.IsFromMe {
			return
		}
		s.log.Info().
			Str("sender", evt.Info.Sender.String()).
			Str("message", evt.Message.GetConversation()).
			Msg("Received message")
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Info().Msg("Logged out from WhatsApp")
	}
}
