// Package outreach drafts and sends ad-hoc follow-up messages to store admins.
package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"posnotif/internal/domain"
	"posnotif/internal/providers/whacenter"
	"posnotif/internal/templates"
	"posnotif/internal/util"
)

// Profile is what the text generator knows about a store.
type Profile struct {
	StoreName   string
	Description string
	Category    string
}

// Generator produces a single WhatsApp-formatted message. Implementations
// must not have side effects.
type Generator interface {
	Generate(ctx context.Context, p Profile) (string, error)
}

// TemplateGenerator is the built-in generator used when no external one is wired.
type TemplateGenerator struct{}

func (TemplateGenerator) Generate(ctx context.Context, p Profile) (string, error) {
	if strings.TrimSpace(p.StoreName) == "" {
		return "", domain.ErrMissingFields
	}
	return templates.FollowUp(p.StoreName, p.Category), nil
}

type StoreReader interface {
	GetStore(ctx context.Context, storeID string) (domain.Store, error)
}

type SettingsProvider interface {
	Resolve(ctx context.Context, scope string) (domain.DeliverySettings, error)
}

type Sender interface {
	Send(ctx context.Context, req whacenter.SendRequest) (whacenter.SendResponse, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, in domain.NewEntry) (string, error)
}

type Service struct {
	Stores    StoreReader
	Generator Generator
	Settings  SettingsProvider
	Sender    Sender
	Enqueuer  Enqueuer
}

const source = "follow_up"

// Draft asks the generator for a follow-up message for the store.
func (s *Service) Draft(ctx context.Context, storeID string) (string, error) {
	st, err := s.Stores.GetStore(ctx, storeID)
	if err != nil {
		return "", err
	}
	msg, err := s.generator().Generate(ctx, Profile{
		StoreName:   st.Name,
		Description: st.Description,
		Category:    st.Category,
	})
	if err != nil {
		return "", fmt.Errorf("generate follow-up: %w", err)
	}
	return msg, nil
}

// SendNow delivers synchronously and returns the gateway outcome so an
// operator can see it.
func (s *Service) SendNow(ctx context.Context, phone, message string) error {
	target := util.NormalizePhone(phone)
	if target == "" || strings.TrimSpace(message) == "" {
		return domain.ErrMissingFields
	}
	settings, err := s.Settings.Resolve(ctx, domain.ScopePlatform)
	if err != nil {
		return fmt.Errorf("resolve delivery settings: %w", err)
	}
	if settings.DeviceID == "" {
		return domain.ErrNoDeviceID
	}
	if _, err := s.Sender.Send(ctx, whacenter.SendRequest{
		DeviceID: settings.DeviceID,
		Target:   target,
		Message:  message,
	}); err != nil {
		slog.Error("follow-up send failed", "err", err, "to", target)
		return err
	}
	slog.Info("follow-up sent", "to", target)
	return nil
}

// Enqueue puts the follow-up on the notification queue instead of sending inline.
func (s *Service) Enqueue(ctx context.Context, phone, message string) (string, error) {
	target := util.NormalizePhone(phone)
	if target == "" {
		return "", domain.ErrMissingFields
	}
	return s.Enqueuer.Enqueue(ctx, domain.NewEntry{
		To:      target,
		Message: message,
		Scope:   domain.ScopePlatform,
		Source:  source,
	})
}

func (s *Service) generator() Generator {
	if s.Generator != nil {
		return s.Generator
	}
	return TemplateGenerator{}
}
