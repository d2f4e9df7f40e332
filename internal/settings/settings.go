// Package settings resolves WhatsApp delivery settings for a queue entry's
// scope. The platform scope reads the global document; any other scope is a
// store id whose overrides are layered over the platform values.
package settings

import (
	"context"
	"log/slog"

	"posnotif/internal/domain"
)

type Provider interface {
	Resolve(ctx context.Context, scope string) (domain.DeliverySettings, error)
}

type PlatformStore interface {
	PlatformDeliverySettings(ctx context.Context) (domain.DeliverySettings, bool, error)
}

type StoreOverrides interface {
	StoreDeliverySettings(ctx context.Context, storeID string) (domain.DeliverySettings, bool, error)
}

// Platform ignores the scope and returns the global settings.
type Platform struct {
	Store PlatformStore
}

func (p *Platform) Resolve(ctx context.Context, _ string) (domain.DeliverySettings, error) {
	s, found, err := p.Store.PlatformDeliverySettings(ctx)
	if err != nil {
		return domain.DeliverySettings{}, err
	}
	if !found {
		slog.Warn("whatsapp settings document not found, using defaults")
	}
	return s, nil
}

// PerStore applies a store's override fields on top of Base.
type PerStore struct {
	Store StoreOverrides
	Base  Provider
}

func (p *PerStore) Resolve(ctx context.Context, scope string) (domain.DeliverySettings, error) {
	base, err := p.Base.Resolve(ctx, domain.ScopePlatform)
	if err != nil {
		return domain.DeliverySettings{}, err
	}
	override, found, err := p.Store.StoreDeliverySettings(ctx, scope)
	if err != nil {
		return domain.DeliverySettings{}, err
	}
	if !found {
		return base, nil
	}
	if override.DeviceID != "" {
		base.DeviceID = override.DeviceID
	}
	if override.AdminGroup != "" {
		base.AdminGroup = override.AdminGroup
	}
	return base, nil
}

// Resolver picks the provider by scope.
type Resolver struct {
	Platform Provider
	Store    Provider
}

func (r *Resolver) Resolve(ctx context.Context, scope string) (domain.DeliverySettings, error) {
	if scope == "" || scope == domain.ScopePlatform || r.Store == nil {
		return r.Platform.Resolve(ctx, domain.ScopePlatform)
	}
	return r.Store.Resolve(ctx, scope)
}
