package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"posnotif/internal/domain"
	"posnotif/internal/observability"
	"posnotif/internal/providers/whacenter"
	"posnotif/internal/store"
	"posnotif/internal/util"
)

const (
	defaultSendTimeout = 10 * time.Second
	finishTimeout      = 5 * time.Second
	staleClaimFactor   = 3
)

type Store interface {
	GetQueueEntry(ctx context.Context, id string) (domain.QueueEntry, error)
	ClaimQueueEntry(ctx context.Context, id string, now time.Time) (bool, error)
	FinishQueueEntry(ctx context.Context, in store.QueueResult) error
}

type SettingsProvider interface {
	Resolve(ctx context.Context, scope string) (domain.DeliverySettings, error)
}

type Sender interface {
	Send(ctx context.Context, req whacenter.SendRequest) (whacenter.SendResponse, error)
}

// Dispatcher drains queue entries. Every entry gets exactly one delivery
// attempt and ends in sent or failed; there is no retry.
type Dispatcher struct {
	Store       Store
	Settings    SettingsProvider
	Sender      Sender
	Limiter     *rate.Limiter
	Breaker     *gobreaker.CircuitBreaker
	SendTimeout time.Duration
	Now         func() time.Time
}

// Dispatch processes one entry. A nil return means the entry needs no further
// signal: it reached a terminal status, or it was already taken.
func (d *Dispatcher) Dispatch(ctx context.Context, entryID string) error {
	entry, err := d.Store.GetQueueEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("dispatch skipped, entry not found", "entry_id", entryID)
			return nil
		}
		return err
	}
	if entry.Status != domain.QueueQueued {
		return nil
	}

	// Wait for a send slot before claiming; a claim is only taken when a send can follow.
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	claimed, err := d.Store.ClaimQueueEntry(ctx, entry.ID, d.now())
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	target, deviceID, reason, err := d.prepare(ctx, entry)
	if err != nil {
		return d.finish(ctx, entry, domain.QueueFailed, reason, err.Error())
	}

	start := time.Now()
	sendErr := d.send(ctx, whacenter.SendRequest{
		DeviceID: deviceID,
		Target:   target,
		Message:  entry.Message,
		IsGroup:  entry.IsGroup,
	})
	observability.GatewayLatency.Observe(time.Since(start).Seconds())

	if sendErr != nil {
		slog.Error("whatsapp send failed", "err", sendErr, "entry_id", entry.ID, "to", entry.To, "scope", entry.Scope)
		return d.finish(ctx, entry, domain.QueueFailed, "provider", sendErr.Error())
	}
	slog.Info("whatsapp message sent", "entry_id", entry.ID, "to", target, "group", entry.IsGroup)
	return d.finish(ctx, entry, domain.QueueSent, "", "")
}

// prepare validates the entry and resolves the device and recipient.
func (d *Dispatcher) prepare(ctx context.Context, entry domain.QueueEntry) (target, deviceID, reason string, err error) {
	if entry.To == "" || entry.Message == "" {
		return "", "", "validation", errors.New("missing to/message field")
	}

	scope := entry.Scope
	if scope == "" {
		scope = domain.ScopePlatform
	}
	settings, err := d.Settings.Resolve(ctx, scope)
	if err != nil {
		return "", "", "settings", fmt.Errorf("resolve delivery settings for %q: %w", scope, err)
	}
	if settings.DeviceID == "" {
		return "", "", "config", fmt.Errorf("%w for store %q or platform", domain.ErrNoDeviceID, scope)
	}

	switch {
	case entry.IsGroup && entry.To == domain.AdminGroupAlias:
		target = settings.AdminGroup
	case entry.IsGroup:
		target = entry.To
	default:
		target = util.NormalizePhone(entry.To)
	}
	if target == "" {
		return "", "", "recipient", fmt.Errorf("%w: to was %q and admin group is not set", domain.ErrNoRecipient, entry.To)
	}
	return target, settings.DeviceID, "", nil
}

func (d *Dispatcher) send(ctx context.Context, req whacenter.SendRequest) error {
	call := func() (any, error) {
		reqCtx, cancel := context.WithTimeout(ctx, d.sendTimeout())
		defer cancel()
		return d.Sender.Send(reqCtx, req)
	}

	var err error
	if d.Breaker == nil {
		_, err = call()
	} else {
		_, err = d.Breaker.Execute(call)
	}

	switch {
	case err == nil:
		observability.GatewaySend.WithLabelValues("ok", "200").Inc()
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.GatewaySend.WithLabelValues("cb_open", "0").Inc()
		err = fmt.Errorf("whatsapp gateway circuit open: %w", err)
	default:
		observability.GatewaySend.WithLabelValues("error", strconv.Itoa(whacenter.HTTPStatus(err))).Inc()
	}
	return err
}

func (d *Dispatcher) finish(ctx context.Context, entry domain.QueueEntry, status domain.QueueStatus, reason, lastErr string) error {
	if status == domain.QueueFailed {
		slog.Error("queue entry failed", "entry_id", entry.ID, "reason", reason, "err", lastErr)
	}
	observability.Dispatches.WithLabelValues(string(status), reason).Inc()

	// The entry is claimed, so its status is written even if the signal's
	// context was cancelled mid-send.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := d.Store.FinishQueueEntry(ctx, store.QueueResult{
		ID:        entry.ID,
		Status:    status,
		LastError: lastErr,
		Now:       d.now(),
	}); err != nil {
		return fmt.Errorf("record %s status: %w", status, err)
	}
	return nil
}

// staleAfter is how long a claim may stay open before the sweeper gives up on it.
func (d *Dispatcher) staleAfter() time.Duration {
	return staleClaimFactor * d.sendTimeout()
}

func (d *Dispatcher) sendTimeout() time.Duration {
	if d.SendTimeout <= 0 {
		return defaultSendTimeout
	}
	return d.SendTimeout
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return util.NowUTC()
}
