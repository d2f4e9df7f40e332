package outreach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"posnotif/internal/domain"
	"posnotif/internal/providers/whacenter"
)

type stores map[string]domain.Store

func (s stores) GetStore(ctx context.Context, id string) (domain.Store, error) {
	st, ok := s[id]
	if !ok {
		return st, domain.ErrNotFound
	}
	return st, nil
}

type fixedSettings domain.DeliverySettings

func (f fixedSettings) Resolve(ctx context.Context, scope string) (domain.DeliverySettings, error) {
	return domain.DeliverySettings(f), nil
}

type fakeSender struct {
	reqs []whacenter.SendRequest
	err  error
}

func (f *fakeSender) Send(ctx context.Context, req whacenter.SendRequest) (whacenter.SendResponse, error) {
	f.reqs = append(f.reqs, req)
	return whacenter.SendResponse{}, f.err
}

type fakeEnqueuer struct{ entries []domain.NewEntry }

func (f *fakeEnqueuer) Enqueue(ctx context.Context, in domain.NewEntry) (string, error) {
	f.entries = append(f.entries, in)
	return "wq_1", nil
}

func TestDraftUsesStoreProfile(t *testing.T) {
	svc := &Service{Stores: stores{"s1": {ID: "s1", Name: "Kopi Kita", Category: "Kuliner"}}}
	msg, err := svc.Draft(context.Background(), "s1")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if !strings.HasPrefix(msg, "Halo tim Kopi Kita!") {
		t.Fatalf("unexpected draft: %q", msg)
	}
	if _, err := svc.Draft(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendNowSurfacesGatewayError(t *testing.T) {
	sender := &fakeSender{err: &whacenter.SendError{HTTPStatus: 200, Reason: "invalid device"}}
	svc := &Service{Settings: fixedSettings{DeviceID: "dev"}, Sender: sender}

	err := svc.SendNow(context.Background(), "0812-3456-7890", "halo")
	if err == nil || err.Error() != "invalid device" {
		t.Fatalf("expected gateway reason, got %v", err)
	}
	if len(sender.reqs) != 1 || sender.reqs[0].Target != "6281234567890" || sender.reqs[0].IsGroup {
		t.Fatalf("unexpected request: %#v", sender.reqs)
	}
}

func TestSendNowRequiresDeviceID(t *testing.T) {
	sender := &fakeSender{}
	svc := &Service{Settings: fixedSettings{}, Sender: sender}
	if err := svc.SendNow(context.Background(), "0812", "halo"); !errors.Is(err, domain.ErrNoDeviceID) {
		t.Fatalf("expected ErrNoDeviceID, got %v", err)
	}
	if len(sender.reqs) != 0 {
		t.Fatalf("no send expected")
	}
}

func TestEnqueueNormalizesRecipient(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc := &Service{Enqueuer: enq}
	if _, err := svc.Enqueue(context.Background(), "+62 812 3456", "halo"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(enq.entries) != 1 || enq.entries[0].To != "628123456" || enq.entries[0].Scope != domain.ScopePlatform {
		t.Fatalf("unexpected entry: %#v", enq.entries)
	}
}
