package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"posnotif/internal/config"
	"posnotif/internal/providers/whacenter"
)

func newTestGateway(t *testing.T, outcomes string) *httptest.Server {
	t.Helper()
	s := newServer(config.MockGatewayConfig{OutcomeMode: "round_robin", Outcomes: outcomes, TimeoutDelayMS: 1})
	ts := httptest.NewServer(s.router())
	t.Cleanup(ts.Close)
	return ts
}

func TestMockGatewayAgainstClient(t *testing.T) {
	ts := newTestGateway(t, "ok,device_offline,500,bad_json")
	c := &whacenter.Client{HTTP: &http.Client{Timeout: time.Second}, BaseURL: ts.URL + "/api"}
	req := whacenter.SendRequest{DeviceID: "dev", Target: "62812", Message: "halo"}

	if _, err := c.Send(context.Background(), req); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, err := c.Send(context.Background(), req); err == nil || err.Error() != "device is not connected" {
		t.Fatalf("expected gateway reason, got %v", err)
	}
	if _, err := c.Send(context.Background(), req); whacenter.HTTPStatus(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %v", err)
	}
	if _, err := c.Send(context.Background(), req); err == nil {
		t.Fatalf("expected decode failure")
	}
}

func TestMockGatewayRequiresDevice(t *testing.T) {
	ts := newTestGateway(t, "ok")
	c := &whacenter.Client{HTTP: ts.Client(), BaseURL: ts.URL + "/api"}
	_, err := c.Send(context.Background(), whacenter.SendRequest{Target: "Admin", Message: "m", IsGroup: true})
	if err == nil || err.Error() != "device_id is required" {
		t.Fatalf("expected device error, got %v", err)
	}
}

func TestPickWeighted(t *testing.T) {
	items := []weightedOutcome{{"a", 1}, {"b", 3}}
	if got := pickWeighted(0.1, items); got != "a" {
		t.Fatalf("expected a, got %s", got)
	}
	if got := pickWeighted(0.9, items); got != "b" {
		t.Fatalf("expected b, got %s", got)
	}
}
