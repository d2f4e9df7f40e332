package templates

import (
	"strings"
	"testing"
	"time"
)

func TestTopUpDecidedApproved(t *testing.T) {
	customer, admin := TopUpDecided(true, "Budi", "Kopi Kita", 500000)
	if !strings.Contains(customer, "Halo Budi,") || !strings.Contains(customer, "*500.000 token*") || !strings.Contains(customer, "*Kopi Kita*") {
		t.Fatalf("unexpected customer text: %q", customer)
	}
	if !strings.HasPrefix(admin, "✅ *Top-up Disetujui*") || !strings.Contains(admin, "saldo toko telah ditambahkan") {
		t.Fatalf("unexpected admin text: %q", admin)
	}
}

func TestTopUpDecidedRejectedUsesFallbackName(t *testing.T) {
	customer, admin := TopUpDecided(false, "  ", "Kopi Kita", 1500)
	if !strings.Contains(customer, "Halo Pelanggan,") || !strings.Contains(customer, "sejumlah 1.500 token telah ditolak") {
		t.Fatalf("unexpected customer text: %q", customer)
	}
	if !strings.Contains(admin, "Tidak ada perubahan pada saldo toko") {
		t.Fatalf("unexpected admin text: %q", admin)
	}
}

func TestDailySummary(t *testing.T) {
	day := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	got := DailySummary("Kopi Kita", day, 1250000, 42)
	for _, want := range []string{"Kopi Kita", "17 Agustus 2026", "Rp 1.250.000", "*42*"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary missing %q: %q", want, got)
		}
	}
}

func TestFollowUpGreeting(t *testing.T) {
	got := FollowUp("Kopi Kita", "")
	if !strings.HasPrefix(got, "Halo tim Kopi Kita!") || strings.Contains(got, "{extra}") {
		t.Fatalf("unexpected follow-up: %q", got)
	}
	if !strings.Contains(FollowUp("Kopi Kita", "Kuliner"), "usaha kuliner") {
		t.Fatalf("category line missing")
	}
}

func TestTopUpRequestedAdmin(t *testing.T) {
	got := TopUpRequestedAdmin("Kopi Kita", 250000)
	if !strings.Contains(got, "*Kopi Kita*") || !strings.Contains(got, "*250.000 token*") {
		t.Fatalf("unexpected text: %q", got)
	}
}
