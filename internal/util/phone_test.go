package util

import (
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"081234567890", "6281234567890"},
		{"0812-3456-7890", "6281234567890"},
		{"+62 812 3456 7890", "6281234567890"},
		{"81234567890", "6281234567890"},
		{"6281234567890", "6281234567890"},
		{"120363025@g.us", "120363025"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	for _, in := range []string{"081234567890", "81234", "6281234", "0", "8", "  (021) 555-0100 ", "4412345"} {
		once := NormalizePhone(in)
		if twice := NormalizePhone(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizePhoneTrunkPrefixKeepsSubscriberDigits(t *testing.T) {
	for _, rest := range []string{"8123", "21555010", "9"} {
		if got := NormalizePhone("0" + rest); got != "62"+rest {
			t.Fatalf("trunk prefix for %q: got %q", rest, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(500000); got != "500.000" {
		t.Fatalf("FormatNumber(500000) = %q", got)
	}
	if got := FormatNumber(999); got != "999" {
		t.Fatalf("FormatNumber(999) = %q", got)
	}
}

func TestFormatDateID(t *testing.T) {
	d := time.Date(2026, time.August, 17, 10, 0, 0, 0, time.UTC)
	if got := FormatDateID(d); got != "17 Agustus 2026" {
		t.Fatalf("FormatDateID = %q", got)
	}
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("Halo {name}, {amount} token", map[string]string{"name": "Budi", "amount": "1.000"})
	if got != "Halo Budi, 1.000 token" {
		t.Fatalf("RenderTemplate = %q", got)
	}
}

func TestRenderTemplateDoesNotExpandValues(t *testing.T) {
	got := RenderTemplate("{store}: {amount} token, {missing}", map[string]string{"store": "Toko {amount}", "amount": "500"})
	if got != "Toko {amount}: 500 token, {missing}" {
		t.Fatalf("RenderTemplate = %q", got)
	}
}
