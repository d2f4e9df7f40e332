package util

import "strings"

const countryCode = "62"

// NormalizePhone rewrites a WhatsApp number into international form without
// the plus sign. Non-digits are dropped, a trunk "0" becomes the country code
// and a bare subscriber number starting with "8" gets the country code
// prepended. Anything else passes through as digits.
func NormalizePhone(p string) string {
	var b strings.Builder
	b.Grow(len(p) + len(countryCode))
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(digits, "0"):
		return countryCode + digits[1:]
	case strings.HasPrefix(digits, "8"):
		return countryCode + digits
	default:
		return digits
	}
}
