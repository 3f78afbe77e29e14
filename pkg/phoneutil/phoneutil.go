package phoneutil

import "strings"

// DigitsOnly strips every non-digit rune from s. Provider payloads carry
// phone numbers in wildly different formats (+55 (11) 9999-0000,
// 5511999990000@c.us, etc.), so everything is reduced to ASCII digits
// before it touches storage or an outbound payload.
func DigitsOnly(s string) string {
	// Drop JID-style suffixes first so the domain part never contributes digits.
	if idx := strings.IndexByte(s, '@'); idx >= 0 {
		s = s[:idx]
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
