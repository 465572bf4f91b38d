// Package phone turns the many raw spellings of a chat phone number into
// a single contact key.
package phone

import (
	"strings"
)

const (
	DefaultCountryCode = "212"

	// JIDSuffix is the transport suffix appended to user addresses.
	JIDSuffix = "@s.whatsapp.net"
)

// Normalizer produces digits-only, country-code-prefixed keys.
type Normalizer struct {
	CountryCode string
}

func NewNormalizer(countryCode string) Normalizer {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return Normalizer{CountryCode: countryCode}
}

// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func (n Normalizer) Normalize(raw string) string {
	cc := n.CountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// Strip "@s.whatsapp.net", "@c.us" and multi-device ":NN" parts.
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}

	international := strings.HasPrefix(s, "+")

	var b strings.Builder
	b.Grow(len(s) + len(cc))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	// "00" international and "0" trunk prefixes may be stacked; drop them all.
	if !international {
		digits = strings.TrimLeft(digits, "0")
	}
	if digits == "" {
		return ""
	}

	if !strings.HasPrefix(digits, cc) {
		digits = cc + digits
	}

	return digits
}

// Normalize uses the default country code.
func Normalize(raw string) string {
	return Normalizer{CountryCode: DefaultCountryCode}.Normalize(raw)
}

// JID returns the transport address for a normalized contact key.
func JID(contact string) string {
	return contact + JIDSuffix
}
