// Package phone normalizes Mozambican mobile numbers and builds WhatsApp
// click-to-chat links.
package phone

import (
	"net/url"
	"strings"
)

// CountryCode is prefixed to national numbers.
const CountryCode = "258"

// Format returns the number in +258XXXXXXXXX form.
//
// Everything except digits and '+' is dropped. A number already starting with
// '+' is returned as cleaned. Otherwise a 9-digit number starting with 8 and
// any other bare number get +258 prepended, and a number starting with 258
// gets a leading '+'.
func Format(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	switch {
	case strings.HasPrefix(clean, "+"):
		return clean
	case len(clean) == 9 && strings.HasPrefix(clean, "8"):
		return "+" + CountryCode + clean
	case strings.HasPrefix(clean, CountryCode):
		return "+" + clean
	default:
		return "+" + CountryCode + clean
	}
}

// WhatsAppLink returns a wa.me link that opens a chat with number prefilled
// with text.
func WhatsAppLink(number, text string) string {
	digits := strings.TrimPrefix(Format(number), "+")
	u := url.URL{Scheme: "https", Host: "wa.me", Path: "/" + digits}
	if text != "" {
		u.RawQuery = url.Values{"text": {text}}.Encode()
	}
	return u.String()
}
