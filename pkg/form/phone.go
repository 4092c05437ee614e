package form

import "strings"

// FormatPhone renders a phone number progressively as (XXX) XXX-XXXX.
// Non-digits are stripped and input is capped at 10 digits. Cosmetic only;
// the server accepts any phone string up to 20 characters.
func FormatPhone(value string) string {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) > 10 {
		d = d[:10]
	}

	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 3:
		return "(" + d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	default:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	}
}
