package normalize

import "strings"

const defaultCountryCode = "+91"

// Phone normalizes a phone number to E.164-ish form. Anything too short to be
// a number is cleared; phone is optional so that is never an error.
// Phone(Phone(x)) == Phone(x).
func Phone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// keep digits, plus a '+' only when it is the first character kept
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.HasPrefix(cleaned, "+") {
		if len(cleaned) >= 7 {
			return cleaned
		}
		return ""
	}
	digits := strings.TrimLeft(cleaned, "0")
	switch {
	case len(digits) == 10:
		return defaultCountryCode + digits
	case len(digits) >= 7:
		return defaultCountryCode + digits
	default:
		return ""
	}
}
