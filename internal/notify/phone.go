package notify

import "strings"

// NormalizePhone normalizes a phone number to the leading "+" country-code
// form the providers expect. Separator characters (spaces, dashes, dots,
// parentheses) are stripped; a "00" international prefix is rewritten to "+";
// bare digit strings get a "+" prefixed.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	plus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return trimmed
	}
	if !plus && strings.HasPrefix(d, "00") {
		d = d[2:]
	}
	return "+" + d
}
