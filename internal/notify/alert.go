package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Channel message length limits.
const (
	// SMSMaxLen keeps an alert inside Twilio's 1600-character message cap.
	SMSMaxLen = 1600
	// WhatsAppMaxLen is the Cloud API text body limit.
	WhatsAppMaxLen = 4096
)

// Status summarizes the health of one monitored entity's zones.
type Status struct {
	Offline  int
	Expired  int
	Unpaired int
}

// Healthy reports whether nothing needs attention.
func (s Status) Healthy() bool {
	return s.Offline == 0 && s.Expired == 0 && s.Unpaired == 0
}

// FormatAlert renders a human-readable alert for the given entity. Pure and
// deterministic: same inputs, same output, no I/O.
func FormatAlert(entityName string, st Status) string {
	if st.Healthy() {
		return fmt.Sprintf("%s: all zones healthy", entityName)
	}
	parts := make([]string, 0, 3)
	if st.Offline > 0 {
		parts = append(parts, fmt.Sprintf("%d %s offline", st.Offline, plural(st.Offline, "zone", "zones")))
	}
	if st.Expired > 0 {
		parts = append(parts, fmt.Sprintf("%d %s expired", st.Expired, plural(st.Expired, "subscription", "subscriptions")))
	}
	if st.Unpaired > 0 {
		parts = append(parts, fmt.Sprintf("%d %s unpaired", st.Unpaired, plural(st.Unpaired, "device", "devices")))
	}
	return fmt.Sprintf("%s: %s", entityName, strings.Join(parts, ", "))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Truncate clips s to at most limit runes. When a space falls within the last
// 20% of the limit the cut happens there instead of mid-word. limit <= 0
// means unlimited.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := runes[:limit]
	// prefer the nearest word boundary, but only in the tail of the budget
	floor := limit * 4 / 5
	for i := limit - 1; i >= floor; i-- {
		if cut[i] == ' ' {
			return strings.TrimRight(string(cut[:i]), " ")
		}
	}
	return string(cut)
}
