package validators

import "strings"

// Length caps for enrollment form fields. Anything longer is truncated
// rather than rejected, since the fields are opaque free text.
const (
	MaxFieldLen      = 200
	MaxPhoneLen      = 20
	MaxSemesterLen   = 20
	MaxRollNumberLen = 50
)

// SanitizeString trims surrounding whitespace and truncates to maxLen runes.
// Truncation is rune-aware so a multi-byte name never ends mid-character.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return trimmed
}
