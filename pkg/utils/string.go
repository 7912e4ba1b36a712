package utils

// Truncate shortens s to at most maxLen characters, appending an ellipsis
// when anything was cut. Counts runes so multi-byte characters are never
// split.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
