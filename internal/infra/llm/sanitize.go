package llm

import "strings"

const bearerPrefix = "bearer "

// SanitizeKey normalizes a credential copied from a secret store or dashboard:
// surrounding whitespace, a leading "Bearer " (any case) and wrapping quotes
// are removed. An empty input yields an empty key.
func SanitizeKey(raw string) string {
	key := unquote(raw)
	if len(key) >= len(bearerPrefix) && strings.EqualFold(key[:len(bearerPrefix)], bearerPrefix) {
		key = unquote(key[len(bearerPrefix):])
	}
	return key
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
