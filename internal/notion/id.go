package notion

import "strings"

// NormalizeID removes dashes if present.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	return strings.ReplaceAll(id, "-", "")
}

// Mask hides most of a secret for startup logs.
func Mask(s string) string {
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
