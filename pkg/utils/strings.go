package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func Capitalize(s string) string {
	return cases.Title(language.English).String(strings.ToLower(s))
}

// Humanize turns identifiers such as "closedwon" or "AUTHORISED" or
// "appointment_scheduled" into display text.
func Humanize(s string) string {
	return Capitalize(strings.NewReplacer("_", " ", "-", " ").Replace(s))
}

// MaskSecret keeps the first and last four characters of long secrets.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) > 8 {
		return secret[:4] + strings.Repeat("*", len(secret)-8) + secret[len(secret)-4:]
	}
	return strings.Repeat("*", len(secret))
}

// Truncate cuts s to at most n bytes, for fixed-width tables.
func Truncate(s string, n int) string {
	return s[:min(n, len(s))]
}
