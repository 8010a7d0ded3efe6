package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxMessageLength is the maximum length for server-supplied strings
	// (notification messages, error bodies) in logs
	MaxMessageLength = 1000
)

// SanitizeString makes a server-supplied string safe for logging: it repairs
// invalid UTF-8, strips control characters and truncates to maxLength
// (MaxMessageLength when maxLength <= 0). Notification text and error bodies
// come from the wire and must not be able to inject log lines.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxMessageLength
	}

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			builder.WriteRune(r)
		}
	}
	s = builder.String()

	if len(s) > maxLength {
		s = s[:maxLength] + "..."
	}
	return s
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxMessageLength)
}
