// Package redact scrubs sensitive or oversized information from
// strings before they are logged or returned in error responses:
// credentials, connection strings, and the base64 image blobs that
// would otherwise flood log lines.
package redact

import "regexp"

// Redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedDataURLPlaceholder    = "[REDACTED_DATA_URL]"
	RedactedConnPlaceholder       = "[REDACTED_CONNECTION]"
)

// Precompiled redaction patterns
var (
	// Database connection strings with inline credentials
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@[^\s]+`)

	// API keys and tokens appearing in error text
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// Base64 data URLs; an image payload can be megabytes of text
	dataURLRegex = regexp.MustCompile(`data:[\w.+-]+/[\w.+-]+;base64,[A-Za-z0-9+/=]+`)
)

// String scrubs sensitive content from s.
func String(s string) string {
	s = dbConnRegex.ReplaceAllString(s, RedactedConnPlaceholder)
	s = apiKeyRegex.ReplaceAllString(s, "$1$2"+RedactedCredentialPlaceholder)
	s = dataURLRegex.ReplaceAllString(s, RedactedDataURLPlaceholder)
	return s
}

// Error scrubs an error's message. A nil error yields an empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
