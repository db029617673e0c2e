package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Passwords embedded in URL style and key/value DSNs,
// e.g. "postgres://user:pw@host" or "password=pw".
var (
	urlPassword = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.\-]*://[^:/@\s]+:[^@\s]+@`)
	kvPassword  = regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*\S+`)
)

// newRedactAttr returns a masq ReplaceAttr hook hiding connection secrets,
// both in attributes named after them and inside DSN-shaped values.
func newRedactAttr() func([]string, slog.Attr) slog.Attr {
	return masq.New(
		masq.WithFieldName("password"),
		masq.WithFieldName("Password"),
		masq.WithFieldName("Passwd"),
		masq.WithFieldName("dsn"),
		masq.WithFieldName("token"),
		masq.WithFieldPrefix("secret"),
		masq.WithRegex(urlPassword),
		masq.WithRegex(kvPassword),
	)
}
