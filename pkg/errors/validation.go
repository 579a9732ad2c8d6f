package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxKeyLength bounds flowchart and entity keys accepted from requests.
const MaxKeyLength = 256

// ValidateKey checks a flowchart id or name, or an entity id, received from
// outside the process. Keys are looked up, never used as paths, but
// separators and control characters are still rejected so they can appear
// in URLs and logs verbatim.
func ValidateKey(kind, key string) error {
	switch {
	case key == "":
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	case len(key) > MaxKeyLength:
		return New(ErrCodeInvalidInput, "%s too long (max %d bytes)", kind, MaxKeyLength)
	case strings.ContainsAny(key, "/\\"):
		return New(ErrCodeInvalidInput, "%s %q contains a path separator", kind, key)
	case strings.ContainsFunc(key, unicode.IsControl):
		return New(ErrCodeInvalidInput, "%s contains control characters", kind)
	}
	return nil
}

var namespaceRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// ValidateNamespace checks a cache namespace. Empty means unscoped.
func ValidateNamespace(ns string) error {
	if ns != "" && !namespaceRegex.MatchString(ns) {
		return New(ErrCodeInvalidConfig, "invalid cache namespace: %q", ns)
	}
	return nil
}

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
