package helpers

import (
	"strings"
)

// TrimTrailingSlashes removes every trailing "/" from a base URL
func TrimTrailingSlashes(base string) string {
	return strings.TrimRight(base, "/")
}

// JoinBase appends a root-relative path to a base URL
func JoinBase(base, path string) string {
	return TrimTrailingSlashes(base) + path
}

// SchemeOf returns the scheme of an absolute URL ("https" when it cannot be told)
func SchemeOf(rawURL string) string {
	if i := strings.Index(rawURL, "://"); i > 0 {
		return rawURL[:i]
	}
	return "https"
}
