package utils

import (
	"net/url"
	"path"
	"strings"
)

// FilenameFromURL returns the last path segment of rawURL with any query
// string or fragment removed.
func FilenameFromURL(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		name := path.Base(u.Path)
		if name == "/" || name == "." {
			return ""
		}
		return name
	}

	// Fall back to plain string splitting for URLs net/url rejects
	name := rawURL[strings.LastIndex(rawURL, "/")+1:]
	if idx := strings.IndexAny(name, "?#"); idx != -1 {
		name = name[:idx]
	}
	return name
}

// HasExtension reports whether filename contains a dot, the only signal
// available for guessing its format.
func HasExtension(filename string) bool {
	return strings.Contains(filename, ".")
}

// Extension returns the lower-cased text after the last dot, or "".
func Extension(filename string) string {
	if !HasExtension(filename) {
		return ""
	}
	return strings.ToLower(filename[strings.LastIndex(filename, ".")+1:])
}
