package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const maxIDLength = 128

// entityIDRegex matches block IDs: a letter or digit followed by letters,
// digits, and the separators ".", "_", "-" and ":".
var entityIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateEntityID validates a block ID from a graph file or API request.
// IDs end up in SVG attributes, DOT files and cache keys, so the accepted
// alphabet is deliberately narrow.
func ValidateEntityID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "block ID cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "block ID too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "block ID contains invalid control characters")
		}
	}
	if !entityIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid block ID: %q", id)
	}
	return nil
}

// ValidateGraphFilename validates the name of a graph file. Only JSON and
// TOML graphs are understood.
func ValidateGraphFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidPath, "graph filename cannot be empty")
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".toml":
		return nil
	default:
		return New(ErrCodeInvalidFormat, "unsupported graph file %q (want .json or .toml)", filepath.Base(filename))
	}
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a backend URL. Only the schemes of the supported
// cache backends are accepted.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %v", schemes)
}
