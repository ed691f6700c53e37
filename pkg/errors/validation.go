package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateKey validates a document key before it reaches a store.
// File stores map keys to paths, so keys that could escape the store
// directory are rejected.
//
// The validation rules are intentionally conservative:
//   - No empty keys
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "document key cannot be empty")
	}

	if len(key) > 256 {
		return New(ErrCodeInvalidKey, "document key too long (max 256 characters)")
	}

	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "document key contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidKey, "document key contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(key, "/") {
		return New(ErrCodeInvalidKey, "document key cannot start with /")
	}

	return nil
}

// ValidateNodeID validates an identifier supplied for a node.
// Ids end up in element ids and timer keys, so they must be printable.
func ValidateNodeID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidGraph, "node id cannot be empty")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "node id %q contains control characters", id)
		}
	}
	return nil
}

// documentExtRegex matches the document extensions the codecs understand.
var documentExtRegex = regexp.MustCompile(`(?i)\.(json|ya?ml)$`)

// ValidateDocumentPath validates the path of a graph document on disk.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Extension must be .json, .yaml or .yml
func ValidateDocumentPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if !documentExtRegex.MatchString(path) {
		return New(ErrCodeInvalidFormat, "unsupported document extension: %q (want .json, .yaml or .yml)", path)
	}

	return nil
}

// storeSchemes lists the URL schemes accepted for document stores.
var storeSchemes = []string{"memory://", "file://", "redis://", "rediss://", "mongodb://", "mongodb+srv://"}

// ValidateStoreURL validates a document store URL.
// Only the scheme is checked; backends parse the rest.
func ValidateStoreURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "store URL cannot be empty")
	}

	for _, scheme := range storeSchemes {
		if strings.HasPrefix(rawURL, scheme) {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "unsupported store URL %q (want one of %s)", rawURL, strings.Join(storeSchemes, ", "))
}
