package errors

import (
	"strings"
	"unicode"
)

// ValidateFilenamePrefix validates a prefix used to name generated files
// (snapshots are written as "<prefix>_<run>_<iteration>.svg").
//
// The validation rules are intentionally conservative:
//   - No empty prefixes
//   - No control characters or null bytes
//   - No path separators (the prefix must not escape its directory)
//   - Maximum length of 64 characters
func ValidateFilenamePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidPath, "filename prefix cannot be empty")
	}

	const maxPrefixLength = 64
	if len(prefix) > maxPrefixLength {
		return New(ErrCodeInvalidPath, "filename prefix too long (max %d characters)", maxPrefixLength)
	}

	for _, r := range prefix {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "filename prefix contains invalid control characters")
		}
	}

	if strings.ContainsAny(prefix, "/\\") {
		return New(ErrCodeInvalidPath, "filename prefix cannot contain path separators")
	}
	if strings.HasPrefix(prefix, ".") {
		return New(ErrCodeInvalidPath, "filename prefix cannot start with a dot")
	}

	return nil
}

// ValidateOutputDir validates a directory that artifacts or snapshots are written to.
//
// Validation rules:
//   - Directory cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputDir(dir string) error {
	if dir == "" {
		return New(ErrCodeInvalidPath, "output directory cannot be empty")
	}

	const maxPathLength = 500
	if len(dir) > maxPathLength {
		return New(ErrCodeInvalidPath, "output directory too long (max %d characters)", maxPathLength)
	}

	for _, r := range dir {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output directory contains invalid characters")
		}
	}

	return nil
}
