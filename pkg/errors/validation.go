package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxNameLength = 128
	maxPathLength = 500
)

// validName matches names that are safe as file names, Redis keys, SQLite
// primary keys and Mongo document ids.
var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidateName checks a diagram name before it reaches a storage backend.
// Failures carry [ErrCodeInvalidName].
func ValidateName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidName, "name cannot be empty")
	case len(name) > maxNameLength:
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxNameLength)
	case hasControl(name):
		return New(ErrCodeInvalidName, "name contains control characters")
	case strings.Contains(name, ".."):
		return New(ErrCodeInvalidName, "name %q contains %q", name, "..")
	case !validName.MatchString(name):
		return New(ErrCodeInvalidName, "invalid name %q: use letters, digits, '.', '_' and '-'", name)
	}
	return nil
}

// ValidatePath checks a snapshot path given on the command line. Unlike
// names, paths may contain separators. Failures carry [ErrCodeInvalidPath].
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case hasControl(path):
		return New(ErrCodeInvalidPath, "path contains control characters")
	}
	return nil
}
