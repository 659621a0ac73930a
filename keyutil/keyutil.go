// Package keyutil defines the naming convention for addressable item keys.
//
// Keys are path-like strings ("artist/track/0"). A small set of reserved
// names is used by the store for its derived tables; reserved names are never
// key-like and never appear in key listings.
package keyutil

import (
	"errors"
	"fmt"
	"strings"
)

// Reserved entry names used by the store for its derived tables.
const (
	ReservedKeyManifest = "__key_manifest__"
	ReservedLabelEnum   = "__label_enum__"
	ReservedIndexTable  = "__index_table__"
)

const reservedPrefix = "__"

// ErrInvalidKey is returned when a key does not conform to the naming convention.
var ErrInvalidKey = errors.New("invalid key")

// ReservedNames returns the reserved entry names in a fixed order.
func ReservedNames() []string {
	return []string{ReservedKeyManifest, ReservedLabelEnum, ReservedIndexTable}
}

// IsReserved reports whether name is one of the reserved table entries.
func IsReserved(name string) bool {
	switch name {
	case ReservedKeyManifest, ReservedLabelEnum, ReservedIndexTable:
		return true
	}
	return false
}

// Cleanse normalizes a key to its canonical form: surrounding whitespace and
// slashes are trimmed and repeated separators are collapsed.
//
// Cleanse does not validate; a cleansed key may still fail IsKeyLike.
func Cleanse(key string) string {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, "/")

	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}

// IsKeyLike reports whether key, in canonical form, may address an item.
//
// A key-like string is non-empty, contains no empty or relative ("." / "..")
// segments, and no segment starts with the reserved prefix.
func IsKeyLike(key string) bool {
	if key == "" || key != Cleanse(key) {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
		if strings.HasPrefix(seg, reservedPrefix) {
			return false
		}
	}
	return true
}

// Validate cleanses key and returns the canonical form, or ErrInvalidKey if
// the result is not key-like.
func Validate(key string) (string, error) {
	key = Cleanse(key)
	if !IsKeyLike(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}
