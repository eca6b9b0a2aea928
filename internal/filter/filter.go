// Package filter decides which directory tree entries are visible to a pack
// and which visible files are eligible for inclusion, independent of any user
// supplied patterns.
package filter

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	hiddenNamePrefix     = "."
	currentDirectoryName = "."
)

// SkipReason identifies the rule that rejected a file.
type SkipReason int

const (
	// SkipReasonNone marks a file as eligible.
	SkipReasonNone SkipReason = iota
	// SkipReasonUndecodableName marks a name that is not valid UTF-8.
	SkipReasonUndecodableName
	// SkipReasonSecretName marks a credential-shaped file name.
	SkipReasonSecretName
	// SkipReasonSecretExtension marks a private key or certificate extension.
	SkipReasonSecretExtension
	// SkipReasonReservedName marks license, lockfile and build metadata names.
	SkipReasonReservedName
	// SkipReasonHidden marks a dot file while hidden files are excluded.
	SkipReasonHidden
	// SkipReasonExcludedExtension marks binary, media and archive extensions.
	SkipReasonExcludedExtension
)

var skipReasonLabels = map[SkipReason]string{
	SkipReasonNone:              "none",
	SkipReasonUndecodableName:   "undecodable name",
	SkipReasonSecretName:        "secret name",
	SkipReasonSecretExtension:   "secret extension",
	SkipReasonReservedName:      "reserved name",
	SkipReasonHidden:            "hidden",
	SkipReasonExcludedExtension: "excluded extension",
}

// String returns a short label for logging.
func (reason SkipReason) String() string {
	if label, known := skipReasonLabels[reason]; known {
		return label
	}
	return "unknown"
}

// IsUnconditional reports whether the reason can never be overridden by
// flags or patterns.
func (reason SkipReason) IsUnconditional() bool {
	switch reason {
	case SkipReasonUndecodableName, SkipReasonSecretName, SkipReasonSecretExtension:
		return true
	default:
		return false
	}
}

// ShouldPruneDirectory reports whether a directory with the given base name
// must be skipped together with its whole subtree.
func ShouldPruneDirectory(name string, includeHidden bool) bool {
	if !utf8.ValidString(name) {
		return true
	}
	if _, pruned := prunedDirectoryNames[name]; pruned {
		return true
	}
	return !includeHidden && IsHidden(name)
}

// ClassifyFile returns the first rule that rejects the file with the given
// base name, or SkipReasonNone. Rules are evaluated in precedence order:
// secret names, secret extensions, reserved names, hidden files, excluded
// extensions.
func ClassifyFile(name string, includeHidden bool) SkipReason {
	if !utf8.ValidString(name) {
		return SkipReasonUndecodableName
	}
	if isSecretName(name) {
		return SkipReasonSecretName
	}
	extension := extensionOf(name)
	if _, secret := secretExtensions[extension]; secret {
		return SkipReasonSecretExtension
	}
	if _, reserved := reservedFileNames[name]; reserved {
		return SkipReasonReservedName
	}
	if !includeHidden && IsHidden(name) {
		return SkipReasonHidden
	}
	if _, excluded := excludedExtensions[extension]; excluded {
		return SkipReasonExcludedExtension
	}
	return SkipReasonNone
}

// ShouldSkipFile reports whether the file with the given base name is rejected
// by any static rule.
func ShouldSkipFile(name string, includeHidden bool) bool {
	return ClassifyFile(name, includeHidden) != SkipReasonNone
}

// IsHidden reports whether name starts with a dot and is not the current
// directory marker.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, hiddenNamePrefix) && name != currentDirectoryName
}

func isSecretName(name string) bool {
	if _, secret := secretFileNames[name]; secret {
		return true
	}
	for _, prefix := range secretFilePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// extensionOf returns the lower-cased extension without the leading dot.
// A leading dot alone does not start an extension, so ".bashrc" has none.
func extensionOf(name string) string {
	extension := filepath.Ext(name)
	if extension == "" || extension == name {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(extension, "."))
}
