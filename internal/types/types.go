// Package types defines the cross-package data structures used by the dumpo CLI.
package types

// Subcommand names.
const (
	CommandPack = "pack"
	CommandInit = "init"
)

// Entry is one file discovered under a pack root that survived filtering.
type Entry struct {
	// RelativePath is slash-separated and relative to the pack root.
	RelativePath string
	// AbsolutePath is the location used for reading.
	AbsolutePath string
}
