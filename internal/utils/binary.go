package utils

import "bytes"

// ContainsNUL reports whether data contains a NUL byte anywhere. Such content
// is treated as non-text and never rendered.
func ContainsNUL(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}
