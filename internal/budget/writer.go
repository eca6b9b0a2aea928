// Package budget provides an accumulating byte sink with a fixed capacity.
package budget

import (
	"errors"
	"io"
)

const newline = "\n"

// ErrBudgetExceeded is returned when an append would grow the buffer past its
// capacity. The buffer is left unchanged when it is returned.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Writer accumulates bytes up to a fixed capacity. The buffer length never
// exceeds the capacity and every append either commits all of its bytes or
// none of them. A Writer is not safe for concurrent use.
type Writer struct {
	buffer   []byte
	capacity int
}

// New returns a Writer holding at most capacity bytes. Negative capacities are
// treated as zero.
func New(capacity int) *Writer {
	if capacity < 0 {
		capacity = 0
	}
	return &Writer{capacity: capacity}
}

// Capacity returns the configured ceiling.
func (writer *Writer) Capacity() int {
	return writer.capacity
}

// Len returns the number of committed bytes.
func (writer *Writer) Len() int {
	return len(writer.buffer)
}

// Remaining returns the number of bytes that can still be appended.
func (writer *Writer) Remaining() int {
	remaining := writer.capacity - len(writer.buffer)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Fits reports whether size more bytes can be appended.
func (writer *Writer) Fits(size int) bool {
	return size >= 0 && size <= writer.Remaining()
}

// Append commits text in full, or returns ErrBudgetExceeded without touching
// the buffer.
func (writer *Writer) Append(text string) error {
	if !writer.Fits(len(text)) {
		return ErrBudgetExceeded
	}
	writer.buffer = append(writer.buffer, text...)
	return nil
}

// AppendLine appends text followed by a newline. Each of the two appends is
// independently atomic, so on failure of the newline the text stays committed.
func (writer *Writer) AppendLine(text string) error {
	if appendError := writer.Append(text); appendError != nil {
		return appendError
	}
	return writer.Append(newline)
}

// Write implements io.Writer with the same all-or-nothing guarantee.
func (writer *Writer) Write(data []byte) (int, error) {
	if !writer.Fits(len(data)) {
		return 0, ErrBudgetExceeded
	}
	writer.buffer = append(writer.buffer, data...)
	return len(data), nil
}

// Bytes returns the committed bytes. The slice aliases the internal buffer.
func (writer *Writer) Bytes() []byte {
	return writer.buffer
}

var _ io.Writer = (*Writer)(nil)
