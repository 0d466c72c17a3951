// Package textutil provides byte-level text helpers shared by the history
// readers: binary detection and line counting.
package textutil

import "bytes"

// BinarySniffLength is the maximum number of bytes scanned for a NUL byte,
// the same window git uses before treating a blob as binary.
const BinarySniffLength = 8000

// IsBinary reports whether data holds a NUL byte within the first
// BinarySniffLength bytes. Empty data is text.
func IsBinary(data []byte) bool {
	sniff := data[:min(len(data), BinarySniffLength)]

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines returns the number of lines in data. A final line without a
// trailing newline still counts; empty data has no lines.
func CountLines(data []byte) int64 {
	if len(data) == 0 {
		return 0
	}

	lines := int64(bytes.Count(data, []byte{'\n'}))
	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}
