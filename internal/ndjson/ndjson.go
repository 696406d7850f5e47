// Package ndjson reads newline-delimited JSON streams from agent CLIs.
//
// Agent CLIs occasionally emit very large single lines (a result message
// carrying a whole file diff can exceed bufio's default 64 KiB token limit),
// so the reader carries a generous maximum line size.
package ndjson

import (
	"bufio"
	"bytes"
	"io"
)

// MaxLineSize is the largest single line the reader accepts (10 MiB).
const MaxLineSize = 10 * 1024 * 1024

// Reader yields one line at a time from an NDJSON stream.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader wraps r in a line reader sized for agent CLI output.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineSize)
	return &Reader{scanner: scanner}
}

// ReadLine returns the next line without its trailing newline. Blank lines
// are skipped. Returns io.EOF when the stream ends.
func (r *Reader) ReadLine() ([]byte, error) {
	for r.scanner.Scan() {
		line := bytes.TrimRight(r.scanner.Bytes(), "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		// Copy out of the scanner's buffer; the next Scan invalidates it.
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
