// Package gitlog streams commits out of `git log` text output.
//
// The reader understands the default, medium and fuller pretty formats followed by
// --name-status, --numstat or --raw file lines, in any combination. Lines for the
// same path within one commit are merged into a single modification. Commits are
// yielded in input order; use `git log --reverse` for oldest-first aggregation.
package gitlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// ErrMalformedLog is wrapped by every parse failure.
var ErrMalformedLog = errors.New("malformed git log")

const (
	initialLineBuffer = 64 * 1024
	maxLineLength     = 4 * 1024 * 1024
	commitPrefix      = "commit "
	messageIndent     = "    "
	stdinPath         = "-"
	lz4Suffix         = ".lz4"
)

// ParseError locates a parse failure in the input.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at line %d: %s: %q", ErrMalformedLog, e.Line, e.Msg, e.Text)
}

// Unwrap makes ParseError match ErrMalformedLog.
func (e *ParseError) Unwrap() error {
	return ErrMalformedLog
}

// Reader is a scm.Source over git log text.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	lineNo  int
	// next holds the hash of a commit whose header line was already consumed.
	next    string
	started bool
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineLength)

	return &Reader{scanner: scanner}
}

// Open opens a log file. "-" reads standard input and a .lz4 suffix selects LZ4
// frame decompression.
func Open(path string) (*Reader, error) {
	if path == stdinPath {
		return NewReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open git log: %w", err)
	}

	var input io.Reader = file
	if strings.HasSuffix(path, lz4Suffix) {
		input = lz4.NewReader(file)
	}

	reader := NewReader(input)
	reader.closer = file

	return reader, nil
}

// Close closes the underlying file, if Open created one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	err := r.closer.Close()
	r.closer = nil

	return err
}

// Next returns the next commit or io.EOF.
func (r *Reader) Next(ctx context.Context) (*scm.Commit, error) {
	ctxErr := ctx.Err()
	if ctxErr != nil {
		return nil, ctxErr
	}

	if !r.started {
		r.started = true

		err := r.seekFirstCommit()
		if err != nil {
			return nil, err
		}
	}

	if r.next == "" {
		return nil, io.EOF
	}

	builder := newCommitBuilder(r.next)
	r.next = ""

	for r.scanner.Scan() {
		r.lineNo++
		line := r.scanner.Text()

		if hash, ok := commitHeader(line); ok {
			r.next = hash

			return builder.commit(), nil
		}

		msg := builder.consume(line)
		if msg != "" {
			return nil, &ParseError{Line: r.lineNo, Text: line, Msg: msg}
		}
	}

	err := r.scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read git log at line %d: %w", r.lineNo, err)
	}

	return builder.commit(), nil
}

// seekFirstCommit skips leading blank lines up to the first commit header.
func (r *Reader) seekFirstCommit() error {
	for r.scanner.Scan() {
		r.lineNo++
		line := r.scanner.Text()

		if strings.TrimSpace(line) == "" {
			continue
		}

		hash, ok := commitHeader(line)
		if !ok {
			return &ParseError{Line: r.lineNo, Text: line, Msg: "expected commit header"}
		}

		r.next = hash

		return nil
	}

	err := r.scanner.Err()
	if err != nil {
		return fmt.Errorf("read git log: %w", err)
	}

	return nil
}

// commitHeader extracts the hash of a "commit <hash> [decorations]" line.
func commitHeader(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, commitPrefix)
	if !ok {
		return "", false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}

	return fields[0], true
}
