// Package scm defines the source-control records consumed by the metric
// aggregation engine: file modifications, the commits that carry them, and the
// pull interface through which log readers hand them over.
package scm

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument is returned when a malformed modification reaches the core.
var ErrInvalidArgument = errors.New("invalid argument")

// ChangeKind represents the type of change a commit applied to a file.
type ChangeKind int

const (
	// KindUnknown means the log reader did not report a change kind.
	KindUnknown ChangeKind = iota
	// KindAdd indicates a new file was added.
	KindAdd
	// KindModify indicates a file was modified in place.
	KindModify
	// KindDelete indicates a file was removed.
	KindDelete
	// KindRename indicates a file was moved, possibly with edits.
	KindRename
)

var changeKindNames = [...]string{
	KindUnknown: "",
	KindAdd:     "ADD",
	KindModify:  "MODIFY",
	KindDelete:  "DELETE",
	KindRename:  "RENAME",
}

// String returns the upper-case name of the change kind, or "" when unknown.
func (k ChangeKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}

	return changeKindNames[k]
}

func (k ChangeKind) valid() bool {
	return k >= KindUnknown && k <= KindRename
}

// ParseChangeKind converts a change kind name (ADD, MODIFY, DELETE, RENAME) to a ChangeKind.
// The empty string maps to KindUnknown.
func ParseChangeKind(name string) (ChangeKind, error) {
	for kind, kindName := range changeKindNames {
		if kindName == name {
			return ChangeKind(kind), nil
		}
	}

	return KindUnknown, fmt.Errorf("%w: unknown change kind %q", ErrInvalidArgument, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k ChangeKind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("%w: change kind %d", ErrInvalidArgument, int(k))
	}

	return []byte(changeKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ChangeKind) UnmarshalText(text []byte) error {
	parsed, err := ParseChangeKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// Modification describes one file changed in one commit.
//
// Only FileID is required. The remaining fields are optional and are filled in by
// log readers that know them; metrics that do not need them ignore them.
type Modification struct {
	// FileID identifies the file. It is matched exactly, never normalized.
	FileID string
	// Kind is the change kind, KindUnknown when the reader cannot tell.
	Kind ChangeKind
	// OldFileID is the previous identifier of a renamed file.
	OldFileID string
	// Author is the commit author.
	Author string
	// When is the commit author time.
	When time.Time
	// AddedLines is the number of lines added to the file.
	AddedLines int64
	// DeletedLines is the number of lines removed from the file.
	DeletedLines int64
}

// NewModification creates a modification for the given file with an unknown change kind.
func NewModification(fileID string) Modification {
	return Modification{FileID: fileID}
}

// Validate checks that the modification can be routed to metrics.
func (m Modification) Validate() error {
	if m.FileID == "" {
		return fmt.Errorf("%w: modification without file id", ErrInvalidArgument)
	}

	if !m.Kind.valid() {
		return fmt.Errorf("%w: modification of %s has change kind %d", ErrInvalidArgument, m.FileID, int(m.Kind))
	}

	if m.AddedLines < 0 || m.DeletedLines < 0 {
		return fmt.Errorf("%w: modification of %s has negative line counts", ErrInvalidArgument, m.FileID)
	}

	return nil
}
