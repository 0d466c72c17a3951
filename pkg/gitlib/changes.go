package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangeAction is the kind of change a commit made to one file.
type ChangeAction int

const (
	// Insert means the file was added.
	Insert ChangeAction = iota
	// Delete means the file was removed.
	Delete
	// Modify means the file content changed in place.
	Modify
	// Rename means the file moved, possibly with content changes.
	Rename
)

// ChangeEntry is one side of a change.
type ChangeEntry struct {
	Name string
	Hash Hash
	Size int64
}

// Change is a single file change between two trees. From is empty for inserts and
// To is empty for deletes.
type Change struct {
	Action ChangeAction
	From   ChangeEntry
	To     ChangeEntry
}

// Path returns the path the file has after the change, or before it for deletes.
func (c *Change) Path() string {
	if c.Action == Delete {
		return c.From.Name
	}

	return c.To.Name
}

// Changes is the list of changes of one diff, in libgit2 order.
type Changes []*Change

func collectChanges(diff *git2go.Diff) (Changes, error) {
	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("get num deltas: %w", err)
	}

	changes := make(Changes, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, fmt.Errorf("get delta %d: %w", i, deltaErr)
		}

		from := entryOf(delta.OldFile)
		to := entryOf(delta.NewFile)

		switch delta.Status {
		case git2go.DeltaAdded, git2go.DeltaCopied:
			changes = append(changes, &Change{Action: Insert, To: to})
		case git2go.DeltaDeleted:
			changes = append(changes, &Change{Action: Delete, From: from})
		case git2go.DeltaModified, git2go.DeltaTypeChange:
			changes = append(changes, &Change{Action: Modify, From: from, To: to})
		case git2go.DeltaRenamed:
			changes = append(changes, &Change{Action: Rename, From: from, To: to})
		case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
			git2go.DeltaUnreadable, git2go.DeltaConflicted:
			continue
		}
	}

	return changes, nil
}

func entryOf(file git2go.DiffFile) ChangeEntry {
	return ChangeEntry{
		Name: file.Path,
		Hash: HashFromOid(file.Oid),
		Size: int64(file.Size), //nolint:gosec // blob sizes fit in int64.
	}
}
