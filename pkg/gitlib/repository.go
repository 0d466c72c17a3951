package gitlib

import (
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens the git repository at path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the commit HEAD points to.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// BlobContents returns a copy of the blob with the given hash.
func (r *Repository) BlobContents(hash Hash) ([]byte, error) {
	blob, err := r.repo.LookupBlob(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup blob %s: %w", hash, err)
	}
	defer blob.Free()

	contents := blob.Contents()
	data := make([]byte, len(contents))
	copy(data, contents)

	return data, nil
}

// LogOptions configures history iteration.
type LogOptions struct {
	// Since drops commits authored before this time.
	Since *time.Time
	// FirstParent follows only the first parent of merges (git log --first-parent).
	FirstParent bool
	// Reverse yields the oldest commit first.
	Reverse bool
}

// Log returns an iterator over the history reachable from HEAD, in topological order.
func (r *Repository) Log(opts LogOptions) (*CommitIter, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		walk.Free()

		return nil, err
	}

	err = walk.Push(head.ToOid())
	if err != nil {
		walk.Free()

		return nil, fmt.Errorf("push HEAD to revwalk: %w", err)
	}

	sorting := git2go.SortTopological | git2go.SortTime
	if opts.Reverse {
		sorting |= git2go.SortReverse
	}

	walk.Sorting(sorting)

	if opts.FirstParent {
		walk.SimplifyFirstParent()
	}

	return &CommitIter{walk: walk, repo: r, since: opts.Since}, nil
}

// DiffTrees lists the files changed between two trees. A nil oldTree diffs against
// the empty tree. With detectRenames, add/delete pairs of similar content are folded
// into renames.
func (r *Repository) DiffTrees(oldTree, newTree *Tree, detectRenames bool) (Changes, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return Changes{}, nil
	}

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldNative, newNative *git2go.Tree
	if oldTree != nil {
		oldNative = oldTree.tree
	}

	if newTree != nil {
		newNative = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldNative, newNative, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	defer func() { _ = diff.Free() }()

	if detectRenames {
		findOpts, findErr := git2go.DefaultDiffFindOptions()
		if findErr != nil {
			return nil, fmt.Errorf("get find options: %w", findErr)
		}

		findOpts.Flags = git2go.DiffFindRenames

		findErr = diff.FindSimilar(&findOpts)
		if findErr != nil {
			return nil, fmt.Errorf("find renames: %w", findErr)
		}
	}

	return collectChanges(diff)
}
