package gitlib

import (
	"errors"
	"fmt"
	"io"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrParentNotFound is returned when the requested parent commit does not exist.
var ErrParentNotFound = errors.New("parent commit not found")

// Signature is a commit author or committer.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit wraps a libgit2 commit.
type Commit struct {
	commit *git2go.Commit
	repo   *Repository
}

// Hash returns the commit id.
func (c *Commit) Hash() Hash {
	return HashFromOid(c.commit.Id())
}

// Author returns the commit author.
func (c *Commit) Author() Signature {
	sig := c.commit.Author()

	return Signature{Name: sig.Name, Email: sig.Email, When: sig.When}
}

// NumParents returns the number of parents.
func (c *Commit) NumParents() int {
	return int(c.commit.ParentCount())
}

// Parent returns the nth parent.
func (c *Commit) Parent(n int) (*Commit, error) {
	if n < 0 || n >= c.NumParents() {
		return nil, fmt.Errorf("%w: %d of %s", ErrParentNotFound, n, c.Hash())
	}

	parent := c.commit.Parent(uint(n))
	if parent == nil {
		return nil, fmt.Errorf("%w: %d of %s", ErrParentNotFound, n, c.Hash())
	}

	return &Commit{commit: parent, repo: c.repo}, nil
}

// Tree returns the commit's root tree.
func (c *Commit) Tree() (*Tree, error) {
	tree, err := c.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree of %s: %w", c.Hash(), err)
	}

	return &Tree{tree: tree}, nil
}

// Changes lists the files changed by the commit against its first parent. A root
// commit is diffed against the empty tree.
func (c *Commit) Changes(detectRenames bool) (Changes, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	if c.NumParents() == 0 {
		return c.repo.DiffTrees(nil, tree, detectRenames)
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	defer parent.Free()

	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	defer parentTree.Free()

	return c.repo.DiffTrees(parentTree, tree, detectRenames)
}

// Free releases the commit.
func (c *Commit) Free() {
	if c.commit != nil {
		c.commit.Free()
		c.commit = nil
	}
}

// CommitIter iterates over a revision walk.
type CommitIter struct {
	walk  *git2go.RevWalk
	repo  *Repository
	since *time.Time
}

// Next returns the next commit, or io.EOF when the walk is exhausted. The caller
// frees returned commits.
func (ci *CommitIter) Next() (*Commit, error) {
	if ci.walk == nil {
		return nil, io.EOF
	}

	for {
		oid := new(git2go.Oid)

		err := ci.walk.Next(oid)
		if git2go.IsErrorCode(err, git2go.ErrorCodeIterOver) {
			ci.Close()

			return nil, io.EOF
		}

		if err != nil {
			return nil, fmt.Errorf("revwalk next: %w", err)
		}

		commit, err := ci.repo.repo.LookupCommit(oid)
		if err != nil {
			return nil, fmt.Errorf("lookup commit %s: %w", oid, err)
		}

		if ci.since != nil && commit.Author().When.Before(*ci.since) {
			commit.Free()

			continue
		}

		return &Commit{commit: commit, repo: ci.repo}, nil
	}
}

// Close releases the walk. It is safe to call more than once.
func (ci *CommitIter) Close() {
	if ci.walk != nil {
		ci.walk.Free()
		ci.walk = nil
	}
}
