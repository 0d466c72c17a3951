package scm

import (
	"context"
	"errors"
	"io"
)

// Source is a lazy, finite, non-restartable sequence of commits.
//
// Next returns io.EOF once the sequence is exhausted. Any other error is a read
// failure of the underlying collaborator. Implementations must honour ctx so a run
// can be aborted mid-stream.
type Source interface {
	Next(ctx context.Context) (*Commit, error)
}

// SourceFunc adapts an ordinary function to the Source interface.
type SourceFunc func(ctx context.Context) (*Commit, error)

// Next calls f(ctx).
func (f SourceFunc) Next(ctx context.Context) (*Commit, error) {
	return f(ctx)
}

// SliceSource yields a fixed list of commits in order.
type SliceSource struct {
	commits []*Commit
	pos     int
}

// NewSliceSource creates a source over the given commits.
func NewSliceSource(commits ...*Commit) *SliceSource {
	return &SliceSource{commits: commits}
}

// Next returns the next commit or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (*Commit, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	if s.pos >= len(s.commits) {
		return nil, io.EOF
	}

	commit := s.commits[s.pos]
	s.pos++

	return commit, nil
}

// Collect drains a source into a slice. Intended for tests and small histories.
func Collect(ctx context.Context, src Source) ([]*Commit, error) {
	var commits []*Commit

	for {
		commit, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return commits, nil
		}

		if err != nil {
			return commits, err
		}

		commits = append(commits, commit)
	}
}
