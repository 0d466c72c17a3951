// Package gitrepo reads commit history straight from a git repository through libgit2.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/scmlog/pkg/gitlib"
	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// Options configures a repository source.
type Options struct {
	// FirstParent follows only the first parent of merges and diffs merges against it.
	FirstParent bool
	// Since drops commits authored before this time.
	Since *time.Time
	// DetectRenames folds add/delete pairs of similar content into renames.
	DetectRenames bool
	// SkipLineStats leaves AddedLines and DeletedLines at zero.
	SkipLineStats bool
	// Logger receives per-commit debug output. Nil disables it.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{DetectRenames: true}
}

// Source yields the history reachable from HEAD, oldest commit first.
type Source struct {
	repo   *gitlib.Repository
	iter   *gitlib.CommitIter
	opts   Options
	logger *slog.Logger
}

// Open opens the repository at path and prepares the history walk.
func Open(path string, opts Options) (*Source, error) {
	repo, err := gitlib.OpenRepository(path)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(gitlib.LogOptions{
		Since:       opts.Since,
		FirstParent: opts.FirstParent,
		Reverse:     true,
	})
	if err != nil {
		repo.Free()

		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Source{repo: repo, iter: iter, opts: opts, logger: logger}, nil
}

// Next returns the next commit with its modifications, or io.EOF.
//
// Merge commits carry no modifications unless FirstParent is set, matching the
// default output of git log.
func (s *Source) Next(ctx context.Context) (*scm.Commit, error) {
	ctxErr := ctx.Err()
	if ctxErr != nil {
		return nil, ctxErr
	}

	native, err := s.iter.Next()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}

	if err != nil {
		return nil, err
	}
	defer native.Free()

	author := native.Author()
	commit := &scm.Commit{
		Hash:   native.Hash().String(),
		Author: author.Name,
		When:   author.When,
	}

	if native.NumParents() > 1 && !s.opts.FirstParent {
		s.logger.DebugContext(ctx, "skipping merge diff", "commit", commit.ShortHash())

		return commit, nil
	}

	changes, err := native.Changes(s.opts.DetectRenames)
	if err != nil {
		return nil, fmt.Errorf("changes of %s: %w", commit.ShortHash(), err)
	}

	commit.Modifications = make([]scm.Modification, 0, len(changes))

	for _, change := range changes {
		mod, modErr := s.modification(change)
		if modErr != nil {
			return nil, fmt.Errorf("commit %s: %w", commit.ShortHash(), modErr)
		}

		commit.Modifications = append(commit.Modifications, mod)
	}

	s.logger.DebugContext(ctx, "read commit",
		"commit", commit.ShortHash(), "files", len(commit.Modifications))

	return commit, nil
}

func (s *Source) modification(change *gitlib.Change) (scm.Modification, error) {
	mod := scm.NewModification(change.Path())
	mod.Kind = changeKind(change.Action)

	if change.Action == gitlib.Rename {
		mod.OldFileID = change.From.Name
	}

	if s.opts.SkipLineStats {
		return mod, nil
	}

	stats, err := s.repo.ChangeLineStats(change)
	if err != nil {
		return mod, fmt.Errorf("line stats of %s: %w", mod.FileID, err)
	}

	mod.AddedLines = stats.Added
	mod.DeletedLines = stats.Removed

	return mod, nil
}

func changeKind(action gitlib.ChangeAction) scm.ChangeKind {
	switch action {
	case gitlib.Insert:
		return scm.KindAdd
	case gitlib.Delete:
		return scm.KindDelete
	case gitlib.Modify:
		return scm.KindModify
	case gitlib.Rename:
		return scm.KindRename
	default:
		return scm.KindUnknown
	}
}

// Close releases the walk and the repository.
func (s *Source) Close() error {
	s.iter.Close()
	s.repo.Free()

	return nil
}
