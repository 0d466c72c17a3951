package scm

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/src-d/enry/v2"
)

// PathFilter decides which file identifiers reach the aggregation engine.
type PathFilter struct {
	// SkipPrefixes drops files whose identifier starts with any of the prefixes (e.g. "vendor/").
	SkipPrefixes []string
	// SkipVendored drops files that linguist considers vendored or third-party.
	SkipVendored bool
	// Languages, when non-empty, keeps only files whose detected language is listed.
	// Matching is case-insensitive.
	Languages []string
}

// Allows reports whether a modification of fileID passes the filter.
func (f *PathFilter) Allows(fileID string) bool {
	for _, prefix := range f.SkipPrefixes {
		if prefix != "" && strings.HasPrefix(fileID, prefix) {
			return false
		}
	}

	if f.SkipVendored && enry.IsVendor(fileID) {
		return false
	}

	if len(f.Languages) == 0 {
		return true
	}

	lang := detectLanguage(fileID)
	if lang == "" {
		return false
	}

	for _, allowed := range f.Languages {
		if strings.EqualFold(allowed, lang) {
			return true
		}
	}

	return false
}

// empty reports whether the filter lets every file through.
func (f *PathFilter) empty() bool {
	return len(f.SkipPrefixes) == 0 && !f.SkipVendored && len(f.Languages) == 0
}

func detectLanguage(fileID string) string {
	base := path.Base(fileID)

	lang, ok := enry.GetLanguageByFilename(base)
	if ok {
		return lang
	}

	lang, ok = enry.GetLanguageByExtension(base)
	if ok {
		return lang
	}

	return ""
}

// FilterSource wraps a source and drops modifications rejected by a PathFilter.
// Commits are always yielded, even when every modification was dropped.
type FilterSource struct {
	inner  Source
	filter PathFilter
}

// NewFilterSource creates a filtering source.
func NewFilterSource(inner Source, filter PathFilter) *FilterSource {
	return &FilterSource{inner: inner, filter: filter}
}

// Next returns the next commit from the wrapped source with disallowed files removed.
func (s *FilterSource) Next(ctx context.Context) (*Commit, error) {
	commit, err := s.inner.Next(ctx)
	if err != nil {
		return nil, err
	}

	if s.filter.empty() {
		return commit, nil
	}

	kept := make([]Modification, 0, len(commit.Modifications))

	for _, mod := range commit.Modifications {
		if s.filter.Allows(mod.FileID) {
			kept = append(kept, mod)
		}
	}

	filtered := *commit
	filtered.Modifications = kept

	return &filtered, nil
}

// SinceSource drops commits made before a cutoff. Commits without a timestamp
// are kept.
type SinceSource struct {
	inner Source
	since time.Time
}

// NewSinceSource creates a source that skips commits older than since.
func NewSinceSource(inner Source, since time.Time) *SinceSource {
	return &SinceSource{inner: inner, since: since}
}

// Next returns the next commit at or after the cutoff.
func (s *SinceSource) Next(ctx context.Context) (*Commit, error) {
	for {
		commit, err := s.inner.Next(ctx)
		if err != nil {
			return nil, err
		}

		if commit.When.IsZero() || !commit.When.Before(s.since) {
			return commit, nil
		}
	}
}
