package gitlib

import (
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/scmlog/pkg/textutil"
)

// diffTimeout bounds the line diff of one file pair.
const diffTimeout = 5 * time.Second

// LineStats counts the lines a change added and removed.
type LineStats struct {
	Added   int64
	Removed int64
}

// DiffLineStats computes added and removed line counts between two versions of a
// file. Binary content on either side yields zero stats, like git numstat.
func DiffLineStats(oldData, newData []byte) LineStats {
	if textutil.IsBinary(oldData) || textutil.IsBinary(newData) {
		return LineStats{}
	}

	if len(oldData) == 0 {
		return LineStats{Added: textutil.CountLines(newData)}
	}

	if len(newData) == 0 {
		return LineStats{Removed: textutil.CountLines(oldData)}
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = diffTimeout

	src, dst, _ := dmp.DiffLinesToRunes(string(oldData), string(newData))

	var stats LineStats

	for _, edit := range dmp.DiffMainRunes(src, dst, false) {
		switch edit.Type {
		case diffmatchpatch.DiffInsert:
			stats.Added += int64(utf8.RuneCountInString(edit.Text))
		case diffmatchpatch.DiffDelete:
			stats.Removed += int64(utf8.RuneCountInString(edit.Text))
		case diffmatchpatch.DiffEqual:
		}
	}

	return stats
}

// ChangeLineStats loads the blobs of change and computes its line stats.
func (r *Repository) ChangeLineStats(change *Change) (LineStats, error) {
	var oldData, newData []byte

	if !change.From.Hash.IsZero() && change.Action != Insert {
		data, err := r.BlobContents(change.From.Hash)
		if err != nil {
			return LineStats{}, err
		}

		oldData = data
	}

	if !change.To.Hash.IsZero() && change.Action != Delete {
		data, err := r.BlobContents(change.To.Hash)
		if err != nil {
			return LineStats{}, err
		}

		newData = data
	}

	return DiffLineStats(oldData, newData), nil
}
