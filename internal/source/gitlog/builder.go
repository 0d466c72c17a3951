package gitlog

import (
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// dateLayouts are the author date forms git log prints, tried in order.
var dateLayouts = []string{
	"Mon Jan 2 15:04:05 2006 -0700",
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
}

// renameArrow separates old and new paths in numstat rename notation.
const renameArrow = " => "

// ignoredHeaders are header prefixes that carry nothing a metric needs.
var ignoredHeaders = []string{"Commit:", "CommitDate:", "Merge:", "Reflog:", "Notes:"}

// commitBuilder accumulates the lines of one commit.
type commitBuilder struct {
	current scm.Commit
	index   map[string]int
}

func newCommitBuilder(hash string) *commitBuilder {
	return &commitBuilder{
		current: scm.Commit{Hash: hash},
		index:   make(map[string]int),
	}
}

func (b *commitBuilder) commit() *scm.Commit {
	commit := b.current

	return &commit
}

// consume interprets one line and returns a non-empty message when it is malformed.
func (b *commitBuilder) consume(line string) string {
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, messageIndent) {
		return ""
	}

	if strings.Contains(line, "\t") {
		return b.consumeFileLine(line)
	}

	return b.consumeHeader(line)
}

func (b *commitBuilder) consumeHeader(line string) string {
	switch {
	case strings.HasPrefix(line, "Author:"):
		b.current.Author = authorName(strings.TrimPrefix(line, "Author:"))

		return ""
	case strings.HasPrefix(line, "AuthorDate:"):
		return b.setDate(strings.TrimPrefix(line, "AuthorDate:"))
	case strings.HasPrefix(line, "Date:"):
		return b.setDate(strings.TrimPrefix(line, "Date:"))
	}

	for _, prefix := range ignoredHeaders {
		if strings.HasPrefix(line, prefix) {
			return ""
		}
	}

	return "unexpected line"
}

func (b *commitBuilder) setDate(raw string) string {
	value := strings.TrimSpace(raw)

	for _, layout := range dateLayouts {
		when, err := time.Parse(layout, value)
		if err == nil {
			b.current.When = when

			return ""
		}
	}

	return "unrecognized date"
}

// authorName returns the name part of "Name <email>".
func authorName(raw string) string {
	value := strings.TrimSpace(raw)

	if open := strings.LastIndex(value, " <"); open >= 0 && strings.HasSuffix(value, ">") {
		return strings.TrimSpace(value[:open])
	}

	return value
}

func (b *commitBuilder) consumeFileLine(line string) string {
	if strings.HasPrefix(line, ":") {
		return b.consumeRaw(line)
	}

	parts := strings.Split(line, "\t")

	if len(parts) == 3 && isCount(parts[0]) && isCount(parts[1]) {
		return b.consumeNumstat(parts)
	}

	return b.consumeStatus(parts)
}

// consumeRaw handles ":<mode> <mode> <sha> <sha> <status>\t<path>[\t<path>]".
func (b *commitBuilder) consumeRaw(line string) string {
	meta, paths, ok := strings.Cut(line, "\t")
	if !ok {
		return "raw line without path"
	}

	fields := strings.Fields(meta)
	if len(fields) < 5 {
		return "raw line with missing fields"
	}

	return b.consumeStatus(append([]string{fields[4]}, strings.Split(paths, "\t")...))
}

// consumeStatus handles "<status>\t<path>" and "<R|C><score>\t<old>\t<new>".
func (b *commitBuilder) consumeStatus(parts []string) string {
	if len(parts) < 2 || parts[0] == "" {
		return "unexpected file line"
	}

	for i := 1; i < len(parts); i++ {
		path, ok := unquotePath(parts[i])
		if !ok {
			return "malformed quoted path"
		}

		parts[i] = path
	}

	status := parts[0]

	switch status[0] {
	case 'A':
		b.entry(parts[1]).Kind = scm.KindAdd
	case 'M', 'T':
		b.entry(parts[1]).Kind = scm.KindModify
	case 'D':
		b.entry(parts[1]).Kind = scm.KindDelete
	case 'R':
		if len(parts) != 3 {
			return "rename without both paths"
		}

		mod := b.entry(parts[2])
		mod.Kind = scm.KindRename
		mod.OldFileID = parts[1]
	case 'C':
		if len(parts) != 3 {
			return "copy without both paths"
		}

		b.entry(parts[2]).Kind = scm.KindAdd
	case 'U', 'X', 'B':
		b.entry(parts[len(parts)-1])
	default:
		return "unknown change status"
	}

	return ""
}

// consumeNumstat handles "<added>\t<deleted>\t<path>", where counts are "-" for
// binary files and path may use the "old => new" or "dir/{old => new}/f" forms.
func (b *commitBuilder) consumeNumstat(parts []string) string {
	oldPath, newPath, ok := splitNumstatPath(parts[2])
	if !ok {
		return "malformed quoted path"
	}

	if newPath == "" {
		return "numstat line without path"
	}

	mod := b.entry(newPath)
	mod.AddedLines = parseCount(parts[0])
	mod.DeletedLines = parseCount(parts[1])

	if oldPath != "" && oldPath != newPath {
		mod.OldFileID = oldPath
		if mod.Kind == scm.KindUnknown {
			mod.Kind = scm.KindRename
		}
	}

	return ""
}

// entry returns the modification of path, appending it on first sight.
func (b *commitBuilder) entry(path string) *scm.Modification {
	pos, ok := b.index[path]
	if !ok {
		pos = len(b.current.Modifications)
		b.index[path] = pos
		b.current.Modifications = append(b.current.Modifications, scm.NewModification(path))
	}

	return &b.current.Modifications[pos]
}

func isCount(field string) bool {
	if field == "-" {
		return true
	}

	_, err := strconv.ParseUint(field, 10, 63)

	return err == nil
}

func parseCount(field string) int64 {
	value, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0
	}

	return value
}

// unquotePath decodes a path git printed in C-quoted form, such as "\303\244.txt".
// Paths without a leading quote are returned unchanged.
func unquotePath(path string) (string, bool) {
	if !strings.HasPrefix(path, `"`) {
		return path, true
	}

	decoded, err := strconv.Unquote(path)
	if err != nil {
		return "", false
	}

	return decoded, true
}

// splitNumstatPath splits a numstat path field into old and new paths. Quoted
// renames are printed as "old" => "new" with each side quoted on its own.
func splitNumstatPath(field string) (oldPath, newPath string, ok bool) {
	if !strings.HasPrefix(field, `"`) {
		oldPath, newPath = splitRenamePath(field)
		if oldPath == "" {
			return "", newPath, true
		}

		return unquoteRename(oldPath, newPath)
	}

	quoted, err := strconv.QuotedPrefix(field)
	if err != nil {
		return "", "", false
	}

	rest := field[len(quoted):]
	if rest == "" {
		newPath, ok = unquotePath(quoted)

		return "", newPath, ok
	}

	target, found := strings.CutPrefix(rest, renameArrow)
	if !found {
		return "", "", false
	}

	return unquoteRename(quoted, target)
}

func unquoteRename(oldRaw, newRaw string) (oldPath, newPath string, ok bool) {
	oldPath, ok = unquotePath(oldRaw)
	if !ok {
		return "", "", false
	}

	newPath, ok = unquotePath(newRaw)
	if !ok {
		return "", "", false
	}

	return oldPath, newPath, true
}

// splitRenamePath expands numstat rename notation into old and new paths. Paths
// without rename notation return an empty old path.
func splitRenamePath(path string) (oldPath, newPath string) {
	open := strings.Index(path, "{")
	closing := strings.LastIndex(path, "}")

	if open >= 0 && closing > open && strings.Contains(path[open:closing], renameArrow) {
		prefix, suffix := path[:open], path[closing+1:]
		before, after, _ := strings.Cut(path[open+1:closing], renameArrow)

		return joinRenamePart(prefix, before, suffix), joinRenamePart(prefix, after, suffix)
	}

	before, after, ok := strings.Cut(path, renameArrow)
	if ok {
		return before, after
	}

	return "", path
}

// joinRenamePart rebuilds a path from a brace rename, collapsing the double slash
// left by an empty side such as "dir/{ => sub}/f".
func joinRenamePart(prefix, middle, suffix string) string {
	if middle == "" {
		return prefix + strings.TrimPrefix(suffix, "/")
	}

	return prefix + middle + suffix
}
