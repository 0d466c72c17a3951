package project

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
)

func sampleSnapshot() aggregate.Snapshot {
	return aggregate.Snapshot{
		"src/app/main.go": {metrics.KindNumberOfCommits: 3, metrics.KindAddedLines: 40},
		"src/lib.go":      {metrics.KindNumberOfCommits: 1},
		"README.md":       {metrics.KindNumberOfCommits: 2},
	}
}

func build(t *testing.T, snap aggregate.Snapshot) *Document {
	t.Helper()

	doc, err := Build("demo", snap)
	require.NoError(t, err)

	return doc
}

// find returns the node at the "/"-separated path below the root.
func find(doc *Document, path string) (*Node, bool) {
	node := doc.Nodes[0]

	for _, segment := range splitPath(path) {
		idx := slices.IndexFunc(node.Children, func(n *Node) bool { return n.Name == segment })
		if idx < 0 {
			return nil, false
		}

		node = node.Children[idx]
	}

	return node, true
}

func readFile(t *testing.T, path string) *Document {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, lz4Suffix) {
		r = lz4.NewReader(file)
	}

	var doc Document

	require.NoError(t, json.NewDecoder(r).Decode(&doc))

	return &doc
}

func TestBuild_Tree(t *testing.T) {
	t.Parallel()

	doc := build(t, sampleSnapshot())

	assert.Equal(t, "demo", doc.ProjectName)
	assert.Equal(t, APIVersion, doc.APIVersion)
	require.Len(t, doc.Nodes, 1)

	root := doc.Nodes[0]
	assert.Equal(t, RootName, root.Name)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "src", root.Children[0].Name)
	assert.Equal(t, TypeFolder, root.Children[0].Type)
	assert.Equal(t, "README.md", root.Children[1].Name)
	assert.Equal(t, TypeFile, root.Children[1].Type)

	leaf, ok := find(doc, "src/app/main.go")
	require.True(t, ok)
	assert.Equal(t, map[string]int64{"number_of_commits": 3, "added_lines": 40}, leaf.Attributes)

	_, ok = find(doc, "src/missing.go")
	assert.False(t, ok)

	assert.Equal(t, 3, doc.FileCount())
}

func TestBuild_EmptySnapshot(t *testing.T) {
	t.Parallel()

	doc, err := Build("empty", aggregate.Snapshot{})
	require.NoError(t, err)

	assert.Equal(t, 0, doc.FileCount())
	require.NoError(t, Validate(doc))
}

func TestBuild_DropsEmptySegments(t *testing.T) {
	t.Parallel()

	doc := build(t, aggregate.Snapshot{"/a//b.go": {metrics.KindNumberOfCommits: 1}})

	node, ok := find(doc, "a/b.go")
	require.True(t, ok)
	assert.Equal(t, TypeFile, node.Type)
	assert.Equal(t, 1, doc.FileCount())
}

func TestBuild_RejectsConflictingPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		snap aggregate.Snapshot
		want error
	}{
		{
			name: "same file after dropping empty segments",
			snap: aggregate.Snapshot{
				"a/b":  {metrics.KindNumberOfCommits: 1},
				"a//b": {metrics.KindNumberOfCommits: 7},
			},
			want: ErrPathConflict,
		},
		{
			name: "file later used as folder",
			snap: aggregate.Snapshot{
				"docs":      {metrics.KindNumberOfCommits: 1},
				"docs/x.md": {metrics.KindNumberOfCommits: 2},
			},
			want: ErrPathConflict,
		},
		{
			name: "folder later used as file",
			snap: aggregate.Snapshot{
				"a//b/c.go": {metrics.KindNumberOfCommits: 1},
				"a/b":       {metrics.KindNumberOfCommits: 2},
			},
			want: ErrPathConflict,
		},
		{
			name: "no path segments",
			snap: aggregate.Snapshot{"/": {metrics.KindNumberOfCommits: 1}},
			want: ErrEmptyPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Build("demo", tt.snap)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, doc)
		})
	}
}

func TestBuild_KeepsEveryFile(t *testing.T) {
	t.Parallel()

	snap := aggregate.Snapshot{
		"docs/x.md": {metrics.KindNumberOfCommits: 2},
		"docs.md":   {metrics.KindNumberOfCommits: 1},
		"a/b":       {metrics.KindNumberOfCommits: 1},
		"a/b.go":    {metrics.KindNumberOfCommits: 7},
		"a/c/b":     {metrics.KindNumberOfCommits: 3},
	}

	doc := build(t, snap)
	require.NoError(t, Validate(doc))
	assert.Equal(t, len(snap), doc.FileCount())

	for fileID, values := range snap {
		node, ok := find(doc, fileID)
		require.True(t, ok, fileID)
		assert.Equal(t, TypeFile, node.Type)
		assert.Equal(t, values[metrics.KindNumberOfCommits], node.Attributes["number_of_commits"])
	}
}

func TestValidate_RejectsBrokenDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  *Document
	}{
		{name: "no project name", doc: &Document{APIVersion: APIVersion, Nodes: build(t, nil).Nodes}},
		{name: "no root", doc: &Document{ProjectName: "x", APIVersion: APIVersion}},
		{name: "root is a file", doc: &Document{
			ProjectName: "x", APIVersion: APIVersion,
			Nodes: []*Node{{Name: "root", Type: TypeFile, Attributes: map[string]int64{}}},
		}},
		{name: "bad version", doc: &Document{ProjectName: "x", APIVersion: "one", Nodes: build(t, nil).Nodes}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.ErrorIs(t, Validate(tt.doc), ErrInvalidDocument)
		})
	}
}

func TestWrite_JSONShape(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, Write(&buf, build(t, sampleSnapshot()), false))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "demo", decoded["projectName"])
	assert.Equal(t, "1.3", decoded["apiVersion"])
}

func TestWriteFile_PlainAndCompressed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := build(t, sampleSnapshot())

	tests := []struct {
		name     string
		file     string
		compress bool
	}{
		{name: "plain", file: "demo.cc.json"},
		{name: "lz4 suffix", file: "demo.cc.json.lz4"},
		{name: "compress flag", file: "flag.cc.json.lz4", compress: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, tt.file)

			require.NoError(t, WriteFile(path, doc, tt.compress))
			assert.Equal(t, doc, readFile(t, path))
		})
	}
}

func TestWriteFile_InvalidCreatesNothing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.cc.json")

	require.ErrorIs(t, WriteFile(path, &Document{}, false), ErrInvalidDocument)
	assert.NoFileExists(t, path)
}

func TestWrite_RejectsInvalid(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := Write(&buf, &Document{}, false)
	require.ErrorIs(t, err, ErrInvalidDocument)
	assert.Zero(t, buf.Len())
}
