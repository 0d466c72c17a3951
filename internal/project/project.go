// Package project turns an aggregation snapshot into the project document consumed
// by the city-map visualization: a folder tree mirroring the file identifiers whose
// leaves carry the metric values as attributes.
package project

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
)

// APIVersion is the document format version written by this package.
const APIVersion = "1.3"

// RootName is the name of the root folder.
const RootName = "root"

var (
	// ErrPathConflict is returned when file identifiers map to clashing nodes.
	ErrPathConflict = errors.New("conflicting file paths")
	// ErrEmptyPath is returned for a file identifier without path segments.
	ErrEmptyPath = errors.New("file identifier has no path segments")
)

// Node types.
const (
	TypeFolder = "Folder"
	TypeFile   = "File"
)

// Document is a complete project file.
type Document struct {
	ProjectName string  `json:"projectName"`
	APIVersion  string  `json:"apiVersion"`
	Nodes       []*Node `json:"nodes"`
}

// Node is a folder or a file of the tree.
type Node struct {
	Name       string           `json:"name"`
	Type       string           `json:"type"`
	Attributes map[string]int64 `json:"attributes"`
	Children   []*Node          `json:"children,omitempty"`
}

// Build creates the document of snap. File identifiers are split on "/" and empty
// segments are dropped. Children are sorted with folders first, then by name.
// Identifiers that resolve to the same node, or that need a name as both a file
// and a folder, fail with ErrPathConflict.
func Build(projectName string, snap aggregate.Snapshot) (*Document, error) {
	root := newNode(RootName, TypeFolder)
	placed := make(map[string]string, len(snap))

	for _, fileID := range snap.Files() {
		segments := splitPath(fileID)
		if len(segments) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyPath, fileID)
		}

		key := strings.Join(segments, "/")
		if other, seen := placed[key]; seen {
			return nil, fmt.Errorf("%w: %q and %q resolve to the same file", ErrPathConflict, other, fileID)
		}

		placed[key] = fileID

		parent := root

		for i, segment := range segments[:len(segments)-1] {
			next, ok := parent.child(segment, TypeFolder)
			if !ok {
				return nil, fmt.Errorf("%w: %q needs folder %q, which is a file",
					ErrPathConflict, fileID, strings.Join(segments[:i+1], "/"))
			}

			parent = next
		}

		leaf, ok := parent.child(segments[len(segments)-1], TypeFile)
		if !ok {
			return nil, fmt.Errorf("%w: %q is also a folder", ErrPathConflict, fileID)
		}

		for kind, value := range snap[fileID] {
			leaf.Attributes[string(kind)] = value
		}
	}

	root.sort()

	return &Document{ProjectName: projectName, APIVersion: APIVersion, Nodes: []*Node{root}}, nil
}

func newNode(name, nodeType string) *Node {
	return &Node{Name: name, Type: nodeType, Attributes: map[string]int64{}}
}

// child returns the child with the given name, creating it with nodeType if
// needed. It reports false when the name is taken by a node of another type.
func (n *Node) child(name, nodeType string) (*Node, bool) {
	for _, existing := range n.Children {
		if existing.Name == name {
			return existing, existing.Type == nodeType
		}
	}

	created := newNode(name, nodeType)
	n.Children = append(n.Children, created)

	return created, true
}

func (n *Node) sort() {
	slices.SortFunc(n.Children, func(a, b *Node) int {
		if a.Type != b.Type {
			if a.Type == TypeFolder {
				return -1
			}

			return 1
		}

		return cmp.Compare(a.Name, b.Name)
	})

	for _, child := range n.Children {
		child.sort()
	}
}

// FileCount returns the number of file nodes in the document.
func (d *Document) FileCount() int {
	count := 0

	var walk func(*Node)

	walk = func(n *Node) {
		if n.Type == TypeFile {
			count++
		}

		for _, child := range n.Children {
			walk(child)
		}
	}

	for _, node := range d.Nodes {
		walk(node)
	}

	return count
}

func splitPath(fileID string) []string {
	return slices.DeleteFunc(strings.Split(fileID, "/"), func(s string) bool { return s == "" })
}
