// Package tree builds and mutates labeled attack trees and their leaf values.
//
// Labels are the only node identity: the same label appearing under two
// branches of a source document is one node with two parents. Options.Strict
// namespaces labels by path instead.
package tree

import (
	"errors"
	"fmt"

	"github.com/matsen/attacktree/internal/edge"
)

// DefaultSeparator joins path segments when Options.Strict is set.
const DefaultSeparator = "/"

// Errors.
var (
	ErrNotFound         = errors.New("node not found")
	ErrEmptyLabel       = errors.New("label is required")
	ErrInvalidLeafValue = errors.New("invalid leaf value")
)

// Options configures how labels are assigned.
type Options struct {
	// Strict namespaces each label by its parent path so equal names under
	// different branches stay distinct nodes.
	Strict    bool
	Separator string
}

// Tree is a directed graph of labeled nodes plus a leaf value table.
type Tree struct {
	opts Options

	order []string // node labels in insertion order
	nodes map[string]*node

	edges     []edge.Edge
	edgeIndex map[edge.EdgeKey]bool

	values     map[string]float64
	valueOrder []string
}

type node struct {
	name     string // key used when serializing; equals the label unless strict
	children []string
	parents  []string
}

// New returns an empty tree.
func New(opts Options) *Tree {
	if opts.Separator == "" {
		opts.Separator = DefaultSeparator
	}
	return &Tree{
		opts:      opts,
		nodes:     make(map[string]*node),
		edgeIndex: make(map[edge.EdgeKey]bool),
		values:    make(map[string]float64),
	}
}

// Options returns the options the tree was created with.
func (t *Tree) Options() Options {
	return t.opts
}

// LabelFor returns the label a child named name gets under parent.
func (t *Tree) LabelFor(parent, name string) string {
	if t.opts.Strict && parent != "" {
		return parent + t.opts.Separator + name
	}
	return name
}

// AddNode registers child under an existing parent. Adding an edge that
// already exists is a no-op. In strict mode child is namespaced under parent.
// The tree is unchanged when an error is returned.
func (t *Tree) AddNode(parent, child string) error {
	if parent == "" || child == "" {
		return ErrEmptyLabel
	}
	if !t.HasNode(parent) {
		return fmt.Errorf("%w: %q", ErrNotFound, parent)
	}

	label := t.LabelFor(parent, child)
	if label == parent {
		return fmt.Errorf("%w: %q", edge.ErrSelfEdge, label)
	}
	t.ensureNode(label, child)
	t.link(parent, label)
	return nil
}

// HasNode reports whether label is a node.
func (t *Tree) HasNode(label string) bool {
	_, ok := t.nodes[label]
	return ok
}

// HasEdge reports whether parent -> child is an edge.
func (t *Tree) HasEdge(parent, child string) bool {
	return t.edgeIndex[edge.EdgeKey{Parent: parent, Child: child}]
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.order)
}

// Nodes returns all labels in insertion order.
func (t *Tree) Nodes() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Edges returns all edges in insertion order.
func (t *Tree) Edges() []edge.Edge {
	out := make([]edge.Edge, len(t.edges))
	copy(out, t.edges)
	return out
}

// Name returns the key a node serializes under.
func (t *Tree) Name(label string) string {
	if n, ok := t.nodes[label]; ok {
		return n.name
	}
	return ""
}

// Children returns the children of label in insertion order.
func (t *Tree) Children(label string) []string {
	n, ok := t.nodes[label]
	if !ok {
		return nil
	}
	out := make([]string, len(n.children))
	copy(out, n.children)
	return out
}

// Parents returns the parents of label in insertion order.
func (t *Tree) Parents(label string) []string {
	n, ok := t.nodes[label]
	if !ok {
		return nil
	}
	out := make([]string, len(n.parents))
	copy(out, n.parents)
	return out
}

// IsLeaf reports whether label currently has no children.
func (t *Tree) IsLeaf(label string) bool {
	n, ok := t.nodes[label]
	return ok && len(n.children) == 0
}

// Leaves returns the labels that currently have no children.
func (t *Tree) Leaves() []string {
	var out []string
	for _, label := range t.order {
		if len(t.nodes[label].children) == 0 {
			out = append(out, label)
		}
	}
	return out
}

// Roots returns the labels without parents.
func (t *Tree) Roots() []string {
	var out []string
	for _, label := range t.order {
		if len(t.nodes[label].parents) == 0 {
			out = append(out, label)
		}
	}
	return out
}

// MultiParent returns labels reachable from more than one parent.
func (t *Tree) MultiParent() []string {
	var out []string
	for _, label := range t.order {
		if len(t.nodes[label].parents) > 1 {
			out = append(out, label)
		}
	}
	return out
}

func (t *Tree) ensureNode(label, name string) {
	if _, ok := t.nodes[label]; ok {
		return
	}
	t.nodes[label] = &node{name: name}
	t.order = append(t.order, label)
}

// link adds parent -> child and reports whether the edge is new.
func (t *Tree) link(parent, child string) bool {
	key := edge.EdgeKey{Parent: parent, Child: child}
	if t.edgeIndex[key] {
		return false
	}
	t.edgeIndex[key] = true
	t.edges = append(t.edges, edge.Edge{Parent: parent, Child: child})
	t.nodes[parent].children = append(t.nodes[parent].children, child)
	t.nodes[child].parents = append(t.nodes[child].parents, parent)
	return true
}
