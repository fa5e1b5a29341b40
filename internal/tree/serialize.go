package tree

import (
	"fmt"

	"github.com/matsen/attacktree/internal/canon"
)

// Serialize converts the subtree under root back into a canonical mapping
// {name: value}. An empty root selects the first node ever added.
//
// A node with children becomes a mapping of its serialized children, merged
// in child order with later keys overwriting earlier ones. A node without
// children becomes its recorded value, or 0. A node reached again while
// already being expanded (a cycle created by label merging) is written as
// its value.
func (t *Tree) Serialize(root string) (*canon.Mapping, error) {
	out := canon.NewMapping()
	if root == "" {
		if len(t.order) == 0 {
			return out, nil
		}
		root = t.order[0]
	}
	if !t.HasNode(root) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, root)
	}

	out.Set(t.nodes[root].name, t.serializeValue(root, make(map[string]bool)))
	return out, nil
}

// SerializeAll merges the serialization of every root into one mapping.
// Nodes that no root reaches, such as a cycle closed through the first
// node, are written starting from the earliest inserted of them, so every
// node appears in the output.
func (t *Tree) SerializeAll() *canon.Mapping {
	out := canon.NewMapping()
	reached := make(map[string]bool, len(t.order))
	add := func(root string) {
		out.Set(t.nodes[root].name, t.serializeValue(root, make(map[string]bool)))
		t.markReachable(root, reached)
	}
	for _, root := range t.Roots() {
		add(root)
	}
	for _, label := range t.order {
		if !reached[label] {
			add(label)
		}
	}
	return out
}

func (t *Tree) markReachable(label string, reached map[string]bool) {
	stack := []string{label}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[cur] {
			continue
		}
		reached[cur] = true
		stack = append(stack, t.nodes[cur].children...)
	}
}

func (t *Tree) serializeValue(label string, expanding map[string]bool) any {
	n := t.nodes[label]
	if len(n.children) == 0 || expanding[label] {
		return t.values[label]
	}

	expanding[label] = true
	defer delete(expanding, label)

	m := canon.NewMapping()
	for _, child := range n.children {
		m.Set(t.nodes[child].name, t.serializeValue(child, expanding))
	}
	return m
}
