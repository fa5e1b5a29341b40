// Package edge defines the parent -> child relation between attack tree nodes.
package edge

import (
	"errors"
)

// Edge represents a directed relationship from a parent node to a child node.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Validation errors.
var (
	ErrEmptyParent = errors.New("parent is required")
	ErrEmptyChild  = errors.New("child is required")
	ErrSelfEdge    = errors.New("parent and child cannot be the same")
)

// ValidateForCreate validates an edge for creation.
// Returns an error if any required field is missing or invalid.
func (e *Edge) ValidateForCreate() error {
	if e.Parent == "" {
		return ErrEmptyParent
	}
	if e.Child == "" {
		return ErrEmptyChild
	}
	if e.Parent == e.Child {
		return ErrSelfEdge
	}
	return nil
}

// Key returns the unique identity tuple for this edge.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Parent: e.Parent, Child: e.Child}
}

// EdgeKey represents the unique identity of an edge.
type EdgeKey struct {
	Parent string
	Child  string
}

// OrphanedEdgeInfo contains information about an edge with missing endpoints.
type OrphanedEdgeInfo struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Reason string `json:"reason"` // "missing_parent", "missing_child", or "missing_both"
}

// DetectOrphanedEdges finds edges that reference labels not in the valid set.
// Returns orphaned edges with their reasons and the list of valid edges.
func DetectOrphanedEdges(edges []Edge, validLabels map[string]bool) (orphaned []OrphanedEdgeInfo, valid []Edge) {
	for _, e := range edges {
		parentOK := validLabels[e.Parent]
		childOK := validLabels[e.Child]

		if !parentOK || !childOK {
			info := OrphanedEdgeInfo{Parent: e.Parent, Child: e.Child}
			if !parentOK && !childOK {
				info.Reason = "missing_both"
			} else if !parentOK {
				info.Reason = "missing_parent"
			} else {
				info.Reason = "missing_child"
			}
			orphaned = append(orphaned, info)
		} else {
			valid = append(valid, e)
		}
	}
	return orphaned, valid
}

// FindMultiParent returns, for every child with more than one distinct
// parent, the parents in first-seen order.
func FindMultiParent(edges []Edge) map[string][]string {
	parents := make(map[string][]string)
	seen := make(map[EdgeKey]bool)
	for _, e := range edges {
		if seen[e.Key()] {
			continue
		}
		seen[e.Key()] = true
		parents[e.Child] = append(parents[e.Child], e.Parent)
	}

	multi := make(map[string][]string)
	for child, ps := range parents {
		if len(ps) > 1 {
			multi[child] = ps
		}
	}
	return multi
}
