// Package viz renders attack trees as Cytoscape graphs and collapsible outlines.
package viz

import "github.com/matsen/attacktree/internal/score"

// Node types.
const (
	NodeTypeRoot   = "root"
	NodeTypeBranch = "branch"
	NodeTypeLeaf   = "leaf"
)

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node       `json:"nodes"`
	Edges []Edge       `json:"edges"`
	Risk  *RiskSummary `json:"risk,omitempty"`
}

// Node is one tree node in the graph.
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"` // "root", "branch" or "leaf"
	Label string `json:"label"`

	// Leaf fields (for tooltips)
	Value    *float64 `json:"value,omitempty"`
	Category string   `json:"category,omitempty"`
	Weighted *float64 `json:"weighted,omitempty"`

	ParentCount int `json:"parentCount"`
	ChildCount  int `json:"childCount"`
}

// Edge is a parent -> child link.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// RiskSummary is the score banner shown above the graph.
type RiskSummary struct {
	Mode   score.Mode  `json:"mode"`
	Total  float64     `json:"total"`
	Rating float64     `json:"rating"`
	Level  score.Level `json:"level"`
	Color  string      `json:"color"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}
