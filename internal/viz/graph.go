package viz

import (
	"github.com/matsen/attacktree/internal/score"
	"github.com/matsen/attacktree/internal/tree"
)

// BuildGraph converts a tree snapshot into graph data. When res is non-nil
// leaves carry their category and weighted contribution, and the graph
// carries a risk summary.
func BuildGraph(snap tree.Snapshot, res *score.Result) *GraphData {
	parentCounts := make(map[string]int)
	edges := make([]Edge, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		parentCounts[e.Child]++
		edges = append(edges, Edge{Source: e.Parent, Target: e.Child})
	}

	contributions := make(map[string]score.Contribution)
	if res != nil {
		for _, c := range res.Contributions {
			contributions[c.Label] = c
		}
	}

	nodes := make([]Node, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		nodes = append(nodes, newNode(n, parentCounts[n.Label], contributions))
	}

	graph := &GraphData{Nodes: nodes, Edges: edges}
	if res != nil {
		graph.Risk = &RiskSummary{
			Mode:   res.Mode,
			Total:  res.Total,
			Rating: res.Rating,
			Level:  res.Level,
			Color:  res.Level.HexColor(),
		}
	}
	return graph
}

// newNode creates a visualization node from snapshot info.
func newNode(n tree.NodeInfo, parents int, contributions map[string]score.Contribution) Node {
	label := n.Label
	if n.Name != "" {
		label = n.Name
	}

	node := Node{
		ID:          n.Label,
		Type:        nodeType(n),
		Label:       label,
		Value:       n.Value,
		ParentCount: parents,
		ChildCount:  n.Children,
	}
	if c, ok := contributions[n.Label]; ok {
		node.Category = c.Category
		weighted := c.Weighted
		node.Weighted = &weighted
	}
	return node
}

func nodeType(n tree.NodeInfo) string {
	switch {
	case n.Root:
		return NodeTypeRoot
	case n.Leaf:
		return NodeTypeLeaf
	default:
		return NodeTypeBranch
	}
}
