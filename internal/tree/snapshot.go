package tree

import "github.com/matsen/attacktree/internal/edge"

// NodeInfo describes one node in a Snapshot.
type NodeInfo struct {
	Label    string   `json:"label"`
	Name     string   `json:"name,omitempty"`
	Root     bool     `json:"root"`
	Leaf     bool     `json:"leaf"`
	Value    *float64 `json:"value,omitempty"`
	Children int      `json:"children"`
}

// Snapshot is a read-only copy of a tree for renderers and storage.
type Snapshot struct {
	Nodes  []NodeInfo         `json:"nodes"`
	Edges  []edge.Edge        `json:"edges"`
	Values map[string]float64 `json:"values"`
}

// Snapshot copies the current nodes, edges and values.
func (t *Tree) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes:  make([]NodeInfo, 0, len(t.order)),
		Edges:  t.Edges(),
		Values: t.LeafValues(),
	}
	for _, label := range t.order {
		n := t.nodes[label]
		info := NodeInfo{
			Label:    label,
			Root:     len(n.parents) == 0,
			Leaf:     len(n.children) == 0,
			Children: len(n.children),
		}
		if n.name != label {
			info.Name = n.name
		}
		if v, ok := t.values[label]; ok {
			info.Value = &v
		}
		snap.Nodes = append(snap.Nodes, info)
	}
	return snap
}
