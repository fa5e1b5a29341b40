package tree

import (
	"github.com/matsen/attacktree/internal/canon"
)

// BuildReport describes what a load did beyond adding nodes.
type BuildReport struct {
	// MergedLabels lists labels that gained a second parent during the
	// load, i.e. equal labels under different branches collapsed into one
	// node.
	MergedLabels []string `json:"merged_labels,omitempty"`

	// NonNumeric lists scalar leaves whose value could not be read as a
	// number. They are recorded with value 0.
	NonNumeric []string `json:"non_numeric,omitempty"`
}

// Build returns a new tree holding m.
func Build(m *canon.Mapping, opts Options) (*Tree, BuildReport) {
	t := New(opts)
	report := t.Load(m)
	return t, report
}

// Load walks m and adds its nodes, edges and leaf values to the tree.
//
// Each key whose value is a mapping becomes a branch node; a sequence
// re-applies its key to every element under the same parent, so repeated
// keys merge into one node; a scalar becomes a node whose value is recorded,
// overwriting any earlier value for that label. Top-level keys become
// independent roots.
func (t *Tree) Load(m *canon.Mapping) BuildReport {
	var report BuildReport
	t.loadMapping(m, "", &report, make(map[string]bool))
	return report
}

func (t *Tree) loadMapping(m *canon.Mapping, parent string, report *BuildReport, merged map[string]bool) {
	for _, e := range m.Entries() {
		t.loadEntry(e.Key, e.Value, parent, report, merged)
	}
}

func (t *Tree) loadEntry(key string, value any, parent string, report *BuildReport, merged map[string]bool) {
	if items, ok := value.([]any); ok {
		for _, item := range items {
			t.loadEntry(key, item, parent, report, merged)
		}
		return
	}

	label := t.LabelFor(parent, key)
	t.ensureNode(label, key)
	if parent != "" && t.link(parent, label) && len(t.nodes[label].parents) > 1 && !merged[label] {
		merged[label] = true
		report.MergedLabels = append(report.MergedLabels, label)
	}

	if sub, ok := value.(*canon.Mapping); ok {
		t.loadMapping(sub, label, report, merged)
		return
	}

	v, err := ParseLeafValue(value)
	if err != nil {
		report.NonNumeric = append(report.NonNumeric, label)
	}
	t.setValue(label, v)
}
