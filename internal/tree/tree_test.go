package tree

import (
	"strings"
	"testing"

	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/edge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, src string) *canon.Mapping {
	t.Helper()
	m, err := canon.Decode(strings.NewReader(src), canon.FormatJSON, "test.json")
	require.NoError(t, err)
	return m
}

const preDigitalisation = `{
	"Threats": {
		"Physical Attack": {
			"Tailgating": 0.2,
			"Lock Picking": 0.1
		},
		"Insider Threat": {
			"Sabotage": 0.05
		}
	}
}`

func TestBuild(t *testing.T) {
	tr, report := Build(mustDecode(t, preDigitalisation), Options{})

	assert.Equal(t, []string{"Threats", "Physical Attack", "Tailgating", "Lock Picking", "Insider Threat", "Sabotage"}, tr.Nodes())
	assert.Equal(t, []string{"Threats"}, tr.Roots())
	assert.Equal(t, []string{"Tailgating", "Lock Picking", "Sabotage"}, tr.Leaves())
	assert.Equal(t, []string{"Physical Attack", "Insider Threat"}, tr.Children("Threats"))
	assert.True(t, tr.HasEdge("Physical Attack", "Tailgating"))
	assert.False(t, tr.HasEdge("Tailgating", "Physical Attack"))

	assert.Equal(t, 0.2, tr.LeafValue("Tailgating"))
	assert.Equal(t, map[string]float64{"Tailgating": 0.2, "Lock Picking": 0.1, "Sabotage": 0.05}, tr.LeafValues())
	assert.Empty(t, report.MergedLabels)
	assert.Empty(t, report.NonNumeric)
}

func TestBuild_EmptyMapping(t *testing.T) {
	tr, _ := Build(canon.NewMapping(), Options{})
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Edges())
}

func TestBuild_MultipleRoots(t *testing.T) {
	tr, _ := Build(mustDecode(t, `{"A": {"x": 1}, "B": 0.5}`), Options{})
	assert.Equal(t, []string{"A", "B"}, tr.Roots())
	assert.True(t, tr.IsLeaf("B"))
	assert.Equal(t, 0.5, tr.LeafValue("B"))
}

func TestBuild_SequenceMergesIntoOneNode(t *testing.T) {
	tr, report := Build(mustDecode(t, `{"Root": {"Step": [0.1, 0.4, 0.7]}}`), Options{})

	assert.Equal(t, []string{"Root", "Step"}, tr.Nodes())
	assert.Equal(t, []string{"Step"}, tr.Children("Root"))
	assert.Equal(t, 0.7, tr.LeafValue("Step"), "last occurrence wins")
	assert.Len(t, tr.Edges(), 1)
	assert.Empty(t, report.MergedLabels)
}

func TestBuild_SequenceOfMappings(t *testing.T) {
	tr, _ := Build(mustDecode(t, `{"Root": {"Vector": [{"a": 0.1}, {"b": 0.2}]}}`), Options{})
	assert.Equal(t, []string{"a", "b"}, tr.Children("Vector"))
	assert.False(t, tr.IsLeaf("Vector"))
}

func TestBuild_CrossBranchLabelsMerge(t *testing.T) {
	src := `{"Root": {"Physical Attack": {"Bribery": 0.1}, "Insider Threat": {"Bribery": 0.3}}}`
	tr, report := Build(mustDecode(t, src), Options{})

	assert.Equal(t, []string{"Physical Attack", "Insider Threat"}, tr.Parents("Bribery"))
	assert.Equal(t, 0.3, tr.LeafValue("Bribery"))
	assert.Equal(t, []string{"Bribery"}, report.MergedLabels)
	assert.Equal(t, []string{"Bribery"}, tr.MultiParent())
}

func TestBuild_Strict(t *testing.T) {
	src := `{"Root": {"Physical Attack": {"Bribery": 0.1}, "Insider Threat": {"Bribery": 0.3}}}`
	tr, report := Build(mustDecode(t, src), Options{Strict: true})

	assert.True(t, tr.HasNode("Root/Physical Attack/Bribery"))
	assert.True(t, tr.HasNode("Root/Insider Threat/Bribery"))
	assert.Equal(t, 0.1, tr.LeafValue("Root/Physical Attack/Bribery"))
	assert.Equal(t, 0.3, tr.LeafValue("Root/Insider Threat/Bribery"))
	assert.Empty(t, report.MergedLabels)
	assert.Equal(t, "Bribery", tr.Name("Root/Insider Threat/Bribery"))

	out, err := tr.Serialize("")
	require.NoError(t, err)
	assert.True(t, canon.Equal(mustDecode(t, src), out))
}

func TestBuild_NonNumericLeaves(t *testing.T) {
	tr, report := Build(mustDecode(t, `{"Root": {"note": "n/a", "p": "35%", "q": "0.5", "flag": true, "none": null}}`), Options{})

	assert.Equal(t, []string{"note", "none"}, report.NonNumeric)
	assert.Equal(t, 0.0, tr.LeafValue("note"))
	assert.True(t, tr.HasLeafValue("note"))
	assert.InDelta(t, 0.35, tr.LeafValue("p"), 1e-12)
	assert.Equal(t, 0.5, tr.LeafValue("q"))
	assert.Equal(t, 1.0, tr.LeafValue("flag"))
}

func TestLoad_AddsToExistingTree(t *testing.T) {
	tr, _ := Build(mustDecode(t, `{"A": {"x": 0.1}}`), Options{})
	tr.Load(mustDecode(t, `{"A": {"y": 0.2}}`))

	assert.Equal(t, []string{"x", "y"}, tr.Children("A"))
}

func TestAddNode(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})

	require.NoError(t, tr.AddNode("Insider Threat", "Data Theft"))
	assert.True(t, tr.HasEdge("Insider Threat", "Data Theft"))
	assert.True(t, tr.IsLeaf("Data Theft"))
	assert.False(t, tr.HasLeafValue("Data Theft"))
	assert.Equal(t, []string{"Data Theft"}, tr.UnvaluedLeaves())
}

func TestAddNode_NotFound(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})
	before := tr.Snapshot()

	err := tr.AddNode("Cyber Attack", "Phishing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, tr.Snapshot())
}

func TestAddNode_Idempotent(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})

	require.NoError(t, tr.AddNode("Threats", "Cyber Attack"))
	once := tr.Edges()
	require.NoError(t, tr.AddNode("Threats", "Cyber Attack"))
	assert.Equal(t, once, tr.Edges())
}

func TestAddNode_Invalid(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})

	assert.ErrorIs(t, tr.AddNode("", "x"), ErrEmptyLabel)
	assert.ErrorIs(t, tr.AddNode("Threats", ""), ErrEmptyLabel)
	assert.ErrorIs(t, tr.AddNode("Threats", "Threats"), edge.ErrSelfEdge)
}

func TestAddNode_ExistingLabelGainsParent(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})

	require.NoError(t, tr.AddNode("Insider Threat", "Tailgating"))
	assert.Equal(t, []string{"Physical Attack", "Insider Threat"}, tr.Parents("Tailgating"))
}

func TestAddNode_DemotesLeafKeepsValue(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})

	require.NoError(t, tr.AddNode("Tailgating", "Fake Badge"))
	assert.False(t, tr.IsLeaf("Tailgating"))
	assert.Equal(t, 0.2, tr.LeafValue("Tailgating"))
	assert.Equal(t, []string{"Tailgating"}, tr.StaleValues())
	assert.Contains(t, tr.LeafValues(), "Tailgating")
}

func TestAddNode_Strict(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{Strict: true})

	require.NoError(t, tr.AddNode("Threats/Insider Threat", "Data Theft"))
	assert.True(t, tr.HasNode("Threats/Insider Threat/Data Theft"))
	assert.Equal(t, "Threats/Insider Threat/Data Theft", tr.LabelFor("Threats/Insider Threat", "Data Theft"))
}

func TestSetLeafValue(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})

	require.NoError(t, tr.SetLeafValue("Sabotage", 0.4))
	assert.Equal(t, 0.4, tr.LeafValue("Sabotage"))

	// Out-of-range values are stored as given.
	require.NoError(t, tr.SetLeafValue("Sabotage", 1.7))
	assert.Equal(t, 1.7, tr.LeafValue("Sabotage"))

	assert.ErrorIs(t, tr.SetLeafValue("Unknown", 0.1), ErrNotFound)
	assert.Equal(t, 0.0, tr.LeafValue("Unknown"))
	assert.False(t, tr.HasLeafValue("Unknown"))
}

func TestValueEntries_Order(t *testing.T) {
	tr, _ := Build(mustDecode(t, preDigitalisation), Options{})
	require.NoError(t, tr.SetLeafValue("Tailgating", 0.9))

	entries := tr.ValueEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, ValueEntry{Label: "Tailgating", Value: 0.9}, entries[0])
	assert.Equal(t, "Sabotage", entries[2].Label)
}

func TestParseLeafValue(t *testing.T) {
	tests := []struct {
		in      any
		want    float64
		wantErr bool
	}{
		{0.25, 0.25, false},
		{3, 3, false},
		{"0.4", 0.4, false},
		{" 12.5% ", 0.125, false},
		{true, 1, false},
		{false, 0, false},
		{"", 0, true},
		{"high", 0, true},
		{"%", 0, true},
		{nil, 0, true},
		{[]any{1.0}, 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLeafValue(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidLeafValue, "ParseLeafValue(%#v)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseLeafValue(%#v)", tt.in)
		assert.InDelta(t, tt.want, got, 1e-12, "ParseLeafValue(%#v)", tt.in)
	}
}

func TestParsePercent(t *testing.T) {
	v, err := ParsePercent("35%")
	require.NoError(t, err)
	assert.InDelta(t, 0.35, v, 1e-12)

	_, err = ParsePercent("0.35")
	assert.ErrorIs(t, err, ErrInvalidLeafValue)

	_, err = ParsePercent("abc%")
	assert.ErrorIs(t, err, ErrInvalidLeafValue)
}

func TestSnapshot(t *testing.T) {
	tr, _ := Build(mustDecode(t, `{"A": {"b": 0.5, "c": {}}}`), Options{})
	snap := tr.Snapshot()

	require.Len(t, snap.Nodes, 3)
	assert.True(t, snap.Nodes[0].Root)
	assert.False(t, snap.Nodes[0].Leaf)
	assert.Equal(t, 2, snap.Nodes[0].Children)
	require.NotNil(t, snap.Nodes[1].Value)
	assert.Equal(t, 0.5, *snap.Nodes[1].Value)
	assert.Nil(t, snap.Nodes[2].Value)
	assert.True(t, snap.Nodes[2].Leaf)
	assert.Equal(t, []edge.Edge{{Parent: "A", Child: "b"}, {Parent: "A", Child: "c"}}, snap.Edges)
}
