package session

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matsen/attacktree/internal/canon"
	"github.com/matsen/attacktree/internal/edge"
	"github.com/matsen/attacktree/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const model = `{
	"Threats": {
		"Physical Attack": {"Tailgating": 0.2},
		"Insider Threat": {"Sabotage": 0.05}
	}
}`

func newTestSession(t *testing.T, input string) (*Session, *bytes.Buffer) {
	t.Helper()
	m, err := canon.Decode(strings.NewReader(model), canon.FormatJSON, "model.json")
	require.NoError(t, err)
	tr, _ := tree.Build(m, tree.Options{})
	var out bytes.Buffer
	return New(tr, strings.NewReader(input), &out), &out
}

func TestChooseModel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"default", "default\n", "pre.json"},
		{"blank", "\n", "pre.json"},
		{"end of input", "", "pre.json"},
		{"custom", "custom\nmine.yaml\n", "mine.yaml"},
		{"custom case-insensitive", "CUSTOM\n\nmine.xml\n", "mine.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			s := New(nil, strings.NewReader(tt.input), &out)
			got, err := s.ChooseModel("pre.json")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChooseModel_CustomWithoutPath(t *testing.T) {
	var out bytes.Buffer
	s := New(nil, strings.NewReader("custom\n"), &out)
	_, err := s.ChooseModel("pre.json")
	assert.Error(t, err)
}

func TestAddRisks(t *testing.T) {
	s, out := newTestSession(t, "Physical Attack\nBadge Cloning\nNetwork Attack\nInsider Threat\nBribery\nexit\n")

	added, err := s.AddRisks()
	require.NoError(t, err)

	assert.Equal(t, []edge.Edge{
		{Parent: "Physical Attack", Child: "Badge Cloning"},
		{Parent: "Insider Threat", Child: "Bribery"},
	}, added)
	assert.True(t, s.Tree.HasEdge("Physical Attack", "Badge Cloning"))
	assert.True(t, s.Tree.HasEdge("Insider Threat", "Bribery"))
	assert.False(t, s.Tree.HasNode("Network Attack"))

	text := out.String()
	assert.Contains(t, text, "Risk type 'Network Attack' does not exist.")
	assert.Contains(t, text, "Added risk: Badge Cloning under risk type: Physical Attack")
}

func TestAddRisks_ExitCaseInsensitive(t *testing.T) {
	s, _ := newTestSession(t, "EXIT\nPhysical Attack\nIgnored\n")

	added, err := s.AddRisks()
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.False(t, s.Tree.HasNode("Ignored"))
}

func TestAddRisks_EndOfInput(t *testing.T) {
	s, _ := newTestSession(t, "Physical Attack\nBadge Cloning")

	added, err := s.AddRisks()
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.True(t, s.Tree.HasEdge("Physical Attack", "Badge Cloning"))
}

func TestAddRisks_EmptyChild(t *testing.T) {
	s, out := newTestSession(t, "Physical Attack\n\nexit\n")

	added, err := s.AddRisks()
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Contains(t, out.String(), "Could not add risk")
	assert.Equal(t, 5, s.Tree.Len())
}

func TestElicitValues(t *testing.T) {
	s, out := newTestSession(t, "20\nabc%\n35%\n5.5%\n")

	n, err := s.ElicitValues()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 0.35, s.Tree.LeafValue("Tailgating"), 1e-9)
	assert.InDelta(t, 0.055, s.Tree.LeafValue("Sabotage"), 1e-9)

	text := out.String()
	assert.Contains(t, text, "Risk found: Tailgating")
	assert.Contains(t, text, "Invalid format. Please suffix with '%' for probability.")
	assert.Contains(t, text, "Invalid value. Please enter a valid number.")
}

func TestElicitValues_EndOfInput(t *testing.T) {
	s, _ := newTestSession(t, "10%\n")

	n, err := s.ElicitValues()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.InDelta(t, 0.1, s.Tree.LeafValue("Tailgating"), 1e-9)
	assert.InDelta(t, 0.05, s.Tree.LeafValue("Sabotage"), 1e-9)
}

func TestElicitValues_IncludesAddedRisks(t *testing.T) {
	s, _ := newTestSession(t, "Physical Attack\nBadge Cloning\nexit\n1%\n2%\n3%\n")

	_, err := s.AddRisks()
	require.NoError(t, err)
	n, err := s.ElicitValues()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.InDelta(t, 0.03, s.Tree.LeafValue("Badge Cloning"), 1e-9)
}
