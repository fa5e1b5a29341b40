package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_WeightedSum(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]float64
		weights Weights
		want    float64
	}{
		{
			name:    "matching category is weighted",
			values:  map[string]float64{"Cyber Attack Root": 0.5},
			weights: Weights{{Category: "Cyber Attack", Weight: 5}},
			want:    2.5,
		},
		{
			name:    "no matching category is unweighted",
			values:  map[string]float64{"B": 0.3},
			weights: Weights{{Category: "Cyber Attack", Weight: 5}},
			want:    0.3,
		},
		{
			name:    "empty table",
			values:  map[string]float64{},
			weights: DefaultWeights(),
			want:    0,
		},
		{
			name: "mixed labels",
			values: map[string]float64{
				"Physical Attack on site": 0.25,
				"Phishing":                0.5,
			},
			weights: DefaultWeights(),
			want:    1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Aggregate(tt.values, tt.weights, ModeWeightedSum)
			assert.InDelta(t, tt.want, res.Total, 1e-9)
			assert.InDelta(t, tt.want*100, res.Rating, 1e-9)
			assert.Equal(t, ModeWeightedSum, res.Mode)
		})
	}
}

func TestAggregate_FirstMatchWins(t *testing.T) {
	weights := Weights{
		{Category: "Insider Threat", Weight: 4},
		{Category: "Cyber Attack", Weight: 5},
	}
	res := Aggregate(map[string]float64{"Insider Threat via Cyber Attack": 0.1}, weights, ModeWeightedSum)

	require.Len(t, res.Contributions, 1)
	c := res.Contributions[0]
	assert.Equal(t, "Insider Threat", c.Category)
	assert.Equal(t, 4.0, c.Weight)
	assert.InDelta(t, 0.4, c.Weighted, 1e-9)
}

func TestAggregate_CaseSensitiveMatch(t *testing.T) {
	res := Aggregate(map[string]float64{"cyber attack": 0.2}, DefaultWeights(), ModeWeightedSum)
	assert.InDelta(t, 0.2, res.Total, 1e-9)
	assert.Empty(t, res.Contributions[0].Category)
}

func TestAggregate_Complementary(t *testing.T) {
	values := map[string]float64{"Cyber Attack": 0.5, "B": 0.5}
	res := Aggregate(values, DefaultWeights(), ModeComplementary)

	assert.InDelta(t, 0.75, res.Total, 1e-9)
	assert.Equal(t, LevelMedium, res.Level)
	for _, c := range res.Contributions {
		assert.Equal(t, 1.0, c.Weight, "weights are not applied in complementary mode")
	}
}

func TestAggregate_ContributionsSorted(t *testing.T) {
	res := Aggregate(map[string]float64{"c": 0.1, "a": 0.1, "b": 0.1}, nil, ModeWeightedSum)
	labels := make([]string, 0, len(res.Contributions))
	for _, c := range res.Contributions {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"a", "b", "c"}, labels)
}

func TestAggregate_EmptyModeDefaultsToWeightedSum(t *testing.T) {
	res := Aggregate(map[string]float64{"Cyber Attack": 0.1}, DefaultWeights(), "")
	assert.Equal(t, ModeWeightedSum, res.Mode)
	assert.InDelta(t, 0.5, res.Total, 1e-9)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		total float64
		want  Level
	}{
		{1.2, LevelHigh},
		{0.7, LevelMedium},
		{0.2, LevelLow},
		{1.0, LevelMedium},
		{0.5, LevelLow},
		{0, LevelLow},
		{-1, LevelLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.total), "Classify(%v)", tt.total)
	}
}

func TestLevel_Color(t *testing.T) {
	assert.Equal(t, "red", LevelHigh.Color())
	assert.Equal(t, "blue", LevelMedium.Color())
	assert.Equal(t, "green", LevelLow.Color())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeWeightedSum, m)

	m, err = ParseMode("Complementary")
	require.NoError(t, err)
	assert.Equal(t, ModeComplementary, m)

	_, err = ParseMode("max")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
