// Package score aggregates leaf values into an overall threat score and
// classifies it into a risk level.
package score

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// CategoryWeight multiplies the value of every label containing Category.
type CategoryWeight struct {
	Category string  `json:"category" yaml:"category" validate:"required"`
	Weight   float64 `json:"weight" yaml:"weight" validate:"gte=0"`
}

// Weights is an ordered category table. The first category that is a
// substring of a label wins.
type Weights []CategoryWeight

// DefaultWeights returns the built-in category table.
func DefaultWeights() Weights {
	return Weights{
		{Category: "Physical Attack", Weight: 2},
		{Category: "Insider Threat", Weight: 4},
		{Category: "Network Attack", Weight: 3},
		{Category: "Cyber Attack", Weight: 5},
	}
}

// Match returns the first category contained in label (case-sensitive).
func (w Weights) Match(label string) (CategoryWeight, bool) {
	for _, cw := range w {
		if strings.Contains(label, cw.Category) {
			return cw, true
		}
	}
	return CategoryWeight{}, false
}

// Mode selects the aggregation formula.
type Mode string

const (
	// ModeWeightedSum sums every value, multiplied by its category weight.
	ModeWeightedSum Mode = "weighted-sum"
	// ModeComplementary treats values as independent probabilities and
	// returns the chance that at least one attack succeeds: 1 - Π(1 - v).
	// Weights are not applied.
	ModeComplementary Mode = "complementary"
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown aggregation mode")

// ParseMode converts a mode name. An empty name selects ModeWeightedSum.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModeWeightedSum:
		return ModeWeightedSum, nil
	case ModeComplementary:
		return ModeComplementary, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: %s, %s)", ErrUnknownMode, name, ModeWeightedSum, ModeComplementary)
	}
}

// Contribution is one label's share of the total.
type Contribution struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Category string  `json:"category,omitempty"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Result is the outcome of an aggregation.
type Result struct {
	Mode          Mode           `json:"mode"`
	Total         float64        `json:"total"`
	Rating        float64        `json:"rating"` // Total * 100
	Level         Level          `json:"level"`
	Contributions []Contribution `json:"contributions"`
}

// Aggregate computes the overall score over every recorded value, whether or
// not its label is still a leaf.
func Aggregate(values map[string]float64, weights Weights, mode Mode) Result {
	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	res := Result{Mode: mode, Contributions: make([]Contribution, 0, len(labels))}
	if mode == "" {
		res.Mode = ModeWeightedSum
	}

	survive := 1.0
	for _, label := range labels {
		v := values[label]
		c := Contribution{Label: label, Value: v, Weight: 1}
		if res.Mode == ModeWeightedSum {
			if cw, ok := weights.Match(label); ok {
				c.Category = cw.Category
				c.Weight = cw.Weight
			}
		}
		c.Weighted = v * c.Weight
		res.Contributions = append(res.Contributions, c)

		res.Total += c.Weighted
		survive *= 1 - v
	}

	if res.Mode == ModeComplementary {
		res.Total = 1 - survive
	}
	res.Rating = res.Total * 100
	res.Level = Classify(res.Total)
	return res
}
