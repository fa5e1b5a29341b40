package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// SetLeafValue records value for label, replacing any earlier value. The
// value is stored as given; range checks belong to whoever parsed it.
func (t *Tree) SetLeafValue(label string, value float64) error {
	if !t.HasNode(label) {
		return fmt.Errorf("%w: %q", ErrNotFound, label)
	}
	t.setValue(label, value)
	return nil
}

// LeafValue returns the value recorded for label, or 0.
func (t *Tree) LeafValue(label string) float64 {
	return t.values[label]
}

// HasLeafValue reports whether a value was recorded for label.
func (t *Tree) HasLeafValue(label string) bool {
	_, ok := t.values[label]
	return ok
}

// LeafValues returns a copy of the value table. It includes labels that have
// since gained children.
func (t *Tree) LeafValues() map[string]float64 {
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// ValueEntry is one row of the value table.
type ValueEntry struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ValueEntries returns the value table in the order labels were first
// recorded.
func (t *Tree) ValueEntries() []ValueEntry {
	out := make([]ValueEntry, 0, len(t.valueOrder))
	for _, label := range t.valueOrder {
		out = append(out, ValueEntry{Label: label, Value: t.values[label]})
	}
	return out
}

// StaleValues returns labels that hold a value but now have children.
func (t *Tree) StaleValues() []string {
	var out []string
	for _, label := range t.valueOrder {
		if !t.IsLeaf(label) {
			out = append(out, label)
		}
	}
	return out
}

// UnvaluedLeaves returns current leaves with no recorded value.
func (t *Tree) UnvaluedLeaves() []string {
	var out []string
	for _, label := range t.Leaves() {
		if !t.HasLeafValue(label) {
			out = append(out, label)
		}
	}
	return out
}

func (t *Tree) setValue(label string, value float64) {
	if _, ok := t.values[label]; !ok {
		t.valueOrder = append(t.valueOrder, label)
	}
	t.values[label] = value
}

// ParseLeafValue reads a scalar from a source document as a number.
// Strings may carry a '%' suffix ("35%" is 0.35). Booleans read as 1 or 0.
// Anything else returns 0 and ErrInvalidLeafValue.
func ParseLeafValue(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseNumber(t)
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidLeafValue, v)
	}
}

// ParsePercent reads "35%" as 0.35. The '%' suffix is required.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("%w: %q must end with '%%'", ErrInvalidLeafValue, s)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLeafValue, s)
	}
	return f / 100, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		return ParsePercent(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLeafValue, s)
	}
	return f, nil
}
