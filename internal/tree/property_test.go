package tree

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/matsen/attacktree/internal/canon"
)

// heapModel lays names out as a binary heap: the children of i are 2i+1 and
// 2i+2. Names are suffixed with their index so every label is distinct.
func heapModel(names []string, values []float64) *canon.Mapping {
	out := canon.NewMapping()
	if len(names) == 0 {
		return out
	}
	labels := make([]string, len(names))
	for i, n := range names {
		labels[i] = fmt.Sprintf("%s%d", n, i)
	}

	var build func(i int) any
	build = func(i int) any {
		left := 2*i + 1
		if left >= len(labels) {
			if len(values) == 0 {
				return 0.5
			}
			return values[i%len(values)]
		}
		m := canon.NewMapping()
		for _, c := range []int{left, left + 1} {
			if c < len(labels) {
				m.Set(labels[c], build(c))
			}
		}
		return m
	}
	out.Set(labels[0], build(0))
	return out
}

func TestTreeInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("serialize inverts build for distinct labels", prop.ForAll(
		func(names []string, values []float64) bool {
			src := heapModel(names, values)
			tr, _ := Build(src, Options{})
			out, err := tr.Serialize("")
			if err != nil {
				return false
			}
			return canon.Equal(src, out)
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Float64Range(0, 1)),
	))

	properties.Property("add node is idempotent", prop.ForAll(
		func(names []string, child string) bool {
			tr, _ := Build(heapModel(names, nil), Options{})
			if tr.Len() == 0 {
				return true
			}
			parent := tr.Nodes()[tr.Len()-1]
			if err := tr.AddNode(parent, child); err != nil {
				return errors.Is(err, ErrEmptyLabel) || child == parent
			}
			once := tr.Snapshot()
			if err := tr.AddNode(parent, child); err != nil {
				return false
			}
			return reflect.DeepEqual(once, tr.Snapshot())
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	properties.Property("add node under a missing parent changes nothing", prop.ForAll(
		func(names []string, child string) bool {
			tr, _ := Build(heapModel(names, nil), Options{})
			before := tr.Snapshot()
			// Generated labels end in a digit, so this parent never exists.
			err := tr.AddNode("missing-", child+"x")
			return errors.Is(err, ErrNotFound) && reflect.DeepEqual(before, tr.Snapshot())
		},
		gen.SliceOf(gen.Identifier()),
		gen.AlphaString(),
	))

	properties.Property("every edge joins known nodes", prop.ForAll(
		func(names []string) bool {
			tr, _ := Build(heapModel(names, nil), Options{})
			for _, e := range tr.Edges() {
				if !tr.HasNode(e.Parent) || !tr.HasNode(e.Child) {
					return false
				}
			}
			return len(tr.Edges()) == max(tr.Len()-1, 0)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
