package viz

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/matsen/attacktree/internal/score"
	"github.com/matsen/attacktree/internal/tree"
)

// outline indexes a snapshot for depth-first rendering.
type outline struct {
	nodes    map[string]tree.NodeInfo
	children map[string][]string
	parents  map[string]int
	roots    []string
}

func newOutline(snap tree.Snapshot) *outline {
	o := &outline{
		nodes:    make(map[string]tree.NodeInfo, len(snap.Nodes)),
		children: make(map[string][]string),
		parents:  make(map[string]int),
	}
	for _, n := range snap.Nodes {
		o.nodes[n.Label] = n
		if n.Root {
			o.roots = append(o.roots, n.Label)
		}
	}
	for _, e := range snap.Edges {
		o.children[e.Parent] = append(o.children[e.Parent], e.Child)
		o.parents[e.Child]++
	}
	// Mutation can give the first root a parent; start from it anyway.
	if len(o.roots) == 0 && len(snap.Nodes) > 0 {
		o.roots = []string{snap.Nodes[0].Label}
	}
	return o
}

func (o *outline) name(label string) string {
	if n := o.nodes[label]; n.Name != "" {
		return n.Name
	}
	return label
}

// walk visits every node depth-first from the roots. A node already on the
// current path is visited once more with revisit set and not descended into.
func (o *outline) walk(visit func(label string, depth int, revisit bool)) {
	onPath := make(map[string]bool)
	var rec func(label string, depth int)
	rec = func(label string, depth int) {
		if onPath[label] {
			visit(label, depth, true)
			return
		}
		visit(label, depth, false)
		onPath[label] = true
		for _, c := range o.children[label] {
			rec(c, depth+1)
		}
		delete(onPath, label)
	}
	for _, r := range o.roots {
		rec(r, 0)
	}
}

// RenderText renders the snapshot as an indented plain-text outline. Leaves
// show their value as a percentage; unvalued leaves show "-".
func RenderText(snap tree.Snapshot) string {
	o := newOutline(snap)
	var sb strings.Builder
	o.walk(func(label string, depth int, revisit bool) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(o.name(label))
		n := o.nodes[label]
		switch {
		case revisit:
			sb.WriteString(" (cycle)")
		case n.Leaf && n.Value != nil:
			fmt.Fprintf(&sb, ": %s", formatPercent(*n.Value))
		case n.Leaf:
			sb.WriteString(": -")
		}
		sb.WriteString("\n")
	})
	return sb.String()
}

// OutlineHeader opens the outline document.
const OutlineHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
  .help { position: fixed; bottom: 1rem; right: 1rem; font-size: 0.85em; color: #666; }
  .help summary { cursor: pointer; list-style: none; }
  .help summary::-webkit-details-marker { display: none; }
  .help-content { background: white; padding: 0.5rem 1rem; border-radius: 4px; }
  .help-content { box-shadow: 0 2px 8px rgba(0,0,0,0.15); margin-top: 0.5rem; }
  .help kbd { background: #eee; padding: 0.1rem 0.4rem; border-radius: 3px; }
  .help kbd { font-family: monospace; }
  body { font-family: -apple-system, system-ui, sans-serif; margin: 2rem; }
  body { background: #fafafa; }
  details { margin-left: 1.5rem; }
  details[open] > summary { margin-bottom: 0; }
  summary { cursor: pointer; padding: 0.3rem 0.5rem; border-radius: 4px; }
  summary { list-style: none; }
  summary:hover { background: #e8e8e8; }
  summary::-webkit-details-marker { display: none; }
  summary::before { content: "▶ "; font-size: 0.7em; color: #666; }
  details[open] > summary::before { content: "▼ "; }
  .leaf { margin-left: 1.5rem; padding: 0.3rem 0.5rem; }
  .leaf::before { content: "• "; font-size: 0.7em; color: #666; }
  .value { color: #666; font-size: 0.85em; margin-left: 0.5rem; }
  .category { color: #7570b3; font-size: 0.85em; margin-left: 0.5rem; }
  .title { font-weight: 500; }
  .root { margin-left: 0; }
  .shared .title { color: #9b59b6; }
  .unvalued .title { color: #a6761d; }
  .cycle { color: #999; font-style: italic; }
  .risk { padding: 0.5rem 1rem; margin-bottom: 1rem; border-left: 6px solid; background: white; }
</style>
</head>
<body>
`

// OutlineFooter closes the outline document.
const OutlineFooter = `
<details class="help">
  <summary>?</summary>
  <div class="help-content">
    <div><kbd>c</kbd> collapse all</div>
    <div><kbd>e</kbd> expand all</div>
  </div>
</details>
<script>
const sel = 'details:not(.help)';
function collapseAll() { document.querySelectorAll(sel).forEach(d => d.open = false); }
function expandAll() { document.querySelectorAll(sel).forEach(d => d.open = true); }
document.addEventListener('keydown', e => {
  if (e.target.tagName === 'INPUT' || e.target.tagName === 'TEXTAREA') return;
  if (e.key === 'c') collapseAll();
  if (e.key === 'e') expandAll();
});
</script>
</body>
</html>
`

// GenerateOutline generates a collapsible HTML outline of the snapshot. A
// non-nil res adds a risk banner and per-leaf categories.
func GenerateOutline(snap tree.Snapshot, res *score.Result, title string) string {
	if title == "" {
		title = DefaultOptions().Title
	}
	if len(snap.Nodes) == 0 {
		return "<html><body><p>No nodes in model.</p></body></html>"
	}

	o := newOutline(snap)
	categories := make(map[string]string)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(OutlineHeader, html.EscapeString(title)))
	if res != nil {
		for _, c := range res.Contributions {
			categories[c.Label] = c.Category
		}
		color := res.Level.HexColor()
		sb.WriteString(fmt.Sprintf(`<div class="risk" style="border-color: %s">Threat rating <strong>%.1f</strong> &middot; <span style="color: %s">%s</span></div>`,
			color, res.Rating, color, res.Level))
	}
	for _, r := range o.roots {
		o.renderNode(&sb, r, true, make(map[string]bool), categories)
	}
	sb.WriteString(OutlineFooter)
	return sb.String()
}

func (o *outline) renderNode(sb *strings.Builder, label string, isRoot bool, onPath map[string]bool, categories map[string]string) {
	n := o.nodes[label]
	titleSpan := fmt.Sprintf(`<span class="title">%s</span>`, html.EscapeString(o.name(label)))
	descAttr := ""
	if n.Name != "" {
		descAttr = fmt.Sprintf(` title="%s"`, html.EscapeString(label))
	}

	if onPath[label] {
		sb.WriteString(fmt.Sprintf(`<div class="leaf cycle"%s>%s (cycle)</div>`, descAttr, titleSpan))
		return
	}

	var classes []string
	if isRoot {
		classes = append(classes, "root")
	}
	if o.parents[label] > 1 {
		classes = append(classes, "shared")
	}

	children := o.children[label]
	if len(children) > 0 {
		classAttr := ""
		if len(classes) > 0 {
			classAttr = fmt.Sprintf(` class="%s"`, strings.Join(classes, " "))
		}
		sb.WriteString(fmt.Sprintf("<details%s open><summary%s>%s</summary>", classAttr, descAttr, titleSpan))
		onPath[label] = true
		for _, c := range children {
			o.renderNode(sb, c, false, onPath, categories)
		}
		delete(onPath, label)
		sb.WriteString("</details>")
		return
	}

	classes = append([]string{"leaf"}, classes...)
	content := titleSpan
	if n.Value != nil {
		content += fmt.Sprintf(`<span class="value">%s</span>`, formatPercent(*n.Value))
	} else {
		classes = append(classes, "unvalued")
	}
	if cat := categories[label]; cat != "" {
		content += fmt.Sprintf(`<span class="category">%s</span>`, html.EscapeString(cat))
	}
	sb.WriteString(fmt.Sprintf(`<div class="%s"%s>%s</div>`, strings.Join(classes, " "), descAttr, content))
}

// formatPercent formats a likelihood as a percentage with at most four
// decimals.
func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e4, 'f', -1, 64) + "%"
}
