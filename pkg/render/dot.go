package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// DOTOptions configures [ToDOT].
type DOTOptions struct {
	// Layout emits the graph used for position computation: broken links
	// are left out, pinned nodes are fixed with pos="x,y!" and other placed
	// nodes only get a starting hint. When false every placed node is
	// fixed, so the drawing matches the scene.
	Layout bool

	// Detailed adds the entity id and type to node labels.
	Detailed bool
}

const (
	brokenColor = "#d32f2f"
	missingPref = "missing:"
)

// ToDOT converts a scene to Graphviz DOT.
//
// Positions are written in points (inputscale=72). Broken links are drawn
// as dashed red edges to a small placeholder for the missing endpoint.
func ToDOT(s Scene, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fontsize=14, fontcolor=\"#212121\", color=\"#616161\"];\n")
	buf.WriteString("  edge [fontsize=10, color=\"#757575\", fontcolor=\"#616161\"];\n")
	buf.WriteString("\n")

	present := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		present[n.Entity.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Entity.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	missing := map[string]bool{}
	var edges bytes.Buffer
	for _, l := range s.Links {
		r := l.Relationship
		if !l.Broken {
			fmt.Fprintf(&edges, "  %q -> %q [label=%q];\n", r.Source, r.Target, r.Type)
			continue
		}
		if opts.Layout {
			continue
		}
		src, dst := r.Source, r.Target
		if !present[src] {
			src = missingPref + src
			missing[src] = true
		}
		if !present[dst] {
			dst = missingPref + dst
			missing[dst] = true
		}
		fmt.Fprintf(&edges, "  %q -> %q [label=%q, style=dashed, color=%q, fontcolor=%q];\n",
			src, dst, r.Type, brokenColor, brokenColor)
	}

	if len(missing) > 0 {
		buf.WriteString("\n")
		for _, l := range s.Links {
			for _, id := range []string{missingPref + l.Relationship.Source, missingPref + l.Relationship.Target} {
				if missing[id] {
					fmt.Fprintf(&buf, "  %q [shape=point, width=0.12, color=%q, tooltip=%q];\n",
						id, brokenColor, strings.TrimPrefix(id, missingPref)+" (missing)")
					delete(missing, id)
				}
			}
		}
	}

	buf.WriteString("\n")
	buf.Write(edges.Bytes())
	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n NodeElement, opts DOTOptions) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
		fmt.Sprintf("fillcolor=%q", n.Color),
	}
	if d := n.Entity.Description; d != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", d))
	}
	switch {
	case n.Pin != nil:
		attrs = append(attrs, fmtPos(*n.Pin, true), "penwidth=2")
	case n.Placed:
		attrs = append(attrs, fmtPos(n.Pos, !opts.Layout))
	}
	return attrs
}

func fmtLabel(n NodeElement, detailed bool) string {
	label := n.Entity.Label()
	if !detailed {
		return label
	}
	parts := []string{label, "id: " + n.Entity.ID}
	if n.Entity.Type != "" {
		parts = append(parts, "type: "+n.Entity.Type)
	}
	return strings.Join(parts, "\n")
}

func fmtPos(p Point, fixed bool) string {
	pos := strconv.FormatFloat(p.X, 'f', 2, 64) + "," + strconv.FormatFloat(p.Y, 'f', 2, 64)
	if fixed {
		pos += "!"
	}
	return fmt.Sprintf("pos=%q", pos)
}
