package graph

import (
	"fmt"
	"slices"
)

// Empty returns a graph with non-nil, zero-length sequences so that it
// serializes as {"nodes": [], "links": []}.
func Empty() Graph {
	return Graph{Nodes: []Entity{}, Links: []Relationship{}}
}

// Clone returns a deep copy of g. Nil sequences become empty ones.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Entity, len(g.Nodes)),
		Links: make([]Relationship, len(g.Links)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Links, g.Links)
	return out
}

// Equal reports whether a and b hold the same nodes and links in the same
// order.
func Equal(a, b Graph) bool {
	return slices.Equal(a.Nodes, b.Nodes) && slices.Equal(a.Links, b.Links)
}

// Index maps entity ids to their position in Nodes.
// When ids repeat, the first occurrence wins.
func (g Graph) Index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, ok := idx[n.ID]; !ok {
			idx[n.ID] = i
		}
	}
	return idx
}

// Node returns the entity with the given id.
func (g Graph) Node(id string) (Entity, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Entity{}, false
}

// Dangling returns the relationships whose source or target is not a node
// of g, in link order.
func (g Graph) Dangling() []Relationship {
	idx := g.Index()
	var out []Relationship
	for _, l := range g.Links {
		_, src := idx[l.Source]
		_, dst := idx[l.Target]
		if !src || !dst {
			out = append(out, l)
		}
	}
	return out
}

// Validate reports structural problems: empty or duplicate entity ids and
// dangling relationships. The store accepts graphs that fail validation;
// callers use the result for warnings.
func (g Graph) Validate() []error {
	var errs []error
	seen := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("node %d: empty id", i))
			continue
		}
		if seen[n.ID] {
			errs = append(errs, fmt.Errorf("node %s: duplicate id", n.ID))
		}
		seen[n.ID] = true
	}
	for _, l := range g.Dangling() {
		errs = append(errs, fmt.Errorf("link %s->%s: missing endpoint", l.Source, l.Target))
	}
	return errs
}

// Stats summarizes a graph for display.
type Stats struct {
	Nodes    int            `json:"nodes"`
	Links    int            `json:"links"`
	Dangling int            `json:"dangling"`
	ByType   map[string]int `json:"by_type"`
}

// Stats counts nodes, links, dangling links and nodes per type.
func (g Graph) Stats() Stats {
	s := Stats{
		Nodes:    len(g.Nodes),
		Links:    len(g.Links),
		Dangling: len(g.Dangling()),
		ByType:   make(map[string]int),
	}
	for _, n := range g.Nodes {
		s.ByType[n.Type]++
	}
	return s
}
