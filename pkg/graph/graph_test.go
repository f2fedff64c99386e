package graph

import (
	"encoding/json"
	"testing"
)

func sampleGraph() Graph {
	return Graph{
		Nodes: []Entity{
			{ID: "a", Name: "Alice", Type: "人物"},
			{ID: "b", Name: "Bob", Type: "人物"},
			{ID: "acme", Name: "Acme", Type: "组织"},
		},
		Links: []Relationship{
			{ID: "1", Source: "a", Target: "b", Type: "knows"},
			{ID: "2", Source: "a", Target: "acme", Type: "works_at"},
		},
	}
}

func TestDangling(t *testing.T) {
	g := sampleGraph()
	if d := g.Dangling(); len(d) != 0 {
		t.Fatalf("Dangling() = %v, want none", d)
	}

	g.Links = append(g.Links, Relationship{Source: "a", Target: "ghost", Type: "haunts"})
	d := g.Dangling()
	if len(d) != 1 || d[0].Target != "ghost" {
		t.Errorf("Dangling() = %v, want the link to ghost", d)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		g    Graph
		want int
	}{
		{"clean", sampleGraph(), 0},
		{"duplicate id", Graph{Nodes: []Entity{{ID: "a"}, {ID: "a"}}}, 1},
		{"empty id", Graph{Nodes: []Entity{{ID: ""}}}, 1},
		{"dangling", Graph{Nodes: []Entity{{ID: "a"}}, Links: []Relationship{{Source: "a", Target: "x"}}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.Validate(); len(got) != tt.want {
				t.Errorf("Validate() = %v, want %d errors", got, tt.want)
			}
		})
	}
}

func TestIndexFirstOccurrenceWins(t *testing.T) {
	g := Graph{Nodes: []Entity{{ID: "a", Name: "first"}, {ID: "a", Name: "second"}}}
	if i := g.Index()["a"]; i != 0 {
		t.Errorf("Index()[a] = %d, want 0", i)
	}
}

func TestStats(t *testing.T) {
	g := sampleGraph()
	g.Links = append(g.Links, Relationship{Source: "x", Target: "y"})
	s := g.Stats()
	if s.Nodes != 3 || s.Links != 3 || s.Dangling != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.ByType["人物"] != 2 || s.ByType["组织"] != 1 {
		t.Errorf("ByType = %v", s.ByType)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := sampleGraph()
	c := g.Clone()
	c.Nodes[0].Name = "changed"
	if g.Nodes[0].Name != "Alice" {
		t.Error("Clone() shares node storage with the original")
	}
	if !Equal(Graph{}.Clone(), Empty()) {
		t.Error("Clone() of zero graph should equal Empty()")
	}
}

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`{"id": 42}`, "42"},
		{`{"id": "r1"}`, "r1"},
		{`{"id": null}`, ""},
		{`{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var r Relationship
			if err := json.Unmarshal([]byte(tt.in), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if r.ID != tt.want {
				t.Errorf("ID = %q, want %q", r.ID, tt.want)
			}
		})
	}

	var r Relationship
	if err := json.Unmarshal([]byte(`{"id": true}`), &r); err == nil {
		t.Error("Unmarshal() accepted a boolean id")
	}
}

func TestEntityLabel(t *testing.T) {
	if got := (Entity{ID: "a", Name: "Alice"}).Label(); got != "Alice" {
		t.Errorf("Label() = %q, want Alice", got)
	}
	if got := (Entity{ID: "a"}).Label(); got != "a" {
		t.Errorf("Label() = %q, want a", got)
	}
}
