package render

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/kgviz/pkg/graph"
)

// stepSim moves every node it sees by (+1, +1) from its current position.
type stepSim struct {
	mu       sync.Mutex
	restarts int
}

func (s *stepSim) Restart(Scene) {
	s.mu.Lock()
	s.restarts++
	s.mu.Unlock()
}

func (s *stepSim) Step(_ context.Context, scene Scene) (map[string]Point, error) {
	out := make(map[string]Point, len(scene.Nodes))
	for _, n := range scene.Nodes {
		out[n.Entity.ID] = Point{X: n.Pos.X + 1, Y: n.Pos.Y + 1}
	}
	return out, nil
}

func newTestRenderer(t *testing.T, g graph.Graph) (*Renderer, *graph.Store, *stepSim) {
	t.Helper()
	store := graph.NewStore()
	store.Replace(g)
	sim := &stepSim{}
	r := NewRenderer(store, sim, nil)
	t.Cleanup(r.Close)
	return r, store, sim
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"人物", "#e57373"},
		{"Person", "#e57373"},
		{" 地点 ", "#81c784"},
		{"组织", "#64b5f6"},
		{"", FallbackColor},
		{"spaceship", FallbackColor},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.typ); got != tt.want {
			t.Errorf("ColorFor(%q) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestRendererBuildsScene(t *testing.T) {
	r, _, _ := newTestRenderer(t, graph.Graph{
		Nodes: []graph.Entity{{ID: "a", Name: "Alice", Type: "人物"}},
		Links: []graph.Relationship{},
	})

	s := r.Scene()
	if len(s.Nodes) != 1 || len(s.Links) != 0 {
		t.Fatalf("scene = %+v", s)
	}
	if s.Nodes[0].Color != ColorFor("人物") {
		t.Errorf("color = %q, want %q", s.Nodes[0].Color, ColorFor("人物"))
	}
}

func TestRendererRebuildsOnReplace(t *testing.T) {
	r, store, sim := newTestRenderer(t, graph.Graph{
		Nodes: []graph.Entity{{ID: "a", Name: "A"}},
	})
	r.DragStart("a")
	r.Drag("a", 5, 5)

	store.Replace(graph.Graph{
		Nodes: []graph.Entity{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		Links: []graph.Relationship{{Source: "a", Target: "b", Type: "knows"}},
	})

	s := r.Scene()
	if len(s.Nodes) != 2 || len(s.Links) != 1 {
		t.Fatalf("scene after replace = %+v", s)
	}
	if n, _ := s.Node("a"); n.Pinned() || n.Placed {
		t.Error("rebuild should discard pins and positions")
	}
	if sim.restarts != 2 {
		t.Errorf("restarts = %d, want 2", sim.restarts)
	}
}

func TestRendererDuplicateIDsKeepFirst(t *testing.T) {
	r, _, _ := newTestRenderer(t, graph.Graph{
		Nodes: []graph.Entity{{ID: "a", Name: "first"}, {ID: "a", Name: "second"}},
	})
	s := r.Scene()
	if len(s.Nodes) != 1 || s.Nodes[0].Entity.Name != "first" {
		t.Errorf("nodes = %+v", s.Nodes)
	}
}

func TestRendererDanglingLinkIsBroken(t *testing.T) {
	r, _, _ := newTestRenderer(t, graph.Graph{
		Nodes: []graph.Entity{{ID: "a", Name: "A"}},
		Links: []graph.Relationship{{ID: "1", Source: "a", Target: "ghost", Type: "knows"}},
	})

	s := r.Scene()
	if len(s.Links) != 1 || !s.Links[0].Broken {
		t.Fatalf("links = %+v", s.Links)
	}
	if err := r.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
}

func TestDragPinsAndReleaseUnpins(t *testing.T) {
	r, _, _ := newTestRenderer(t, graph.Graph{
		Nodes: []graph.Entity{{ID: "a", Name: "Alice", Type: "人物"}},
	})
	ctx := context.Background()

	if !r.DragStart("a") {
		t.Fatal("DragStart(a) = false")
	}
	if !r.Drag("a", 10, 20) {
		t.Fatal("Drag(a) = false")
	}
	n, _ := r.Scene().Node("a")
	if !n.Pinned() || *n.Pin != (Point{10, 20}) {
		t.Fatalf("after drag pin = %v", n.Pin)
	}

	for range 3 {
		r.Tick(ctx)
	}
	if n, _ := r.Scene().Node("a"); n.Pos != (Point{10, 20}) {
		t.Errorf("pinned node moved to %v", n.Pos)
	}

	if !r.DragEnd("a") {
		t.Fatal("DragEnd(a) = false")
	}
	if n, _ := r.Scene().Node("a"); n.Pinned() {
		t.Error("pin not cleared on release")
	}

	r.Tick(ctx)
	if n, _ := r.Scene().Node("a"); n.Pos != (Point{11, 21}) {
		t.Errorf("released node at %v, want {11 21}", n.Pos)
	}
}

func TestDragStartPinsAtCurrentPosition(t *testing.T) {
	r, _, _ := newTestRenderer(t, graph.Graph{Nodes: []graph.Entity{{ID: "a"}}})
	r.Tick(context.Background())
	r.DragStart("a")
	r.Tick(context.Background())

	n, _ := r.Scene().Node("a")
	if n.Pos != (Point{1, 1}) {
		t.Errorf("pos = %v, want {1 1}", n.Pos)
	}
}

func TestDragUnknownNode(t *testing.T) {
	r, _, _ := newTestRenderer(t, graph.Empty())
	if r.DragStart("x") || r.Drag("x", 1, 1) || r.DragEnd("x") {
		t.Error("drag on unknown node should report false")
	}
}

func TestSceneIsACopy(t *testing.T) {
	r, _, _ := newTestRenderer(t, graph.Graph{Nodes: []graph.Entity{{ID: "a"}}})
	r.Drag("a", 1, 2)
	s := r.Scene()
	s.Nodes[0].Pin.X = 99
	if n, _ := r.Scene().Node("a"); n.Pin.X != 1 {
		t.Error("mutating a snapshot changed the renderer")
	}
}

func TestToDOT(t *testing.T) {
	pin := Point{10, 20}
	s := Scene{
		Nodes: []NodeElement{
			{Entity: graph.Entity{ID: "a", Name: "Alice", Type: "人物"}, Color: "#e57373", Pin: &pin, Placed: true, Pos: pin},
			{Entity: graph.Entity{ID: "b", Name: "Bob"}, Color: FallbackColor, Placed: true, Pos: Point{30, 40}},
			{Entity: graph.Entity{ID: "c", Name: "Carol"}, Color: FallbackColor},
		},
		Links: []LinkElement{
			{Relationship: graph.Relationship{Source: "a", Target: "b", Type: "knows"}},
			{Relationship: graph.Relationship{Source: "a", Target: "ghost", Type: "haunts"}, Broken: true},
		},
	}

	t.Run("render", func(t *testing.T) {
		dot := ToDOT(s, DOTOptions{})
		for _, want := range []string{
			`"a" [label="Alice", fillcolor="#e57373", pos="10.00,20.00!"`,
			`"b" [label="Bob", fillcolor="#9e9e9e", pos="30.00,40.00!"]`,
			`"c" [label="Carol", fillcolor="#9e9e9e"]`,
			`"a" -> "b" [label="knows"]`,
			`"missing:ghost" [shape=point`,
			`"a" -> "missing:ghost" [label="haunts", style=dashed`,
		} {
			if !strings.Contains(dot, want) {
				t.Errorf("DOT missing %s\n%s", want, dot)
			}
		}
	})

	t.Run("layout", func(t *testing.T) {
		dot := ToDOT(s, DOTOptions{Layout: true})
		if strings.Contains(dot, "ghost") {
			t.Error("layout DOT should exclude broken links")
		}
		if !strings.Contains(dot, `pos="10.00,20.00!"`) {
			t.Error("pinned node should stay fixed in layout DOT")
		}
		if !strings.Contains(dot, `pos="30.00,40.00"]`) {
			t.Error("placed node should get an unfixed hint in layout DOT")
		}
	})

	t.Run("detailed", func(t *testing.T) {
		dot := ToDOT(s, DOTOptions{Detailed: true})
		if !strings.Contains(dot, `label="Alice\nid: a\ntype: 人物"`) {
			t.Errorf("detailed label missing\n%s", dot)
		}
	})
}

func TestParsePlain(t *testing.T) {
	out := `graph 1 2.5 1.5
node a 0.5 1 0.75 0.5 Alice filled ellipse black #e57373
node "two words" 2 0.25 0.75 0.5 "Two \"W\"" filled ellipse black #9e9e9e
edge a "two words" 4 0.5 1 1 1 1.5 0.5 2 0.25 knows 1.2 0.7 solid black
stop
`
	pos, err := parsePlain([]byte(out))
	if err != nil {
		t.Fatal(err)
	}
	if pos["a"] != (Point{36, 72}) {
		t.Errorf("a = %v", pos["a"])
	}
	if pos["two words"] != (Point{144, 18}) {
		t.Errorf("two words = %v", pos["two words"])
	}
	if len(pos) != 2 {
		t.Errorf("len = %d", len(pos))
	}
}

func TestSplitPlain(t *testing.T) {
	got := splitPlain(`node "a \"b\"" 1 2`)
	want := []string{"node", `a "b"`, "1", "2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitPlain = %q, want %q", got, want)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
}

func TestParseEngine(t *testing.T) {
	if e, err := ParseEngine("FDP"); err != nil || e != FDP {
		t.Errorf("ParseEngine(FDP) = %v, %v", e, err)
	}
	if _, err := ParseEngine("dot"); err == nil {
		t.Error("ParseEngine(dot) should fail")
	}
}

func TestGraphvizSimulationEmptyScene(t *testing.T) {
	pos, err := NewGraphvizSimulation("").Step(context.Background(), Scene{})
	if err != nil || len(pos) != 0 {
		t.Errorf("Step(empty) = %v, %v", pos, err)
	}
}
