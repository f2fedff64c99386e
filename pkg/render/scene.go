package render

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/observability"
)

// Point is a position in scene coordinates (points, y grows upward).
type Point struct {
	X, Y float64
}

// NodeElement is the visual element of one entity.
type NodeElement struct {
	Entity graph.Entity
	Color  string
	Pos    Point
	// Placed is false until the first layout assigns a position.
	Placed bool
	// Pin holds the node in place while it is dragged.
	Pin *Point
}

// Pinned reports whether the node is held at a fixed position.
func (n NodeElement) Pinned() bool { return n.Pin != nil }

// LinkElement is the visual element of one relationship.
type LinkElement struct {
	Relationship graph.Relationship
	// Broken marks a relationship whose source or target is not in the
	// scene. Broken links are drawn but take no part in layout.
	Broken bool
}

// Scene is a snapshot of all visual elements.
type Scene struct {
	Nodes []NodeElement
	Links []LinkElement
}

// Node returns the element for entity id.
func (s Scene) Node(id string) (NodeElement, bool) {
	for _, n := range s.Nodes {
		if n.Entity.ID == id {
			return n, true
		}
	}
	return NodeElement{}, false
}

func (s Scene) clone() Scene {
	out := Scene{
		Nodes: make([]NodeElement, len(s.Nodes)),
		Links: make([]LinkElement, len(s.Links)),
	}
	copy(out.Nodes, s.Nodes)
	copy(out.Links, s.Links)
	for i, n := range out.Nodes {
		if n.Pin != nil {
			p := *n.Pin
			out.Nodes[i].Pin = &p
		}
	}
	return out
}

// Simulation computes node positions for a scene.
//
// Step returns the next position of every node it placed. Pinned nodes
// must stay at their pin; the renderer enforces this regardless.
type Simulation interface {
	Restart(s Scene)
	Step(ctx context.Context, s Scene) (map[string]Point, error)
}

// Renderer keeps a scene in sync with a graph store.
//
// Every store replacement rebuilds the scene from scratch (one element per
// entity and per relationship) and restarts the simulation. Positions and
// pins do not survive a rebuild.
type Renderer struct {
	mu     sync.Mutex
	sim    Simulation
	logger *log.Logger
	scene  Scene
	index  map[string]int
	stop   func()
}

// NewRenderer creates a Renderer that follows store. A nil logger means
// log.Default(). Call Close to stop following the store.
func NewRenderer(store *graph.Store, sim Simulation, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	r := &Renderer{sim: sim, logger: logger}
	r.rebuild(store.Current())
	r.stop = store.Subscribe(r.rebuild)
	return r
}

// Close unsubscribes from the store.
func (r *Renderer) Close() {
	if r.stop != nil {
		r.stop()
	}
}

// Scene returns a copy of the current scene.
func (r *Renderer) Scene() Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scene.clone()
}

func (r *Renderer) rebuild(g graph.Graph) {
	scene := Scene{
		Nodes: make([]NodeElement, 0, len(g.Nodes)),
		Links: make([]LinkElement, 0, len(g.Links)),
	}
	index := make(map[string]int, len(g.Nodes))
	for _, e := range g.Nodes {
		if _, dup := index[e.ID]; dup {
			r.logger.Warn("duplicate entity id, keeping first", "id", e.ID)
			continue
		}
		index[e.ID] = len(scene.Nodes)
		scene.Nodes = append(scene.Nodes, NodeElement{Entity: e, Color: ColorFor(e.Type)})
	}
	for _, l := range g.Links {
		_, src := index[l.Source]
		_, dst := index[l.Target]
		broken := !src || !dst
		if broken {
			r.logger.Warn("relationship references missing entity",
				"id", l.ID, "source", l.Source, "target", l.Target)
		}
		scene.Links = append(scene.Links, LinkElement{Relationship: l, Broken: broken})
	}

	r.mu.Lock()
	r.scene = scene
	r.index = index
	snapshot := scene.clone()
	r.mu.Unlock()

	r.sim.Restart(snapshot)
	r.logger.Debug("scene rebuilt", "nodes", len(scene.Nodes), "links", len(scene.Links))
}

// Tick advances the simulation one step. Pinned nodes keep their pinned
// position; nodes the simulation did not place keep their last position.
func (r *Renderer) Tick(ctx context.Context) error {
	r.mu.Lock()
	snapshot := r.scene.clone()
	r.mu.Unlock()

	start := time.Now()
	next, err := r.sim.Step(ctx, snapshot)
	observability.Render().OnLayout(ctx, simName(r.sim), len(snapshot.Nodes), time.Since(start), err)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.scene.Nodes {
		n := &r.scene.Nodes[i]
		if n.Pin != nil {
			n.Pos, n.Placed = *n.Pin, true
			continue
		}
		if p, ok := next[n.Entity.ID]; ok {
			n.Pos, n.Placed = p, true
		}
	}
	return nil
}

// DragStart pins node id at its current position.
// It reports false if the node is not in the scene.
func (r *Renderer) DragStart(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.node(id)
	if n == nil {
		return false
	}
	p := n.Pos
	n.Pin = &p
	return true
}

// Drag moves the pin of node id to (x, y). A node that was not pinned by
// DragStart becomes pinned.
func (r *Renderer) Drag(id string, x, y float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.node(id)
	if n == nil {
		return false
	}
	p := Point{X: x, Y: y}
	n.Pin = &p
	n.Pos, n.Placed = p, true
	return true
}

// DragEnd clears the pin of node id; later ticks may move it again.
func (r *Renderer) DragEnd(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.node(id)
	if n == nil {
		return false
	}
	n.Pin = nil
	return true
}

func (r *Renderer) node(id string) *NodeElement {
	i, ok := r.index[id]
	if !ok {
		return nil
	}
	return &r.scene.Nodes[i]
}

func simName(s Simulation) string {
	if gs, ok := s.(*GraphvizSimulation); ok {
		return string(gs.Engine)
	}
	return "custom"
}
