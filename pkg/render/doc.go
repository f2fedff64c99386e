// Package render draws the knowledge graph as a force-directed diagram.
//
// # Overview
//
// A [Renderer] follows a [graph.Store]. On every replacement it throws away
// the previous scene, builds one [NodeElement] per entity and one
// [LinkElement] per relationship, and restarts its [Simulation]. Each
// [Renderer.Tick] asks the simulation for new positions.
//
// # Dragging
//
// [Renderer.DragStart] pins a node where it is, [Renderer.Drag] moves the
// pin, and [Renderer.DragEnd] releases it. Ticks never move a pinned node;
// after release the next tick may.
//
// # Colors
//
// [ColorFor] maps an entity type to a fill color, with [FallbackColor] for
// anything not in the palette.
//
// # Broken Links
//
// A relationship whose source or target is missing is marked Broken. It is
// excluded from layout and drawn as a dashed red edge to a placeholder
// point; the renderer logs a warning and carries on.
//
// # Graphviz
//
// [ToDOT] emits DOT with positions (pinned nodes get pos="x,y!").
// [GraphvizSimulation] lays scenes out with neato or fdp through
// [github.com/goccy/go-graphviz], and [Drawer] renders SVG or PNG, caching
// results in a [cache.Cache] keyed by the DOT source.
package render
