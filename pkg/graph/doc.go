// Package graph holds the client-side knowledge graph and the store that
// owns it.
//
// # Types
//
//   - [Entity]: a named thing with a category ("type") used for coloring
//   - [Relationship]: a directed, typed edge between two entities
//   - [Graph]: the ordered node and link sequences, as served by the backend
//
// The JSON shape matches the backend's /api/kg/data payload:
//
//	{
//	  "nodes": [{"id": "a", "name": "Alice", "type": "人物"}],
//	  "links": [{"id": "1", "source": "a", "target": "b", "type": "knows"}]
//	}
//
// # Store
//
// [Store] is the single source of truth for rendering. It has exactly two
// operations: [Store.Replace] swaps the whole graph and [Store.Current]
// returns a snapshot. The client never patches a graph in place; every edit
// goes through the backend and is followed by a reload.
//
// A graph may contain relationships whose endpoints are missing. These are
// tolerated and reported by [Graph.Dangling]; the backend is the validation
// authority.
package graph
