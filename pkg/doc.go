// Package pkg holds the libraries behind kgviz, a client for a
// knowledge-graph backend.
//
// # Layout
//
//   - [graph]: entities, relationships and the Store that holds the
//     current graph and notifies subscribers on every replacement
//   - [integrations] and [integrations/kg]: the REST client for the
//     backend's {ret, msg, data} envelope
//   - [io]: local JSON import and export
//   - [render]: scene building, pinning, Graphviz layout and drawing
//   - [command]: user actions as backend calls followed by a reload
//   - [cache], [config], [errors], [observability], [buildinfo]: shared
//     infrastructure
//
// # Data flow
//
//	backend ──FetchGraph──▶ Store ──subscribe──▶ Renderer ──Draw──▶ SVG/PNG
//	   ▲                      │
//	   └──── command ◀── CLI / viewer / browser
package pkg
