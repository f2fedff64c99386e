// Package io provides JSON import and export for knowledge graphs.
//
// # Overview
//
// Graphs are saved to and loaded from local files so that a session can be
// archived, shared, or edited by hand. The format matches what the backend
// returns from GET /api/kg/data, so an export can be pushed back with
// ImportRemote unchanged.
//
// # JSON Format
//
// The format has two required top-level arrays:
//
//	{
//	  "nodes": [
//	    {"id": "libai", "name": "李白", "type": "人物"},
//	    {"id": "tang", "name": "唐朝", "type": "组织"}
//	  ],
//	  "links": [
//	    {"id": "1", "source": "libai", "target": "tang", "type": "属于"}
//	  ]
//	}
//
// Optional node fields are description and domain; optional link fields are
// id, description and domain. Unknown fields are ignored.
//
// # Import
//
// [ReadJSON] reads the whole input before parsing and fails with
// FORMAT_ERROR when either array is missing. [Adapter.Import] replaces the
// store only when parsing succeeds; a failed import leaves it untouched.
// Referential integrity is not checked: links whose endpoints are missing
// are kept and drawn as broken edges.
//
// # Export
//
// [WriteJSON] writes 2-space indented JSON. [Adapter.Export] writes the
// store's current graph to kg_YYYYMMDD_HHMMSS.json in a directory and
// returns the path. Export, import, export yields identical bytes.
package io
