package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/graph"
)

// ReadJSON decodes a graph from r.
//
// The whole input is read before parsing. ReadJSON returns a FORMAT_ERROR
// if the input is not a JSON object, if "nodes" or "links" is absent or
// null, or if either is not an array of the expected shape.
//
// The returned graph has non-nil slices. ReadJSON does not close r.
func ReadJSON(r io.Reader) (graph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("read: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeFormat, err, "not a JSON object")
	}
	for _, key := range []string{"nodes", "links"} {
		raw, ok := top[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return graph.Graph{}, errors.New(errors.ErrCodeFormat, "missing %q array", key)
		}
	}

	var g graph.Graph
	if err := json.Unmarshal(top["nodes"], &g.Nodes); err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeFormat, err, "decode nodes")
	}
	if err := json.Unmarshal(top["links"], &g.Links); err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeFormat, err, "decode links")
	}
	return g.Clone(), nil
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
// It returns the same FORMAT_ERROR cases as [ReadJSON].
func ImportJSON(path string) (graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
