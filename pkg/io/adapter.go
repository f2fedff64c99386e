package io

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/graph"
)

// exportLayout is the timestamp part of export file names.
const exportLayout = "20060102_150405"

// Adapter moves graphs between local files and a store.
type Adapter struct {
	store  *graph.Store
	logger *log.Logger
}

// NewAdapter creates an Adapter for store. A nil logger means log.Default().
func NewAdapter(store *graph.Store, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{store: store, logger: logger}
}

// Import parses r and, on success, replaces the store's graph with the
// result. On failure the store is left untouched.
func (a *Adapter) Import(r io.Reader) (graph.Graph, error) {
	g, err := ReadJSON(r)
	if err != nil {
		return graph.Graph{}, err
	}
	if d := g.Dangling(); len(d) > 0 {
		a.logger.Warn("imported graph has dangling relationships", "count", len(d))
	}
	a.store.Replace(g)
	a.logger.Debug("graph imported", "nodes", len(g.Nodes), "links", len(g.Links))
	return g, nil
}

// ImportFile opens path and calls [Adapter.Import].
func (a *Adapter) ImportFile(path string) (graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return a.Import(f)
}

// Export writes the store's current graph to dir/kg_<now>.json and returns
// the file path. dir is created if needed.
func (a *Adapter) Export(dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	path := filepath.Join(dir, ExportFilename(now))
	if err := ExportJSON(a.store.Current(), path); err != nil {
		return "", err
	}
	a.logger.Debug("graph exported", "path", path)
	return path, nil
}

// ExportFilename returns the file name used by [Adapter.Export].
func ExportFilename(now time.Time) string {
	return "kg_" + now.Format(exportLayout) + ".json"
}
