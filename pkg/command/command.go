// Package command turns user actions into backend calls and store updates.
//
// Each mutating command performs one backend call and, when it succeeds,
// reloads the whole graph into the store. Nothing is patched locally, so
// the store always mirrors what the backend returned last. Failures leave
// the store untouched. Every outcome, success or failure, is reported to a
// [Notifier].
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/integrations/kg"
	kgio "github.com/matzehuels/kgviz/pkg/io"
)

// Backend is the subset of [kg.Client] used by commands.
type Backend interface {
	FetchGraph(ctx context.Context, opts kg.FetchOptions) (graph.Graph, error)
	CreateEntity(ctx context.Context, e kg.NewEntity) error
	UpdateEntity(ctx context.Context, id string, payload map[string]any) bool
	DeleteEntity(ctx context.Context, id string) bool
	CreateRelationship(ctx context.Context, r kg.NewRelationship) (kg.Created, error)
	UpdateRelationship(ctx context.Context, relID string, payload map[string]any) bool
	DeleteRelationship(ctx context.Context, relID string) bool
	ImportRemote(ctx context.Context, g graph.Graph, opts kg.ImportOptions) (kg.ImportReport, error)
	SaveData(ctx context.Context, g graph.Graph, domain string) (kg.SaveResult, error)
	ClearAll(ctx context.Context) (graph.Graph, error)
}

var _ Backend = (*kg.Client)(nil)

// Options configures [New].
type Options struct {
	// Domain restricts reloads to one knowledge domain. Empty means all.
	Domain   string
	Notifier Notifier
	Logger   *log.Logger
}

// Commands binds a backend to a store.
type Commands struct {
	backend  Backend
	store    *graph.Store
	adapter  *kgio.Adapter
	notifier Notifier
	logger   *log.Logger
	domain   string
}

// New creates Commands. A nil notifier logs notifications.
func New(backend Backend, store *graph.Store, opts Options) *Commands {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &Commands{
		backend:  backend,
		store:    store,
		adapter:  kgio.NewAdapter(store, logger),
		notifier: notifier,
		logger:   logger,
		domain:   opts.Domain,
	}
}

// Store returns the store commands write to.
func (c *Commands) Store() *graph.Store { return c.store }

// Reload fetches the graph and replaces the store with it.
func (c *Commands) Reload(ctx context.Context) error {
	g, err := c.backend.FetchGraph(ctx, kg.FetchOptions{Domain: c.domain})
	if err != nil {
		c.fail("Failed to load graph", err)
		return err
	}
	c.store.Replace(g)
	if d := g.Dangling(); len(d) > 0 {
		c.notify(LevelWarning, fmt.Sprintf("%d relationships reference missing entities", len(d)))
	}
	c.logger.Debug("graph loaded", "nodes", len(g.Nodes), "links", len(g.Links))
	return nil
}

// AddEntity creates an entity, then reloads.
func (c *Commands) AddEntity(ctx context.Context, e kg.NewEntity) error {
	if err := c.backend.CreateEntity(ctx, e); err != nil {
		c.fail("Failed to add entity", err)
		return err
	}
	c.notify(LevelSuccess, fmt.Sprintf("Added entity %s", e.ID))
	c.reloadAfter(ctx)
	return nil
}

// EditEntity updates entity id with payload, then reloads.
func (c *Commands) EditEntity(ctx context.Context, id string, payload map[string]any) bool {
	if !c.backend.UpdateEntity(ctx, id, payload) {
		c.notify(LevelError, fmt.Sprintf("Failed to update entity %s", id))
		return false
	}
	c.notify(LevelSuccess, fmt.Sprintf("Updated entity %s", id))
	c.reloadAfter(ctx)
	return true
}

// RemoveEntity deletes entity id, then reloads.
func (c *Commands) RemoveEntity(ctx context.Context, id string) bool {
	if !c.backend.DeleteEntity(ctx, id) {
		c.notify(LevelError, fmt.Sprintf("Failed to delete entity %s", id))
		return false
	}
	c.notify(LevelSuccess, fmt.Sprintf("Deleted entity %s", id))
	c.reloadAfter(ctx)
	return true
}

// AddRelationship creates a relationship, then reloads.
func (c *Commands) AddRelationship(ctx context.Context, r kg.NewRelationship) (kg.Created, error) {
	created, err := c.backend.CreateRelationship(ctx, r)
	if err != nil {
		c.fail("Failed to add relationship", err)
		return created, err
	}
	c.notify(LevelSuccess, fmt.Sprintf("Added relationship %s (%s -[%s]-> %s)", created.ID, r.Source, r.Type, r.Target))
	c.reloadAfter(ctx)
	return created, nil
}

// EditRelationship updates relationship relID with payload, then reloads.
func (c *Commands) EditRelationship(ctx context.Context, relID string, payload map[string]any) bool {
	if !c.backend.UpdateRelationship(ctx, relID, payload) {
		c.notify(LevelError, fmt.Sprintf("Failed to update relationship %s", relID))
		return false
	}
	c.notify(LevelSuccess, fmt.Sprintf("Updated relationship %s", relID))
	c.reloadAfter(ctx)
	return true
}

// RemoveRelationship deletes relationship relID, then reloads.
func (c *Commands) RemoveRelationship(ctx context.Context, relID string) bool {
	if !c.backend.DeleteRelationship(ctx, relID) {
		c.notify(LevelError, fmt.Sprintf("Failed to delete relationship %s", relID))
		return false
	}
	c.notify(LevelSuccess, fmt.Sprintf("Deleted relationship %s", relID))
	c.reloadAfter(ctx)
	return true
}

// ImportFile loads a local JSON file into the store. The backend is not
// contacted; use PushToRemote to upload the result.
func (c *Commands) ImportFile(path string) (graph.Graph, error) {
	g, err := c.adapter.ImportFile(path)
	if err != nil {
		c.fail("Import failed", err)
		return graph.Graph{}, err
	}
	c.notify(LevelSuccess, fmt.Sprintf("Imported %d entities and %d relationships", len(g.Nodes), len(g.Links)))
	return g, nil
}

// ExportFile writes the store to dir and returns the file path.
func (c *Commands) ExportFile(dir string, now time.Time) (string, error) {
	path, err := c.adapter.Export(dir, now)
	if err != nil {
		c.fail("Export failed", err)
		return "", err
	}
	c.notify(LevelSuccess, "Exported to "+path)
	return path, nil
}

// PushToRemote uploads the store's graph through the backend's bulk import,
// then reloads.
func (c *Commands) PushToRemote(ctx context.Context, opts kg.ImportOptions) (kg.ImportReport, error) {
	report, err := c.backend.ImportRemote(ctx, c.store.Current(), opts)
	if err != nil {
		c.fail("Upload failed", err)
		return kg.ImportReport{}, err
	}
	st := report.Stats
	c.notify(LevelSuccess, fmt.Sprintf("Uploaded: %d entities created, %d updated, %d skipped; %d relationships created",
		st.Entities.Created, st.Entities.Updated, st.Entities.Skipped, st.Relationships.Created))
	if n := len(st.Conflicts); n > 0 {
		c.notify(LevelWarning, fmt.Sprintf("%d records had conflicts", n))
	}
	c.reloadAfter(ctx)
	return report, nil
}

// SaveToRemote overwrites the backend with the store's graph, limited to the
// configured domain when one is set, then reloads.
func (c *Commands) SaveToRemote(ctx context.Context) (kg.SaveResult, error) {
	g := c.store.Current()
	res, err := c.backend.SaveData(ctx, g, c.domain)
	if err != nil {
		c.fail("Save failed", err)
		return kg.SaveResult{}, err
	}
	c.notify(LevelSuccess, fmt.Sprintf("Saved %d entities and %d relationships", res.SavedEntities, res.SavedRelationships))
	if dropped := len(g.Links) - res.SavedRelationships; dropped > 0 {
		c.notify(LevelWarning, fmt.Sprintf("%d relationships were not saved", dropped))
	}
	c.reloadAfter(ctx)
	return res, nil
}

// ClearRemote deletes everything on the backend, then reloads. It returns
// the backup the backend took before clearing.
func (c *Commands) ClearRemote(ctx context.Context) (graph.Graph, error) {
	backup, err := c.backend.ClearAll(ctx)
	if err != nil {
		c.fail("Failed to clear data", err)
		return graph.Graph{}, err
	}
	c.notify(LevelSuccess, fmt.Sprintf("Cleared %d entities and %d relationships", len(backup.Nodes), len(backup.Links)))
	c.reloadAfter(ctx)
	return backup, nil
}

// reloadAfter refreshes the store following a successful mutation. A
// failed reload is reported but does not undo the mutation's success.
func (c *Commands) reloadAfter(ctx context.Context) {
	_ = c.Reload(ctx)
}

func (c *Commands) notify(level Level, msg string) {
	c.notifier.Notify(Notification{Level: level, Message: msg})
}

func (c *Commands) fail(msg string, err error) {
	c.notifier.Notify(Notification{
		Level:   LevelError,
		Message: msg + ": " + errors.UserMessage(err),
		Err:     err,
	})
}
