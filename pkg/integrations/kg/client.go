// Package kg provides a client for the knowledge-graph backend API.
//
// # Overview
//
// [Client] performs CRUD on entities and relationships, fetches the whole
// graph, and drives the backend's bulk endpoints (import, export, save-data
// and clear-all). [Client.Chat] asks the backend's assistant about the
// graph. All paths live under /api/kg.
//
// Every method is a single request. Mutations that return bool report
// failure as false and log the cause; methods that return an error return
// a coded [errors.Error] (TRANSPORT_ERROR, APPLICATION_ERROR or
// VALIDATION_ERROR).
//
// # Usage
//
//	client := kg.NewClient("http://localhost:8000", integrations.Options{})
//	g, err := client.FetchGraph(ctx, kg.FetchOptions{Domain: "history"})
package kg

import (
	"context"
	"net/http"
	"net/url"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/integrations"
)

const apiPrefix = "/api/kg"

// Client talks to the knowledge-graph backend.
type Client struct {
	*integrations.Client
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, opts integrations.Options) *Client {
	return &Client{Client: integrations.NewClient(baseURL, opts)}
}

// FetchOptions narrows FetchGraph and ExportRemote.
type FetchOptions struct {
	// Domain selects one knowledge domain. Empty means all.
	Domain string
}

func (o FetchOptions) query() url.Values {
	if o.Domain == "" {
		return nil
	}
	return url.Values{"domain": {o.Domain}}
}

// FetchGraph loads the whole graph.
func (c *Client) FetchGraph(ctx context.Context, opts FetchOptions) (graph.Graph, error) {
	var g graph.Graph
	if err := c.Get(ctx, apiPrefix+"/data", opts.query(), &g); err != nil {
		return graph.Graph{}, err
	}
	return g.Clone(), nil
}

// ExportRemote fetches the backend's export view of the graph, which carries
// relationship ids and entity domains.
func (c *Client) ExportRemote(ctx context.Context, domain string) (graph.Graph, error) {
	var g graph.Graph
	if err := c.Get(ctx, apiPrefix+"/export", FetchOptions{Domain: domain}.query(), &g); err != nil {
		return graph.Graph{}, err
	}
	return g.Clone(), nil
}

// ListEntities searches entities by id, name or description. An empty
// query lists all entities.
func (c *Client) ListEntities(ctx context.Context, query string) ([]graph.Entity, error) {
	var q url.Values
	if query != "" {
		q = url.Values{"q": {query}}
	}
	var entities []graph.Entity
	if err := c.Get(ctx, apiPrefix+"/entities", q, &entities); err != nil {
		return nil, err
	}
	if entities == nil {
		entities = []graph.Entity{}
	}
	return entities, nil
}

// GetEntity fetches one entity by id.
func (c *Client) GetEntity(ctx context.Context, id string) (graph.Entity, error) {
	if err := errors.ValidateID(id); err != nil {
		return graph.Entity{}, err
	}
	var e graph.Entity
	if err := c.Get(ctx, entityPath(id), nil, &e); err != nil {
		return graph.Entity{}, err
	}
	return e, nil
}

// CreateEntity creates an entity. id and name must be non-blank; otherwise
// a VALIDATION_ERROR is returned and no request is made.
func (c *Client) CreateEntity(ctx context.Context, e NewEntity) error {
	if err := errors.ValidateStruct(e); err != nil {
		return err
	}
	return c.Post(ctx, apiPrefix+"/entities", e, nil)
}

// UpdateEntity sends payload verbatim as the new field values of entity id.
func (c *Client) UpdateEntity(ctx context.Context, id string, payload map[string]any) bool {
	if err := errors.ValidateID(id); err != nil {
		c.Logger().Warn("update entity skipped", "id", id, "err", err)
		return false
	}
	return c.report("update entity", c.Put(ctx, entityPath(id), payload), "id", id)
}

// DeleteEntity deletes entity id. The backend cascades to its relationships.
func (c *Client) DeleteEntity(ctx context.Context, id string) bool {
	if err := errors.ValidateID(id); err != nil {
		c.Logger().Warn("delete entity skipped", "id", id, "err", err)
		return false
	}
	return c.report("delete entity", c.Delete(ctx, entityPath(id)), "id", id)
}

// CreateRelationship creates a relationship and returns the id assigned by
// the backend. On failure Created.OK is false and Created.ID is empty.
func (c *Client) CreateRelationship(ctx context.Context, r NewRelationship) (Created, error) {
	if err := errors.ValidateStruct(r); err != nil {
		return Created{}, err
	}
	var data struct {
		ID graph.ID `json:"id"`
	}
	if err := c.Post(ctx, apiPrefix+"/relationships", r, &data); err != nil {
		return Created{}, err
	}
	return Created{OK: true, ID: data.ID.String()}, nil
}

// UpdateRelationship sends payload verbatim as the new field values of
// relationship relID.
func (c *Client) UpdateRelationship(ctx context.Context, relID string, payload map[string]any) bool {
	if err := errors.ValidateID(relID); err != nil {
		c.Logger().Warn("update relationship skipped", "id", relID, "err", err)
		return false
	}
	return c.report("update relationship", c.Put(ctx, relationshipPath(relID), payload), "id", relID)
}

// DeleteRelationship deletes relationship relID.
func (c *Client) DeleteRelationship(ctx context.Context, relID string) bool {
	if err := errors.ValidateID(relID); err != nil {
		c.Logger().Warn("delete relationship skipped", "id", relID, "err", err)
		return false
	}
	return c.report("delete relationship", c.Delete(ctx, relationshipPath(relID)), "id", relID)
}

// GetRelationship fetches one relationship by its backend id.
func (c *Client) GetRelationship(ctx context.Context, relID string) (graph.Relationship, error) {
	if err := errors.ValidateID(relID); err != nil {
		return graph.Relationship{}, err
	}
	var r graph.Relationship
	if err := c.Get(ctx, relationshipPath(relID), nil, &r); err != nil {
		return graph.Relationship{}, err
	}
	return r, nil
}

// ListRelationships lists relationships matching f. Source and Target match
// exactly; Type matches as a case-insensitive substring on the backend.
func (c *Client) ListRelationships(ctx context.Context, f RelationshipFilter) ([]graph.Relationship, error) {
	var rels []graph.Relationship
	if err := c.Get(ctx, apiPrefix+"/relationships", f.query(), &rels); err != nil {
		return nil, err
	}
	if rels == nil {
		rels = []graph.Relationship{}
	}
	return rels, nil
}

// ImportRemote uploads g to the backend's bulk import endpoint.
func (c *Client) ImportRemote(ctx context.Context, g graph.Graph, opts ImportOptions) (ImportReport, error) {
	if err := errors.ValidateStruct(opts); err != nil {
		return ImportReport{}, err
	}
	g = g.Clone()
	body := importRequest{
		Nodes:              g.Nodes,
		Links:              g.Links,
		Strategy:           opts.Strategy,
		ConflictResolution: opts.ConflictResolution,
		Domain:             opts.Domain,
	}
	var report ImportReport
	if err := c.Post(ctx, apiPrefix+"/import", body, &report); err != nil {
		return ImportReport{}, err
	}
	return report, nil
}

// ClearAll deletes every entity and relationship on the backend and returns
// the backup it took beforehand.
func (c *Client) ClearAll(ctx context.Context) (graph.Graph, error) {
	env, err := c.Do(ctx, http.MethodPost, apiPrefix+"/clear-all", nil, struct{}{})
	if err != nil {
		return graph.Graph{}, err
	}
	var backup graph.Graph
	if err := env.DecodeBackup(&backup); err != nil {
		return graph.Graph{}, err
	}
	return backup.Clone(), nil
}

// SaveData replaces the backend's data with g. With an empty domain (or
// "all") everything is replaced; otherwise only records of that domain are
// deleted and g is saved into it. Relationships whose endpoints are not in
// g are dropped by the backend and show up as a lower SavedRelationships.
func (c *Client) SaveData(ctx context.Context, g graph.Graph, domain string) (SaveResult, error) {
	if domain == "" {
		domain = AllDomains
	}
	g = g.Clone()
	body := saveRequest{Nodes: g.Nodes, Links: g.Links, CurrentDomain: domain}
	var res SaveResult
	if err := c.Post(ctx, apiPrefix+"/save-data", body, &res); err != nil {
		return SaveResult{}, err
	}
	return res, nil
}

// Chat sends a question about the graph to the backend's assistant and
// returns its answer. A blank message is a VALIDATION_ERROR and no request
// is made.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if err := errors.ValidateStruct(req); err != nil {
		return "", err
	}
	if req.CurrentDomain == "" {
		req.CurrentDomain = AllDomains
	}
	env, err := c.Do(ctx, http.MethodPost, apiPrefix+"/ai-chat", nil, req)
	if err != nil {
		return "", err
	}
	return env.Response, nil
}

func (c *Client) report(op string, err error, keyvals ...any) bool {
	if err == nil {
		return true
	}
	// Transport failures were already logged by the shared client.
	if !errors.Transport(err) {
		c.Logger().Warn(op+" failed", append(keyvals, "err", errors.UserMessage(err))...)
	}
	return false
}

func entityPath(id string) string {
	return apiPrefix + "/entities/" + integrations.PathEscape(id)
}

func relationshipPath(id string) string {
	return apiPrefix + "/relationships/" + integrations.PathEscape(id)
}
