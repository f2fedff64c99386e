package kg

import (
	"net/url"

	"github.com/matzehuels/kgviz/pkg/graph"
)

// AllDomains is the domain value the backend reads as "every domain".
const AllDomains = "all"

// NewEntity is the body of POST /api/kg/entities.
type NewEntity struct {
	ID          string `json:"id" validate:"notblank,entityid"`
	Name        string `json:"name" validate:"notblank"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// NewRelationship is the body of POST /api/kg/relationships.
type NewRelationship struct {
	Source      string `json:"source" validate:"notblank"`
	Target      string `json:"target" validate:"notblank,nefield=Source"`
	Type        string `json:"type" validate:"notblank"`
	Description string `json:"description"`
	Domain      string `json:"domain,omitempty"`
}

// Created reports the outcome of CreateRelationship.
type Created struct {
	OK bool
	ID string
}

// Import strategies accepted by the backend.
const (
	StrategyMerge = "merge"
	StrategySkip  = "skip"
)

// Conflict resolutions for entities whose id already exists.
const (
	ResolveAutoID    = "auto_id"
	ResolveMergeData = "merge_data"
	ResolveSkip      = "skip"
)

// ImportOptions controls ImportRemote. Empty fields use the backend
// defaults (merge, auto_id, domain "default").
type ImportOptions struct {
	Strategy           string `json:"strategy,omitempty" validate:"omitempty,oneof=merge skip"`
	ConflictResolution string `json:"conflict_resolution,omitempty" validate:"omitempty,oneof=auto_id merge_data skip"`
	Domain             string `json:"domain,omitempty"`
}

type importRequest struct {
	Nodes              []graph.Entity       `json:"nodes"`
	Links              []graph.Relationship `json:"links"`
	Strategy           string               `json:"strategy,omitempty"`
	ConflictResolution string               `json:"conflict_resolution,omitempty"`
	Domain             string               `json:"domain,omitempty"`
}

// ImportReport is the backend's summary of a bulk import.
type ImportReport struct {
	Stats              ImportStats       `json:"import_stats"`
	EntityIDMapping    map[string]string `json:"entity_id_mapping,omitempty"`
	Domain             string            `json:"domain"`
	Strategy           string            `json:"strategy"`
	ConflictResolution string            `json:"conflict_resolution"`
}

// ImportStats counts what the backend did with each imported record.
type ImportStats struct {
	Entities struct {
		Created   int `json:"created"`
		Updated   int `json:"updated"`
		Skipped   int `json:"skipped"`
		Conflicts int `json:"conflicts"`
		Errors    int `json:"errors"`
	} `json:"entities"`
	Relationships struct {
		Created int `json:"created"`
		Skipped int `json:"skipped"`
		Errors  int `json:"errors"`
	} `json:"relationships"`
	Conflicts []ImportConflict `json:"conflicts"`
}

// ImportConflict describes one record the backend could not import as-is.
type ImportConflict struct {
	Type       string `json:"type"`
	OriginalID string `json:"original_id,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	Source     string `json:"source,omitempty"`
	Target     string `json:"target,omitempty"`
	Message    string `json:"message"`
}

// RelationshipFilter narrows ListRelationships. Empty fields match anything.
type RelationshipFilter struct {
	Source string
	Target string
	Type   string
}

func (f RelationshipFilter) query() url.Values {
	q := url.Values{}
	if f.Source != "" {
		q.Set("source", f.Source)
	}
	if f.Target != "" {
		q.Set("target", f.Target)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	return q
}

type saveRequest struct {
	Nodes         []graph.Entity       `json:"nodes"`
	Links         []graph.Relationship `json:"links"`
	CurrentDomain string               `json:"currentDomain"`
}

// SaveResult counts the records SaveData stored.
type SaveResult struct {
	SavedEntities      int `json:"saved_entities"`
	SavedRelationships int `json:"saved_relationships"`
}

// ChatRequest is the body of POST /api/kg/ai-chat. GraphData gives the
// assistant the graph as the user currently sees it.
type ChatRequest struct {
	Message       string              `json:"message" validate:"notblank"`
	GraphData     graph.Graph         `json:"graphData"`
	CurrentDomain string              `json:"currentDomain"`
	SelectedNode  *graph.Entity       `json:"selectedNode"`
	SelectedLink  *graph.Relationship `json:"selectedLink"`
	UseExternalAI bool                `json:"useExternalAI"`
}
