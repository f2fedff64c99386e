package graph

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Entity is a graph node.
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// Label returns the display name, falling back to the id.
func (e Entity) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Relationship is a directed edge between two entities.
// ID is assigned by the backend and is empty for links that were never saved.
type Relationship struct {
	ID          ID     `json:"id,omitempty"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

// Graph is the full set of entities and relationships held by the client.
// Order carries no meaning but is preserved for deterministic export.
type Graph struct {
	Nodes []Entity       `json:"nodes"`
	Links []Relationship `json:"links"`
}

// ID is a backend-assigned identifier. The backend emits integer primary
// keys for relationships; files written by other tools use strings. Both
// decode to the same string form.
type ID string

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			*id = ID(strconv.FormatInt(i, 10))
			return nil
		}
		*id = ID(n.String())
		return nil
	}
}
