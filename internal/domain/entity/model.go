package entity

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Reserved JSON keys managed by the sync layer.
const (
	KeyID       = "id"
	KeyIsLocal  = "isLocal"
	KeyIsSynced = "isSynced"
)

// LocalIDPrefix marks identifiers generated on the client.
const LocalIDPrefix = "local-"

// Entity is a domain record (project, customer, supplier, ...) with sync flags.
// Fields holds every domain attribute; it never contains the reserved keys.
type Entity struct {
	ID       string
	IsLocal  bool
	IsSynced bool
	Fields   map[string]any
}

// New builds an entity from a flat field map, lifting the reserved keys out of it.
func New(fields map[string]any) Entity {
	e := Entity{Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		switch k {
		case KeyID:
			e.ID = idString(v)
		case KeyIsLocal:
			e.IsLocal, _ = v.(bool)
		case KeyIsSynced:
			e.IsSynced, _ = v.(bool)
		default:
			e.Fields[k] = v
		}
	}
	return e
}

// Get returns a field value, or nil.
func (e Entity) Get(field string) any {
	if field == KeyID {
		return e.ID
	}
	return e.Fields[field]
}

// String returns a field rendered as text, or "" if missing.
func (e Entity) String(field string) string {
	switch v := e.Get(field).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a copy whose field map can be mutated independently.
func (e Entity) Clone() Entity {
	e.Fields = maps.Clone(e.Fields)
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	return e
}

// Merge applies patch over e (shallow). Patch keys for the sync flags are honored;
// the id never changes.
func (e Entity) Merge(patch map[string]any) Entity {
	out := e.Clone()
	for k, v := range patch {
		switch k {
		case KeyID:
		case KeyIsLocal:
			out.IsLocal, _ = v.(bool)
		case KeyIsSynced:
			out.IsSynced, _ = v.(bool)
		default:
			out.Fields[k] = v
		}
	}
	return out
}

// MergeFields applies patch over e (shallow), ignoring the reserved keys. It is
// the merge for user edits: only the sync layer moves the flags.
func (e Entity) MergeFields(patch map[string]any) Entity {
	out := e.Clone()
	for k, v := range patch {
		switch k {
		case KeyID, KeyIsLocal, KeyIsSynced:
		default:
			out.Fields[k] = v
		}
	}
	return out
}

// MarkLocal flags the entity as created offline and never confirmed.
func (e *Entity) MarkLocal() {
	e.IsLocal = true
	e.IsSynced = false
}

// MarkPending flags a change that the server has not seen yet.
func (e *Entity) MarkPending() {
	e.IsSynced = false
}

// MarkSynced records server acceptance; a synced entity is never local.
func (e *Entity) MarkSynced() {
	e.IsLocal = false
	e.IsSynced = true
}

// HasLocalID reports whether the id was generated on the client.
func (e Entity) HasLocalID() bool {
	return strings.HasPrefix(e.ID, LocalIDPrefix)
}

// Map returns the flat representation used on the wire and in storage.
func (e Entity) Map() map[string]any {
	out := make(map[string]any, len(e.Fields)+3)
	maps.Copy(out, e.Fields)
	out[KeyID] = e.ID
	out[KeyIsLocal] = e.IsLocal
	out[KeyIsSynced] = e.IsSynced
	return out
}

// MarshalJSON encodes the entity as a flat object.
func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// UnmarshalJSON decodes a flat object.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("entity: expected object, got %s", string(data))
	}
	*e = New(fields)
	return nil
}

// Index returns the position of the entity with the given id, or -1.
func Index(items []Entity, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
