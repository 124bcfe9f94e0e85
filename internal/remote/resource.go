package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/repository"
)

// Resource is the client for one REST resource.
type Resource struct {
	client *Client
	name   string
	path   string
}

// Name returns the resource name.
func (r *Resource) Name() string {
	return r.name
}

// List fetches the collection. query holds optional server-side filters.
func (r *Resource) List(ctx context.Context, query url.Values) ([]entity.Entity, error) {
	data, err := r.client.do(ctx, http.MethodGet, r.path, query, nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(data, r.name)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].MarkSynced()
	}
	return items, nil
}

// Create POSTs e. The returned entity, including its id, is the server's.
func (r *Resource) Create(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	data, err := r.client.do(ctx, http.MethodPost, r.path, nil, e.Fields)
	if err != nil {
		return entity.Entity{}, err
	}
	return decodeOne(data)
}

// Update PUTs patch for id, with the id in the body.
func (r *Resource) Update(ctx context.Context, id string, patch map[string]any) (entity.Entity, error) {
	body := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		if k == entity.KeyIsLocal || k == entity.KeyIsSynced {
			continue
		}
		body[k] = v
	}
	body[entity.KeyID] = id
	data, err := r.client.do(ctx, http.MethodPut, r.path, nil, body)
	if err != nil {
		return entity.Entity{}, err
	}
	return decodeOne(data)
}

// Delete removes id, passed in the query string.
func (r *Resource) Delete(ctx context.Context, id string) error {
	_, err := r.client.do(ctx, http.MethodDelete, r.path, url.Values{"id": {id}}, nil)
	return err
}

// decodeList accepts {"data":[...]}, {"<resource>":[...]} or a bare array.
func decodeList(data []byte, name string) ([]entity.Entity, error) {
	var items []entity.Entity
	if err := json.Unmarshal(data, &items); err == nil {
		return nonNil(items), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", repository.ErrUnavailable, errMalformed, err)
	}
	for _, key := range []string{"data", name} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %w: %s: %v", repository.ErrUnavailable, errMalformed, key, err)
		}
		return nonNil(items), nil
	}
	return nil, fmt.Errorf("%w: %w: no %q or data list", repository.ErrUnavailable, errMalformed, name)
}

// decodeOne accepts {"data":{...}} or a bare object.
func decodeOne(data []byte) (entity.Entity, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		data = env.Data
	}
	var e entity.Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return entity.Entity{}, fmt.Errorf("%w: %w: %v", repository.ErrUnavailable, errMalformed, err)
	}
	e.Fields = withoutEnvelopeKeys(e.Fields)
	e.MarkSynced()
	return e, nil
}

func withoutEnvelopeKeys(fields map[string]any) map[string]any {
	delete(fields, "success")
	delete(fields, "error")
	return fields
}

func nonNil(items []entity.Entity) []entity.Entity {
	if items == nil {
		return []entity.Entity{}
	}
	return items
}
