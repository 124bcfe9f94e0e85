package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rpggio/localfirst/internal/domain/entity"
	"github.com/rpggio/localfirst/internal/repository"
)

// ResourceRepository stores entities for the reference API, one row per entity
type ResourceRepository struct {
	db *DB
}

// NewResourceRepository creates a new ResourceRepository
func NewResourceRepository(db *DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a new entity. The stored copy is always synced.
func (r *ResourceRepository) Create(ctx context.Context, tenantID, resource string, e entity.Entity) (entity.Entity, error) {
	if e.ID == "" {
		return entity.Entity{}, repository.ErrInvalidInput
	}
	e = e.Clone()
	e.MarkSynced()

	data, err := json.Marshal(e.Fields)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("failed to encode entity: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO resources (tenant_id, resource, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, tenantID, resource, e.ID, string(data), now, now)
	if isUniqueViolation(err) {
		return entity.Entity{}, repository.ErrConflict
	}
	if err != nil {
		return entity.Entity{}, fmt.Errorf("failed to create entity: %w", err)
	}

	return e, nil
}

// Get retrieves an entity by ID
func (r *ResourceRepository) Get(ctx context.Context, tenantID, resource, id string) (entity.Entity, error) {
	query := `
		SELECT id, data
		FROM resources
		WHERE tenant_id = ? AND resource = ? AND id = ?
	`

	var rowID, data string
	err := r.db.QueryRowContext(ctx, query, tenantID, resource, id).Scan(&rowID, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Entity{}, repository.ErrNotFound
	}
	if err != nil {
		return entity.Entity{}, fmt.Errorf("failed to get entity: %w", err)
	}

	return decodeRow(rowID, data)
}

// List returns the entities of a resource in creation order. Each filter is an
// equality match on a top-level field.
func (r *ResourceRepository) List(ctx context.Context, tenantID, resource string, filters map[string]string) ([]entity.Entity, error) {
	query := `
		SELECT id, data
		FROM resources
		WHERE tenant_id = ? AND resource = ?
	`
	args := []any{tenantID, resource}

	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if field == entity.KeyID {
			query += " AND id = ?"
			args = append(args, filters[field])
			continue
		}
		if !validField(field) {
			return nil, fmt.Errorf("%w: filter field %q", repository.ErrInvalidInput, field)
		}
		query += " AND CAST(json_extract(data, ?) AS TEXT) = ?"
		args = append(args, "$."+field, filters[field])
	}
	query += " ORDER BY created_at ASC, rowid ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	items := []entity.Entity{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e, err := decodeRow(id, data)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity rows: %w", err)
	}

	return items, nil
}

// Update shallow-merges patch into the stored entity and returns the result
func (r *ResourceRepository) Update(ctx context.Context, tenantID, resource, id string, patch map[string]any) (entity.Entity, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM resources WHERE tenant_id = ? AND resource = ? AND id = ?`,
		tenantID, resource, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Entity{}, repository.ErrNotFound
	}
	if err != nil {
		return entity.Entity{}, fmt.Errorf("failed to load entity: %w", err)
	}

	current, err := decodeRow(id, data)
	if err != nil {
		return entity.Entity{}, err
	}
	updated := current.Merge(patch)
	updated.MarkSynced()

	encoded, err := json.Marshal(updated.Fields)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("failed to encode entity: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE resources SET data = ?, updated_at = ? WHERE tenant_id = ? AND resource = ? AND id = ?`,
		string(encoded), time.Now(), tenantID, resource, id,
	)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("failed to update entity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return entity.Entity{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}

// Delete removes an entity
func (r *ResourceRepository) Delete(ctx context.Context, tenantID, resource, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM resources WHERE tenant_id = ? AND resource = ? AND id = ?`,
		tenantID, resource, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Count returns how many entities a tenant stores for a resource
func (r *ResourceRepository) Count(ctx context.Context, tenantID, resource string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM resources WHERE tenant_id = ? AND resource = ?`,
		tenantID, resource,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return n, nil
}

func decodeRow(id, data string) (entity.Entity, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return entity.Entity{}, fmt.Errorf("failed to decode entity %s: %w", id, err)
	}
	e := entity.New(fields)
	e.ID = id
	e.MarkSynced()
	return e, nil
}
