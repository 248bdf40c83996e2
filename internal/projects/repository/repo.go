package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
	"github.com/pom-bolt/pombolt-backend/internal/storage"
)

const (
	// projectKeyPrefix is the fixed key convention shared by every storage
	// tier: pom_bolt_project_{project_id}.
	projectKeyPrefix = "pom_bolt_project_"
	// artifactKeyPrefix holds packaged deployment archives:
	// pom_bolt_artifact_{project_id}.
	artifactKeyPrefix = "pom_bolt_artifact_"
)

// ProjectRepository provides persistence operations for projects on top of a
// backing store. It owns JSON serialization and the key naming convention.
type ProjectRepository struct {
	store storage.Store
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(store storage.Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

// Save upserts the full project entity under its key.
func (r *ProjectRepository) Save(ctx context.Context, p *domain.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project %s: %w", p.ID, err)
	}

	if err := r.store.Put(ctx, projectKey(p.ID), data); err != nil {
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

// Get loads a project by id, returning domain.ErrNotFound when absent.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	data, err := r.store.Get(ctx, projectKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}

	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal project %s: %w", id, err)
	}
	return &p, nil
}

// Exists reports whether a project is present without decoding it.
func (r *ProjectRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.store.Get(ctx, projectKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check project %s: %w", id, err)
	}
	return true, nil
}

// List loads every stored project, in ascending key order regardless of the
// order the store reports keys in (redis SCAN order is arbitrary), so sort
// ties downstream stay stable across calls and tiers. Entries that fail to
// decode are skipped rather than failing the whole listing; single-key
// corruption must not take down every caller.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	keys, err := r.store.List(ctx, projectKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	sort.Strings(keys)

	out := make([]domain.Project, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var p domain.Project
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Count returns the number of stored projects, counting keys rather than
// decoding entries.
func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	keys, err := r.store.List(ctx, projectKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return len(keys), nil
}

// SaveArtifact stores a packaged deployment archive for a project. The value
// is a raw zip byte stream; the store keeps it verbatim.
func (r *ProjectRepository) SaveArtifact(ctx context.Context, id string, archive []byte) error {
	if err := r.store.Put(ctx, artifactKey(id), archive); err != nil {
		return fmt.Errorf("save artifact %s: %w", id, err)
	}
	return nil
}

// GetArtifact loads the stored archive for a project, domain.ErrNotFound when
// none has been produced.
func (r *ProjectRepository) GetArtifact(ctx context.Context, id string) ([]byte, error) {
	data, err := r.store.Get(ctx, artifactKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: %w", id, err)
	}
	return data, nil
}

func projectKey(id string) string {
	return projectKeyPrefix + id
}

func artifactKey(id string) string {
	return artifactKeyPrefix + id
}
