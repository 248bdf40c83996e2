package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
	"github.com/pom-bolt/pombolt-backend/internal/storage"
)

// shuffledStore reports keys in reverse order, standing in for redis SCAN's
// arbitrary ordering.
type shuffledStore struct {
	storage.Store
}

func (s *shuffledStore) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys, nil
}

func TestRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(&shuffledStore{Store: storage.NewMemoryStore()})

	ids := []string{
		"00000000-0000-4000-8000-00000000000a",
		"00000000-0000-4000-8000-00000000000b",
		"00000000-0000-4000-8000-00000000000c",
	}
	// Save out of order; the listing must not depend on it.
	for _, id := range []string{ids[2], ids[0], ids[1]} {
		require.NoError(t, repo.Save(ctx, &domain.Project{ID: id, Name: "p-" + id}))
	}

	t.Run("load order is ascending key order regardless of store order", func(t *testing.T) {
		projects, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 3)
		assert.Equal(t, ids[0], projects[0].ID)
		assert.Equal(t, ids[1], projects[1].ID)
		assert.Equal(t, ids[2], projects[2].ID)
	})

	t.Run("count matches stored keys", func(t *testing.T) {
		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("corrupt entry is skipped but still counted", func(t *testing.T) {
		store := storage.NewMemoryStore()
		repo := NewProjectRepository(store)

		require.NoError(t, repo.Save(ctx, &domain.Project{ID: ids[0], Name: "ok"}))
		require.NoError(t, store.Put(ctx, "pom_bolt_project_"+ids[1], []byte("{not json")))

		projects, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 1)

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})
}
