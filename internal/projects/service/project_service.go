package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
	"github.com/pom-bolt/pombolt-backend/internal/projects/repository"
)

// ListOptions controls sorting and truncation of project listings.
type ListOptions struct {
	Limit         int
	SortBy        string // created_at | updated_at | name
	SortDirection string // asc | desc
}

// ProjectService is the state manager: it owns the write path for project
// entities and enforces their invariants on top of the repository.
type ProjectService struct {
	repo *repository.ProjectRepository
}

// NewProjectService creates a new project service.
func NewProjectService(repo *repository.ProjectRepository) *ProjectService {
	return &ProjectService{repo: repo}
}

// Create assigns identity and timestamps, persists the empty project, and
// returns the full entity.
func (s *ProjectService) Create(ctx context.Context, name string, metadata map[string]string) (*domain.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("name required")
	}

	now := time.Now().UTC()
	p := &domain.Project{
		ID:           domain.NewProjectID(),
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     metadata,
		Files:        []domain.ProjectFile{},
		Requirements: []domain.RequirementEntry{},
		Deployments:  []domain.DeploymentRecord{},
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the project for a valid id, domain.ErrNotFound when absent.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	if err := domain.ValidateProjectID(id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the project is stored.
func (s *ProjectService) Exists(ctx context.Context, id string) (bool, error) {
	if err := domain.ValidateProjectID(id); err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, id)
}

// Save is the idempotent upsert primitive for callers holding a full
// materialized project.
func (s *ProjectService) Save(ctx context.Context, p *domain.Project) error {
	if err := domain.ValidateProjectID(p.ID); err != nil {
		return err
	}
	return s.repo.Save(ctx, p)
}

// List returns projects sorted per opts plus the total unfiltered count. The
// sort is stable: ties keep the repository's key order.
func (s *ProjectService) List(ctx context.Context, opts ListOptions) ([]domain.Project, int, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	// Total counts stored keys, so a corrupt entry skipped by List still
	// shows up in the count.
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	desc := opts.SortDirection == "desc"
	var less func(a, b *domain.Project) bool
	switch opts.SortBy {
	case "name":
		less = func(a, b *domain.Project) bool { return a.Name < b.Name }
	case "updated_at", "updatedAt":
		less = func(a, b *domain.Project) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "", "created_at", "createdAt":
		less = func(a, b *domain.Project) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return nil, 0, fmt.Errorf("unknown sort key %q", opts.SortBy)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if desc {
			return less(&projects[j], &projects[i])
		}
		return less(&projects[i], &projects[j])
	})

	if opts.Limit > 0 && opts.Limit < len(projects) {
		projects = projects[:opts.Limit]
	}
	return projects, total, nil
}

// AddFiles writes the given path→content mapping into the project. Existing
// paths are updated in place (and un-tombstoned on re-add); new paths are
// appended. Entries are never removed.
func (s *ProjectService) AddFiles(ctx context.Context, id string, files map[string][]byte) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	// Deterministic apply order for reproducible timestamps and appends.
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		content := files[path]
		if existing := p.File(path); existing != nil {
			existing.Content = content
			existing.UpdatedAt = now
			existing.IsDeleted = false
			continue
		}
		p.Files = append(p.Files, domain.ProjectFile{
			Path:      path,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	p.Touch(now)
	return s.repo.Save(ctx, p)
}

// DeleteFiles tombstones the named paths. Unknown paths are ignored; the
// entries stay in the project for sync reconciliation and history.
func (s *ProjectService) DeleteFiles(ctx context.Context, id string, paths []string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, path := range paths {
		if f := p.File(path); f != nil && !f.IsDeleted {
			f.IsDeleted = true
			f.UpdatedAt = now
		}
	}

	p.Touch(now)
	return s.repo.Save(ctx, p)
}

// GetFiles returns all file entries, tombstoned ones included.
func (s *ProjectService) GetFiles(ctx context.Context, id string) ([]domain.ProjectFile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Files, nil
}

// AddRequirement appends one immutable requirement entry.
func (s *ProjectService) AddRequirement(ctx context.Context, id, content string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.Requirements = append(p.Requirements, domain.RequirementEntry{
		Timestamp: now,
		Content:   content,
	})
	p.Touch(now)
	return s.repo.Save(ctx, p)
}

// RequirementsHistory returns the append-ordered requirement entries.
func (s *ProjectService) RequirementsHistory(ctx context.Context, id string) ([]domain.RequirementEntry, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Requirements, nil
}

// AddDeployment appends one deployment record.
func (s *ProjectService) AddDeployment(ctx context.Context, id string, record domain.DeploymentRecord) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if record.Timestamp.IsZero() {
		record.Timestamp = now
	}
	p.Deployments = append(p.Deployments, record)
	p.Touch(now)
	return s.repo.Save(ctx, p)
}

// SaveArtifact and GetArtifact expose archive persistence to the deployment
// layer without leaking the key convention.

func (s *ProjectService) SaveArtifact(ctx context.Context, id string, archive []byte) error {
	if err := domain.ValidateProjectID(id); err != nil {
		return err
	}
	return s.repo.SaveArtifact(ctx, id, archive)
}

func (s *ProjectService) GetArtifact(ctx context.Context, id string) ([]byte, error) {
	if err := domain.ValidateProjectID(id); err != nil {
		return nil, err
	}
	return s.repo.GetArtifact(ctx, id)
}
