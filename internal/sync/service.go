package sync

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
	"github.com/pom-bolt/pombolt-backend/internal/projects/service"
)

// ErrSyncInFlight is returned when a batch sync is requested while another is
// still running. Callers treat it as a no-op, not a failure to retry.
var ErrSyncInFlight = errors.New("sync already in flight")

// Action is the per-project outcome of a sync pass.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionFailed  Action = "failed"
)

// Detail reports what happened to one project.
type Detail struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
	Error  string `json:"error,omitempty"`
}

// Result aggregates one batch. Batches are never all-or-nothing: a failure on
// one project is recorded here and the rest of the batch continues.
type Result struct {
	Success bool             `json:"success"`
	Synced  int              `json:"synced"`
	Updated int              `json:"updated"`
	Created int              `json:"created"`
	Errors  int              `json:"errors"`
	Details []Detail         `json:"details"`
	Pulled  []domain.Project `json:"pulled,omitempty"`
}

// Service reconciles a caller-supplied local snapshot against the
// authoritative remote view. It holds merge mechanics only; entity invariants
// live in the state manager.
type Service struct {
	remote   *service.ProjectService
	inFlight atomic.Bool
}

// NewService creates a sync service over the remote state manager.
func NewService(remote *service.ProjectService) *Service {
	return &Service{remote: remote}
}

// SyncBidirectional runs one batch: first pull every remote project absent
// from the local snapshot, then push each local project with a whole-entity
// last-writer-wins upsert. Pulls complete before pushes begin. The batch is
// not transactional; callers tolerate partial completion and may simply
// re-run it, since the upsert is idempotent.
func (s *Service) SyncBidirectional(ctx context.Context, local []domain.Project) (*Result, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSyncInFlight
	}
	defer s.inFlight.Store(false)

	result := &Result{Details: []Detail{}}

	localIDs := make(map[string]struct{}, len(local))
	for _, p := range local {
		localIDs[p.ID] = struct{}{}
	}

	// Pull phase: remote projects the local snapshot has never seen.
	remoteProjects, _, err := s.remote.List(ctx, service.ListOptions{})
	if err != nil {
		// Without the remote view we cannot pull, but pushes can still
		// proceed; record the degraded pull rather than aborting.
		log.Printf("[warn] operation=sync message=pull phase failed, continuing with push error=%v", err)
	} else {
		for _, p := range remoteProjects {
			if _, ok := localIDs[p.ID]; !ok {
				result.Pulled = append(result.Pulled, p)
			}
		}
	}

	// Push phase: local always overwrites remote when both exist. The
	// invoking side is assumed to hold the freshest edits; there is no
	// field-level merge.
	for i := range local {
		p := local[i]
		detail := s.pushOne(ctx, &p)
		result.Details = append(result.Details, detail)
		switch detail.Action {
		case ActionCreated:
			result.Created++
			result.Synced++
		case ActionUpdated:
			result.Updated++
			result.Synced++
		case ActionFailed:
			result.Errors++
		}
	}

	result.Success = result.Errors == 0
	log.Printf("[info] operation=sync synced=%d created=%d updated=%d errors=%d pulled=%d",
		result.Synced, result.Created, result.Updated, result.Errors, len(result.Pulled))
	return result, nil
}

// SyncProject performs the existence check and upsert for a single project.
// It is not guarded by the batch single-flight flag and may interleave with
// one.
func (s *Service) SyncProject(ctx context.Context, p *domain.Project) (Detail, error) {
	detail := s.pushOne(ctx, p)
	if detail.Action == ActionFailed {
		return detail, errors.New(detail.Error)
	}
	return detail, nil
}

// SyncFromStore is the periodic worker entry point: it treats the cache-tier
// repository's full contents as the local snapshot and runs a batch against
// the durable tier.
func (s *Service) SyncFromStore(ctx context.Context, local *service.ProjectService) (*Result, error) {
	snapshot, _, err := local.List(ctx, service.ListOptions{})
	if err != nil {
		return nil, err
	}
	return s.SyncBidirectional(ctx, snapshot)
}

func (s *Service) pushOne(ctx context.Context, p *domain.Project) Detail {
	if err := domain.ValidateProjectID(p.ID); err != nil {
		return Detail{ID: p.ID, Action: ActionFailed, Error: err.Error()}
	}

	exists, err := s.remote.Exists(ctx, p.ID)
	if err != nil {
		return Detail{ID: p.ID, Action: ActionFailed, Error: err.Error()}
	}

	if err := s.remote.Save(ctx, p); err != nil {
		return Detail{ID: p.ID, Action: ActionFailed, Error: err.Error()}
	}

	if exists {
		return Detail{ID: p.ID, Action: ActionUpdated}
	}
	return Detail{ID: p.ID, Action: ActionCreated}
}
