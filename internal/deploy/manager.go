package deploy

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
	"github.com/pom-bolt/pombolt-backend/internal/projects/service"
)

// DeployRequest describes one publish attempt. Target and Credentials are
// optional; when absent the manager picks the best available target and the
// resolver sources credentials.
type DeployRequest struct {
	ProjectID   string
	ProjectName string
	Files       map[string][]byte
	Target      domain.Provider
	Credentials *Credentials
}

// Manager selects a target, resolves its credentials, and drives the publish,
// falling back to a locally retrievable archive when no remote target is
// usable.
type Manager struct {
	registry *Registry
	resolver *Resolver
	projects *service.ProjectService
	limiter  *rate.Limiter
}

// NewManager wires the deployment orchestrator. The limiter paces provider
// API calls across concurrent deploys.
func NewManager(registry *Registry, resolver *Resolver, projects *service.ProjectService) *Manager {
	return &Manager{
		registry: registry,
		resolver: resolver,
		projects: projects,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 4),
	}
}

// RegisteredTargets returns the static configuration-time target set.
func (m *Manager) RegisteredTargets() []domain.Provider {
	return m.registry.Names()
}

// AvailableTargets filters registered targets by probing credential
// availability for each. Credential absence is not an error; the target is
// simply not a candidate.
func (m *Manager) AvailableTargets(ctx context.Context) []domain.Provider {
	return m.availableTargets(ctx, nil, "")
}

func (m *Manager) availableTargets(ctx context.Context, explicit *Credentials, explicitTarget domain.Provider) []domain.Provider {
	var out []domain.Provider
	for _, name := range m.registry.Names() {
		target, _ := m.registry.Target(name)
		if target.IsAvailable(ctx, m.resolveFor(explicit, explicitTarget, name)) {
			out = append(out, name)
		}
	}
	return out
}

// resolveFor resolves credentials for one provider. Request-supplied
// credentials apply only to the provider the request named; a Cloudflare
// token must not make Netlify look available.
func (m *Manager) resolveFor(explicit *Credentials, explicitTarget, name domain.Provider) Credentials {
	if explicit != nil && explicitTarget == name {
		return m.resolver.ResolveWith(explicit, name)
	}
	return m.resolver.Resolve(name)
}

// DeployWithBestTarget publishes req.Files. An explicit available target is
// used first; otherwise candidates are tried in registration priority order.
// A publish failure is retried once against the next available target before
// the local-archive fallback kicks in. The returned record is terminal: the
// caller appends it to the project's deployment history.
func (m *Manager) DeployWithBestTarget(ctx context.Context, req DeployRequest) (domain.DeploymentRecord, error) {
	if err := domain.ValidateProjectID(req.ProjectID); err != nil {
		return domain.DeploymentRecord{}, err
	}

	candidates := m.candidates(ctx, req)

	opts := PublishOptions{ProjectName: req.ProjectName, ProjectID: req.ProjectID}
	var lastErr error
	for attempt, name := range candidates {
		if attempt > 1 {
			// One retry against the next target, then give up on
			// remote publishing.
			break
		}
		target, _ := m.registry.Target(name)

		if err := m.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		// The target publishes with the same credentials its availability
		// probe saw.
		opts.Credentials = m.resolveFor(req.Credentials, req.Target, name)
		record, err := target.Publish(ctx, req.Files, opts)
		if err == nil {
			log.Printf("[info] operation=deploy project_id=%s provider=%s url=%s", req.ProjectID, name, record.URL)
			return record, nil
		}
		lastErr = err
		log.Printf("[warn] operation=deploy project_id=%s provider=%s message=publish failed, trying next target error=%v", req.ProjectID, name, err)
	}

	record, err := m.deployLocal(ctx, req)
	if err != nil {
		if lastErr != nil {
			return record, fmt.Errorf("all targets failed (last: %v); local fallback: %w", lastErr, err)
		}
		return record, fmt.Errorf("local fallback: %w", err)
	}
	return record, nil
}

// candidates returns the target order for this request: an available explicit
// target first, then the remaining available targets in priority order.
func (m *Manager) candidates(ctx context.Context, req DeployRequest) []domain.Provider {
	available := m.availableTargets(ctx, req.Credentials, req.Target)
	if req.Target == "" {
		return available
	}

	ordered := make([]domain.Provider, 0, len(available))
	explicitAvailable := false
	for _, name := range available {
		if name == req.Target {
			explicitAvailable = true
			continue
		}
		ordered = append(ordered, name)
	}
	if !explicitAvailable {
		log.Printf("[warn] operation=deploy project_id=%s message=requested target %s unavailable, falling back to best available", req.ProjectID, req.Target)
		return ordered
	}
	return append([]domain.Provider{req.Target}, ordered...)
}

// deployLocal packages the files and persists the archive through the backing
// store so it stays retrievable over the artifact endpoint.
func (m *Manager) deployLocal(ctx context.Context, req DeployRequest) (domain.DeploymentRecord, error) {
	record := domain.DeploymentRecord{
		Provider:  domain.ProviderLocal,
		Timestamp: time.Now().UTC(),
		Status:    domain.DeploymentFailed,
	}

	archive, err := Package(req.Files)
	if err != nil {
		return record, err
	}
	if err := m.projects.SaveArtifact(ctx, req.ProjectID, archive); err != nil {
		return record, err
	}

	record.URL = fmt.Sprintf("/api/v1/projects/%s/artifact", req.ProjectID)
	record.Status = domain.DeploymentSuccess
	log.Printf("[info] operation=deploy project_id=%s provider=local message=no remote target usable, stored downloadable archive", req.ProjectID)
	return record, nil
}
