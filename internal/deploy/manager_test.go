package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
	"github.com/pom-bolt/pombolt-backend/internal/projects/repository"
	"github.com/pom-bolt/pombolt-backend/internal/projects/service"
	"github.com/pom-bolt/pombolt-backend/internal/storage"
)

// fakeTarget scripts availability and publish outcomes. With
// availableIfCreds set, availability follows the probed credentials the way
// the real targets behave.
type fakeTarget struct {
	name             domain.Provider
	available        bool
	availableIfCreds bool
	publishes        int
	fail             bool
	lastOpts         PublishOptions
}

func (f *fakeTarget) Name() domain.Provider { return f.name }

func (f *fakeTarget) IsAvailable(ctx context.Context, creds Credentials) bool {
	if f.availableIfCreds {
		return !creds.Empty()
	}
	return f.available
}

func (f *fakeTarget) Publish(ctx context.Context, files map[string][]byte, opts PublishOptions) (domain.DeploymentRecord, error) {
	f.publishes++
	f.lastOpts = opts
	if f.fail {
		return domain.DeploymentRecord{Provider: f.name, Status: domain.DeploymentFailed}, errors.New("provider exploded")
	}
	return domain.DeploymentRecord{
		Provider: f.name,
		URL:      "https://" + opts.ProjectName + ".example.com",
		Status:   domain.DeploymentSuccess,
	}, nil
}

func setupManager(t *testing.T, targets ...Target) (*Manager, *service.ProjectService) {
	t.Helper()
	registry := NewRegistry()
	for _, target := range targets {
		registry.Register(target)
	}
	projects := service.NewProjectService(repository.NewProjectRepository(storage.NewMemoryStore()))
	return NewManager(registry, NewResolver(), projects), projects
}

func TestAvailableTargets(t *testing.T) {
	ctx := context.Background()
	manager, _ := setupManager(t,
		&fakeTarget{name: domain.ProviderCloudflare, available: false},
		&fakeTarget{name: domain.ProviderNetlify, available: true},
	)

	assert.Equal(t,
		[]domain.Provider{domain.ProviderCloudflare, domain.ProviderNetlify},
		manager.RegisteredTargets())
	assert.Equal(t,
		[]domain.Provider{domain.ProviderNetlify},
		manager.AvailableTargets(ctx))
}

func TestDeployWithBestTarget(t *testing.T) {
	ctx := context.Background()
	files := map[string][]byte{"index.html": []byte("<h1>hi</h1>")}

	t.Run("uses explicit target when available", func(t *testing.T) {
		cf := &fakeTarget{name: domain.ProviderCloudflare, available: true}
		nl := &fakeTarget{name: domain.ProviderNetlify, available: true}
		manager, projects := setupManager(t, cf, nl)

		p, err := projects.Create(ctx, "site", nil)
		require.NoError(t, err)

		record, err := manager.DeployWithBestTarget(ctx, DeployRequest{
			ProjectID:   p.ID,
			ProjectName: "site",
			Files:       files,
			Target:      domain.ProviderNetlify,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderNetlify, record.Provider)
		assert.Equal(t, 0, cf.publishes)
	})

	t.Run("retries once against next target", func(t *testing.T) {
		cf := &fakeTarget{name: domain.ProviderCloudflare, available: true, fail: true}
		nl := &fakeTarget{name: domain.ProviderNetlify, available: true}
		manager, projects := setupManager(t, cf, nl)

		p, err := projects.Create(ctx, "site", nil)
		require.NoError(t, err)

		record, err := manager.DeployWithBestTarget(ctx, DeployRequest{
			ProjectID:   p.ID,
			ProjectName: "site",
			Files:       files,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, cf.publishes)
		assert.Equal(t, 1, nl.publishes)
		assert.Equal(t, domain.ProviderNetlify, record.Provider)
		assert.Equal(t, domain.DeploymentSuccess, record.Status)
	})

	t.Run("all targets failing falls back to local archive", func(t *testing.T) {
		cf := &fakeTarget{name: domain.ProviderCloudflare, available: true, fail: true}
		nl := &fakeTarget{name: domain.ProviderNetlify, available: true, fail: true}
		manager, projects := setupManager(t, cf, nl)

		p, err := projects.Create(ctx, "site", nil)
		require.NoError(t, err)

		record, err := manager.DeployWithBestTarget(ctx, DeployRequest{
			ProjectID:   p.ID,
			ProjectName: "site",
			Files:       files,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderLocal, record.Provider)
		assert.Equal(t, domain.DeploymentSuccess, record.Status)
		assert.Contains(t, record.URL, p.ID)
	})

	t.Run("zero available targets produces retrievable artifact", func(t *testing.T) {
		cf := &fakeTarget{name: domain.ProviderCloudflare, available: false}
		manager, projects := setupManager(t, cf)

		p, err := projects.Create(ctx, "site", nil)
		require.NoError(t, err)

		record, err := manager.DeployWithBestTarget(ctx, DeployRequest{
			ProjectID:   p.ID,
			ProjectName: "site",
			Files:       files,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProviderLocal, record.Provider)
		assert.Equal(t, 0, cf.publishes)

		archive, err := projects.GetArtifact(ctx, p.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, archive)

		entries := readArchive(t, archive)
		assert.Equal(t, []byte("<h1>hi</h1>"), entries["index.html"])
	})

	t.Run("request credentials reach the named target's publish", func(t *testing.T) {
		var gotAuth, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"result":  map[string]any{"url": "https://site.pages.dev"},
			})
		}))
		defer server.Close()

		// The target itself carries no credentials; only the request does.
		cf := NewCloudflareTarget(Credentials{}, server.URL)
		manager, projects := setupManager(t, cf)

		p, err := projects.Create(ctx, "site", nil)
		require.NoError(t, err)

		record, err := manager.DeployWithBestTarget(ctx, DeployRequest{
			ProjectID:   p.ID,
			ProjectName: "site",
			Files:       files,
			Target:      domain.ProviderCloudflare,
			Credentials: &Credentials{AccountID: "req-acct", APIToken: "req-token"},
		})
		require.NoError(t, err)

		assert.Equal(t, domain.ProviderCloudflare, record.Provider)
		assert.Equal(t, "Bearer req-token", gotAuth)
		assert.Contains(t, gotPath, "/accounts/req-acct/")
	})

	t.Run("request credentials do not make other targets available", func(t *testing.T) {
		cf := &fakeTarget{name: domain.ProviderCloudflare, available: true, fail: true}
		nl := &fakeTarget{name: domain.ProviderNetlify, availableIfCreds: true}
		manager, projects := setupManager(t, cf, nl)

		p, err := projects.Create(ctx, "site", nil)
		require.NoError(t, err)

		record, err := manager.DeployWithBestTarget(ctx, DeployRequest{
			ProjectID:   p.ID,
			ProjectName: "site",
			Files:       files,
			Target:      domain.ProviderCloudflare,
			Credentials: &Credentials{APIToken: "cloudflare-token"},
		})
		require.NoError(t, err)

		// The cloudflare token must not let netlify publish; with cloudflare
		// failing, the deploy lands on the local archive.
		assert.Equal(t, 1, cf.publishes)
		assert.Equal(t, 0, nl.publishes)
		assert.Equal(t, domain.ProviderLocal, record.Provider)
	})

	t.Run("malformed project id is rejected before any publish", func(t *testing.T) {
		cf := &fakeTarget{name: domain.ProviderCloudflare, available: true}
		manager, _ := setupManager(t, cf)

		_, err := manager.DeployWithBestTarget(ctx, DeployRequest{
			ProjectID: "proj_legacy_123",
			Files:     files,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidProjectID)
		assert.Equal(t, 0, cf.publishes)
	})
}
