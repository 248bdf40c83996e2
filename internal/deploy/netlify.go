package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
)

const netlifyAPIBase = "https://api.netlify.com/api/v1"

// NetlifyTarget publishes a file set by POSTing a zip to the Netlify sites
// API, which creates (or redeploys) a site in one call.
type NetlifyTarget struct {
	baseURL string
	client  *http.Client
	creds   Credentials
}

// NewNetlifyTarget creates the adapter. baseURL is overridable for tests;
// pass "" for the production API.
func NewNetlifyTarget(creds Credentials, baseURL string) *NetlifyTarget {
	if baseURL == "" {
		baseURL = netlifyAPIBase
	}
	return &NetlifyTarget{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		creds:   creds,
	}
}

func (t *NetlifyTarget) Name() domain.Provider {
	return domain.ProviderNetlify
}

func (t *NetlifyTarget) IsAvailable(ctx context.Context, creds Credentials) bool {
	return t.effective(creds).APIToken != ""
}

func (t *NetlifyTarget) effective(creds Credentials) Credentials {
	if !creds.Empty() {
		return creds
	}
	return t.creds
}

type netlifySite struct {
	URL    string `json:"url"`
	SSLURL string `json:"ssl_url"`
}

// Publish packages the files and creates a site from the zip.
func (t *NetlifyTarget) Publish(ctx context.Context, files map[string][]byte, opts PublishOptions) (domain.DeploymentRecord, error) {
	record := domain.DeploymentRecord{
		Provider:  domain.ProviderNetlify,
		Timestamp: time.Now().UTC(),
		Status:    domain.DeploymentFailed,
	}

	archive, err := Package(files)
	if err != nil {
		return record, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sites", bytes.NewReader(archive))
	if err != nil {
		return record, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.effective(opts.Credentials).APIToken)
	req.Header.Set("Content-Type", "application/zip")

	resp, err := t.client.Do(req)
	if err != nil {
		return record, fmt.Errorf("netlify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return record, fmt.Errorf("netlify deploy failed: status %d", resp.StatusCode)
	}

	var site netlifySite
	if err := json.NewDecoder(resp.Body).Decode(&site); err != nil {
		return record, fmt.Errorf("decode netlify response: %w", err)
	}

	record.URL = site.SSLURL
	if record.URL == "" {
		record.URL = site.URL
	}
	record.Status = domain.DeploymentSuccess
	return record, nil
}
