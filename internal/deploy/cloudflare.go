package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
)

const cloudflareAPIBase = "https://api.cloudflare.com/client/v4"

// CloudflareTarget publishes a file set to Cloudflare Pages via the direct
// upload API. It needs an account id and an API token.
type CloudflareTarget struct {
	baseURL string
	client  *http.Client
	creds   Credentials
}

// NewCloudflareTarget creates the adapter. baseURL is overridable for tests;
// pass "" for the production API.
func NewCloudflareTarget(creds Credentials, baseURL string) *CloudflareTarget {
	if baseURL == "" {
		baseURL = cloudflareAPIBase
	}
	return &CloudflareTarget{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		creds:   creds,
	}
}

func (t *CloudflareTarget) Name() domain.Provider {
	return domain.ProviderCloudflare
}

// IsAvailable needs both halves of the credential pair. Missing credentials
// only remove the target from candidacy.
func (t *CloudflareTarget) IsAvailable(ctx context.Context, creds Credentials) bool {
	effective := t.effective(creds)
	return effective.AccountID != "" && effective.APIToken != ""
}

func (t *CloudflareTarget) effective(creds Credentials) Credentials {
	if !creds.Empty() {
		return creds
	}
	return t.creds
}

type cloudflareResponse struct {
	Success bool `json:"success"`
	Result  struct {
		URL string `json:"url"`
	} `json:"result"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Publish packages the files and uploads them as one Pages deployment.
func (t *CloudflareTarget) Publish(ctx context.Context, files map[string][]byte, opts PublishOptions) (domain.DeploymentRecord, error) {
	record := domain.DeploymentRecord{
		Provider:  domain.ProviderCloudflare,
		Timestamp: time.Now().UTC(),
		Status:    domain.DeploymentFailed,
	}

	creds := t.effective(opts.Credentials)
	archive, err := Package(files)
	if err != nil {
		return record, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "site.zip")
	if err != nil {
		return record, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := fw.Write(archive); err != nil {
		return record, fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return record, fmt.Errorf("build upload form: %w", err)
	}

	reqURL := fmt.Sprintf("%s/accounts/%s/pages/projects/%s/deployments",
		t.baseURL, creds.AccountID, opts.ProjectName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &body)
	if err != nil {
		return record, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return record, fmt.Errorf("cloudflare request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return record, fmt.Errorf("read cloudflare response: %w", err)
	}

	var parsed cloudflareResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return record, fmt.Errorf("decode cloudflare response: %w", err)
	}
	if resp.StatusCode >= 400 || !parsed.Success {
		msg := "unknown error"
		if len(parsed.Errors) > 0 {
			msg = parsed.Errors[0].Message
		}
		return record, fmt.Errorf("cloudflare deploy failed (status %d): %s", resp.StatusCode, msg)
	}

	record.URL = parsed.Result.URL
	record.Status = domain.DeploymentSuccess
	return record, nil
}
