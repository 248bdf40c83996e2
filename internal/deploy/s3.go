package deploy

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
)

// s3API is the slice of the S3 client the target uses. Tests substitute it.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Target publishes a file set to an S3 bucket configured for static website
// hosting. Explicitly configured access keys take priority; otherwise the
// default AWS credential chain applies, which already covers env vars, shared
// config, and instance roles in priority order.
type S3Target struct {
	bucket          string
	region          string
	accessKeyID     string
	secretAccessKey string

	// mu guards the lazily built client; availability probes and publishes
	// run concurrently under the HTTP server.
	mu     sync.Mutex
	client s3API
	build  func(ctx context.Context) (s3API, error)
}

// NewS3Target creates the adapter. The S3 client is built lazily on first
// use so a missing credential chain never errors at construction.
func NewS3Target(bucket, region, accessKeyID, secretAccessKey string) *S3Target {
	t := &S3Target{
		bucket:          bucket,
		region:          region,
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
	}
	t.build = t.buildClient
	return t
}

func (t *S3Target) Name() domain.Provider {
	return domain.ProviderS3
}

// IsAvailable requires a configured bucket and a resolvable credential chain.
func (t *S3Target) IsAvailable(ctx context.Context, creds Credentials) bool {
	if t.bucket == "" {
		return false
	}
	_, err := t.api(ctx)
	return err == nil
}

// api returns the S3 client, building it on first use. The mutex makes the
// lazy init single-flight.
func (t *S3Target) api(ctx context.Context) (s3API, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		return t.client, nil
	}

	client, err := t.build(ctx)
	if err != nil {
		return nil, err
	}
	t.client = client
	return t.client, nil
}

func (t *S3Target) buildClient(ctx context.Context) (s3API, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(t.region)}
	if t.accessKeyID != "" && t.secretAccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(t.accessKeyID, t.secretAccessKey, "")))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("aws credentials: %w", err)
	}

	return s3.NewFromConfig(cfg), nil
}

// Publish uploads every file under the project id prefix and reports the
// bucket website URL.
func (t *S3Target) Publish(ctx context.Context, files map[string][]byte, opts PublishOptions) (domain.DeploymentRecord, error) {
	record := domain.DeploymentRecord{
		Provider:  domain.ProviderS3,
		Timestamp: time.Now().UTC(),
		Status:    domain.DeploymentFailed,
	}

	client, err := t.api(ctx)
	if err != nil {
		return record, fmt.Errorf("s3 target not available: %w", err)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		key := opts.ProjectID + "/" + strings.TrimPrefix(p, "/")
		contentType := mime.TypeByExtension(path.Ext(p))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(t.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(files[p]),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return record, fmt.Errorf("s3 put %s: %w", key, err)
		}
	}

	record.URL = fmt.Sprintf("http://%s.s3-website-%s.amazonaws.com/%s/", t.bucket, t.region, opts.ProjectID)
	record.Status = domain.DeploymentSuccess
	return record, nil
}
