package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an operation references a project id
	// absent from the store.
	ErrNotFound = errors.New("project not found")
	// ErrInvalidProjectID is returned for identifiers that are not
	// canonical lowercase UUIDs. Rejected before any I/O.
	ErrInvalidProjectID = errors.New("invalid project id")
)

// Project is the top-level persisted entity representing one user workspace.
// It is storage-agnostic and crosses the repository, sync, and HTTP layers.
type Project struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Metadata     map[string]string  `json:"metadata,omitempty"`
	Files        []ProjectFile      `json:"files"`
	Requirements []RequirementEntry `json:"requirements"`
	Deployments  []DeploymentRecord `json:"deployments"`
}

// ProjectFile is one path+content unit within a project. Files are never
// physically removed; deletion sets the IsDeleted tombstone so sync
// reconciliation and history keep working.
type ProjectFile struct {
	Path      string    `json:"path"`
	Content   []byte    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsDeleted bool      `json:"is_deleted"`
}

// RequirementEntry records one statement of user intent. Immutable once
// appended.
type RequirementEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// DeploymentStatus is the outcome of one publish attempt.
type DeploymentStatus string

const (
	DeploymentPending DeploymentStatus = "pending"
	DeploymentSuccess DeploymentStatus = "success"
	DeploymentFailed  DeploymentStatus = "failed"
)

// Provider identifies which target published a deployment.
type Provider string

const (
	ProviderCloudflare Provider = "cloudflare-pages"
	ProviderNetlify    Provider = "netlify"
	ProviderS3         Provider = "s3"
	// ProviderLocal marks a deployment that fell back to a locally
	// retrievable archive because no remote target was usable.
	ProviderLocal Provider = "local"
)

// DeploymentRecord is an append-only record of one publish attempt.
type DeploymentRecord struct {
	URL       string           `json:"url"`
	Provider  Provider         `json:"provider"`
	Timestamp time.Time        `json:"timestamp"`
	Status    DeploymentStatus `json:"status"`
}

// NewProjectID returns a fresh canonical project identifier.
func NewProjectID() string {
	return uuid.NewString()
}

// ValidateProjectID rejects anything that is not a canonical lowercase
// 8-4-4-4-12 UUID. Legacy identifier formats are not recovered here; they are
// a migration concern, not a steady-state code path.
func ValidateProjectID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return ErrInvalidProjectID
	}
	return nil
}

// Touch refreshes UpdatedAt, keeping it monotonically non-decreasing.
func (p *Project) Touch(now time.Time) {
	if now.After(p.UpdatedAt) {
		p.UpdatedAt = now
	}
}

// File returns a pointer to the file at path, or nil if no entry exists.
func (p *Project) File(path string) *ProjectFile {
	for i := range p.Files {
		if p.Files[i].Path == path {
			return &p.Files[i]
		}
	}
	return nil
}

// ActiveFiles returns the non-tombstoned files, in stored order.
func (p *Project) ActiveFiles() []ProjectFile {
	out := make([]ProjectFile, 0, len(p.Files))
	for _, f := range p.Files {
		if !f.IsDeleted {
			out = append(out, f)
		}
	}
	return out
}
