package deploy

import (
	"context"

	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
)

// Credentials carries the provider credentials the resolver produced. A zero
// value means nothing was found; that is a normal outcome, not an error.
type Credentials struct {
	AccountID string `json:"account_id,omitempty"`
	APIToken  string `json:"api_token,omitempty"`
}

// Empty reports whether no credential material is present.
func (c Credentials) Empty() bool {
	return c.AccountID == "" && c.APIToken == ""
}

// PublishOptions identifies the project being published and carries the
// credentials the manager resolved for this request.
type PublishOptions struct {
	ProjectName string
	ProjectID   string
	Credentials Credentials
}

// Target is one hosting provider adapter. IsAvailable must not error on
// missing credentials; it only reports whether the target can be used.
type Target interface {
	Name() domain.Provider
	IsAvailable(ctx context.Context, creds Credentials) bool
	Publish(ctx context.Context, files map[string][]byte, opts PublishOptions) (domain.DeploymentRecord, error)
}

// Registry holds provider adapters in a fixed priority order set at
// configuration time.
type Registry struct {
	order   []domain.Provider
	targets map[domain.Provider]Target
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[domain.Provider]Target)}
}

// Register appends a target; registration order is the deploy priority order.
func (r *Registry) Register(t Target) {
	name := t.Name()
	if _, ok := r.targets[name]; ok {
		return
	}
	r.order = append(r.order, name)
	r.targets[name] = t
}

// Target looks up an adapter by provider name.
func (r *Registry) Target(name domain.Provider) (Target, bool) {
	t, ok := r.targets[name]
	return t, ok
}

// Names returns the registered target identifiers in priority order.
func (r *Registry) Names() []domain.Provider {
	out := make([]domain.Provider, len(r.order))
	copy(out, r.order)
	return out
}
