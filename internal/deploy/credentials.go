package deploy

import (
	"os"

	"github.com/pom-bolt/pombolt-backend/config"
	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
)

// CredentialSource yields credentials for a provider, reporting whether it
// had anything to offer. Sources never fail; absence is a normal outcome.
type CredentialSource interface {
	Resolve(provider domain.Provider) (Credentials, bool)
}

// Resolver walks an explicit, ordered list of typed credential sources and
// short-circuits at the first hit. There is no structural probing of untyped
// context objects: every source knows exactly where its values live.
type Resolver struct {
	sources []CredentialSource
}

// NewResolver builds a resolver over the given sources, highest priority
// first.
func NewResolver(sources ...CredentialSource) *Resolver {
	return &Resolver{sources: sources}
}

// DefaultResolver resolves from process environment variables first, then the
// typed deploy config. Explicit request credentials are prepended per call via
// ResolveWith.
func DefaultResolver(cfg config.DeployConfig) *Resolver {
	return NewResolver(EnvSource{Lookup: os.Getenv}, ConfigSource{Config: cfg})
}

// Resolve returns the first non-empty credentials for the provider, or zero
// credentials when every source comes up empty.
func (r *Resolver) Resolve(provider domain.Provider) Credentials {
	for _, source := range r.sources {
		if creds, ok := source.Resolve(provider); ok {
			return creds
		}
	}
	return Credentials{}
}

// ResolveWith gives request-supplied credentials priority over the configured
// sources.
func (r *Resolver) ResolveWith(explicit *Credentials, provider domain.Provider) Credentials {
	if explicit != nil && !explicit.Empty() {
		return *explicit
	}
	return r.Resolve(provider)
}

// EnvSource reads provider credentials from environment-style variables.
type EnvSource struct {
	Lookup func(key string) string
}

func (s EnvSource) Resolve(provider domain.Provider) (Credentials, bool) {
	var creds Credentials
	switch provider {
	case domain.ProviderCloudflare:
		creds = Credentials{
			AccountID: s.Lookup("CLOUDFLARE_ACCOUNT_ID"),
			APIToken:  s.Lookup("CLOUDFLARE_API_TOKEN"),
		}
	case domain.ProviderNetlify:
		creds = Credentials{APIToken: s.Lookup("NETLIFY_AUTH_TOKEN")}
	}
	return creds, !creds.Empty()
}

// ConfigSource reads provider credentials from the typed deploy config.
type ConfigSource struct {
	Config config.DeployConfig
}

func (s ConfigSource) Resolve(provider domain.Provider) (Credentials, bool) {
	var creds Credentials
	switch provider {
	case domain.ProviderCloudflare:
		creds = Credentials{
			AccountID: s.Config.CloudflareAccountID,
			APIToken:  s.Config.CloudflareAPIToken,
		}
	case domain.ProviderNetlify:
		creds = Credentials{APIToken: s.Config.NetlifyAPIToken}
	}
	return creds, !creds.Empty()
}
