package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pom-bolt/pombolt-backend/config"
	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestResolver(t *testing.T) {
	env := EnvSource{Lookup: envMap(map[string]string{
		"CLOUDFLARE_ACCOUNT_ID": "env-account",
		"CLOUDFLARE_API_TOKEN":  "env-token",
	})}
	cfg := ConfigSource{Config: config.DeployConfig{
		CloudflareAccountID: "cfg-account",
		CloudflareAPIToken:  "cfg-token",
		NetlifyAPIToken:     "cfg-netlify",
	}}
	resolver := NewResolver(env, cfg)

	t.Run("explicit credentials win over everything", func(t *testing.T) {
		explicit := &Credentials{AccountID: "req-account", APIToken: "req-token"}
		creds := resolver.ResolveWith(explicit, domain.ProviderCloudflare)
		assert.Equal(t, "req-account", creds.AccountID)
		assert.Equal(t, "req-token", creds.APIToken)
	})

	t.Run("environment wins over config", func(t *testing.T) {
		creds := resolver.ResolveWith(nil, domain.ProviderCloudflare)
		assert.Equal(t, "env-account", creds.AccountID)
	})

	t.Run("config serves providers the environment misses", func(t *testing.T) {
		creds := resolver.Resolve(domain.ProviderNetlify)
		assert.Equal(t, "cfg-netlify", creds.APIToken)
	})

	t.Run("absence is a normal outcome, not an error", func(t *testing.T) {
		empty := NewResolver(EnvSource{Lookup: envMap(nil)}, ConfigSource{})
		creds := empty.Resolve(domain.ProviderCloudflare)
		assert.True(t, creds.Empty())
	})

	t.Run("unknown provider resolves to nothing", func(t *testing.T) {
		creds := resolver.Resolve(domain.ProviderLocal)
		assert.True(t, creds.Empty())
	})
}
