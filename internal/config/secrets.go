// internal/config/secrets.go
//
// Vault reference resolution.
//
// Context
// -------
// A secret value of the form
//
//	vault:<mount>/<path>#<key>      e.g. vault:secret/contact#csrf_key
//
// is replaced by the string stored under <key> in that KV-v2 secret.  The
// Vault client is only built when at least one reference is present, so a
// plain-text deployment never needs VAULT_ADDR.
//
// Notes
// -----
//   • newResolver is a package variable so tests can swap in a fake.
//   • Oxford commas, two spaces after periods.

package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/contactform/internal/vault"
)

const vaultPrefix = "vault:"

// SecretResolver fetches one key from a KV-v2 secret.
type SecretResolver interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

var newResolver = func(ctx context.Context) (SecretResolver, error) {
	return vault.New(ctx, zap.S().Debugf)
}

// resolveSecrets swaps every vault: reference in cfg for its value.
func resolveSecrets(ctx context.Context, cfg *Config) error {
	refs := []*string{&cfg.Security.CSRFKey, &cfg.Security.SessionKey}

	var res SecretResolver
	for _, p := range refs {
		if !strings.HasPrefix(*p, vaultPrefix) {
			continue
		}
		if res == nil {
			r, err := newResolver(ctx)
			if err != nil {
				return fmt.Errorf("vault client: %w", err)
			}
			res = r
		}

		path, key, ok := strings.Cut(strings.TrimPrefix(*p, vaultPrefix), "#")
		if !ok || path == "" || key == "" {
			return fmt.Errorf("malformed vault reference %q, want vault:<path>#<key>", *p)
		}
		val, err := res.GetKV(ctx, path, key, 0)
		if err != nil {
			return fmt.Errorf("resolve %s#%s: %w", path, key, err)
		}
		*p = val
	}
	return nil
}
