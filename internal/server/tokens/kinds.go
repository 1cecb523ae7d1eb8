package tokens

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// KindConfig is the signing secret and default lifetime of one token kind.
type KindConfig struct {
	Secret   []byte
	Lifetime time.Duration
}

// Table maps every token kind to its secret and lifetime.
type Table map[models.TokenKind]KindConfig

// Validate requires every kind to be present with a non-empty secret and a
// positive lifetime, and no two kinds to share a secret.
func (t Table) Validate() error {
	seen := make(map[string]models.TokenKind, len(t))
	for _, kind := range models.TokenKinds {
		cfg, ok := t[kind]
		if !ok {
			return fmt.Errorf("no settings for %s tokens", kind)
		}
		if len(cfg.Secret) == 0 {
			return fmt.Errorf("empty secret for %s tokens", kind)
		}
		if cfg.Lifetime <= 0 {
			return fmt.Errorf("non-positive lifetime for %s tokens", kind)
		}
		if other, dup := seen[string(cfg.Secret)]; dup {
			return fmt.Errorf("%s and %s tokens share a secret", other, kind)
		}
		seen[string(cfg.Secret)] = kind
	}
	return nil
}
