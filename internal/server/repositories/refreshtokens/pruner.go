package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// Pruner periodically removes expired ledger entries from stores that have
// no native TTL support.
type Pruner struct {
	repo     Repository
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

func NewPruner(repo Repository, interval time.Duration, l logging.Logger) *Pruner {
	return &Pruner{repo: repo, interval: interval, logger: l.With("module", "ledger_pruner"), now: time.Now}
}

// PruneOnce deletes everything expired at the current time.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	n, err := p.repo.DeleteExpired(ctx, p.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.logger.Debug(ctx, "pruned expired refresh tokens", "count", n)
	}
	return n, nil
}

// Run prunes every interval until ctx is cancelled.
func (p *Pruner) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := p.PruneOnce(ctx); err != nil {
				p.logger.Error(ctx, "prune failed", "error", err)
			}
		}
	}
}
