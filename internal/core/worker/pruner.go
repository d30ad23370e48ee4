package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/sitewatch/internal/infra/storage"
)

// Pruner deletes archived alerts past the retention period.
type Pruner struct {
	siteIDs   []string
	retention time.Duration
	repo      storage.AlertRepository
	log       *slog.Logger
}

// NewPruner creates a new Pruner worker.
func NewPruner(siteIDs []string, retention time.Duration, repo storage.AlertRepository, log *slog.Logger) *Pruner {
	if log == nil {
		log = slog.Default()
	}
	return &Pruner{
		siteIDs:   siteIDs,
		retention: retention,
		repo:      repo,
		log:       log,
	}
}

// Start runs the pruner loop.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check at roughly 10% of the retention period, bounded to [1m, 1h].
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	for _, siteID := range p.siteIDs {
		n, err := p.repo.DeleteOlderThan(ctx, siteID, cutoff)
		if err != nil {
			p.log.Error("failed to prune alerts", "site", siteID, "error", err)
			continue
		}
		if n > 0 {
			p.log.Info("pruned archived alerts", "site", siteID, "removed", n)
		}
	}
}
