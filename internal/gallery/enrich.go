package gallery

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"blockgallery/internal/graph"
)

const DefaultEnrichBatch = 10

// Enricher adds neighbouring block text to records so search can match on
// it. Batches run one after another; lookups inside a batch run together.
type Enricher struct {
	Graph     graph.Querier
	BatchSize int
}

// Run enriches every pending record of c and reports progress after each
// batch. A failed lookup leaves the context empty but still marks the record
// enriched so it is not retried.
func (e *Enricher) Run(ctx context.Context, c *Collection, progress func(done, total int)) error {
	pending := c.Pending()
	total := len(pending)
	size := e.BatchSize
	if size <= 0 {
		size = DefaultEnrichBatch
	}
	for start := 0; start < total; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, total)
		batch := pending[start:end]

		var mu sync.Mutex
		byBlock := make(map[string]graph.Neighborhood, len(batch))
		var g errgroup.Group
		// One lookup per block even when a block holds several images.
		seen := make(map[string]bool, len(batch))
		for _, rec := range batch {
			uid := rec.SourceBlockID
			if seen[uid] {
				continue
			}
			seen[uid] = true
			g.Go(func() error {
				n, err := e.Graph.Neighborhood(ctx, uid)
				if err != nil {
					slog.Warn("enrich block", "uid", uid, "err", err)
					n = graph.Neighborhood{}
				}
				mu.Lock()
				byBlock[uid] = n
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		byID := make(map[string]graph.Neighborhood, len(batch))
		for _, rec := range batch {
			byID[rec.ID] = byBlock[rec.SourceBlockID]
		}
		c.ApplyNeighborhoods(byID)
		if progress != nil {
			progress(end, total)
		}
	}
	return nil
}
