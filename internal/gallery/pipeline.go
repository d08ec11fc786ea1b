package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"blockgallery/internal/graph"
)

const (
	DefaultVisibleBatch = 50
	DefaultBatchSize    = 50
	DefaultYield        = 10 * time.Millisecond
	defaultConcurrency  = 8
)

// Pipeline discovers images in two phases: a cheap identifier scan, then
// hydration of the identifiers in batches, newest blocks first.
type Pipeline struct {
	Graph        graph.Querier
	VisibleBatch int
	BatchSize    int
	Yield        time.Duration
	Concurrency  int
}

// Batch is one hydrated slice of the scan. Index 0 is the visible batch.
type Batch struct {
	Index    int
	Records  []ImageRecord
	Hydrated int
	Total    int
	Skipped  int
	Failed   int
	Final    bool
}

type HydrateStats struct {
	Blocks  int
	Failed  int
	Skipped int
}

// Scan returns every block that may hold an image, newest first. Blocks with
// no creation time sort last; ties keep the host's order.
func (p *Pipeline) Scan(ctx context.Context) ([]graph.BlockStamp, error) {
	start := time.Now()
	stamps, err := p.Graph.ScanImageBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan image blocks: %w", err)
	}
	stamps = slices.Clone(stamps)
	slices.SortStableFunc(stamps, func(a, b graph.BlockStamp) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
	slog.Debug("identifier scan", "blocks", len(stamps), "duration_ms", time.Since(start).Milliseconds())
	return stamps, nil
}

// Hydrate fetches each block and extracts its images. Blocks are fetched
// concurrently but records come back in uid order. A failing block is logged
// and left out.
func (p *Pipeline) Hydrate(ctx context.Context, uids []string) ([]ImageRecord, HydrateStats) {
	stats := HydrateStats{Blocks: len(uids)}
	results := make([]ExtractResult, len(uids))
	failed := make([]bool, len(uids))

	var g errgroup.Group
	g.SetLimit(p.concurrency())
	for i, uid := range uids {
		g.Go(func() error {
			block, err := p.Graph.Block(ctx, uid)
			if err != nil {
				slog.Warn("hydrate block", "uid", uid, "err", err)
				failed[i] = true
				return nil
			}
			block.UID = uid
			results[i] = Extract(block)
			return nil
		})
	}
	_ = g.Wait()

	var records []ImageRecord
	for i, res := range results {
		if failed[i] {
			stats.Failed++
			continue
		}
		stats.Skipped += res.Skipped
		records = append(records, res.Records...)
	}
	return records, stats
}

// Run hydrates stamps batch by batch and hands each batch to onBatch before
// starting the next one. It yields between batches and stops early only when
// ctx is done.
func (p *Pipeline) Run(ctx context.Context, stamps []graph.BlockStamp, onBatch func(Batch)) error {
	uids := make([]string, len(stamps))
	for i, s := range stamps {
		uids[i] = s.UID
	}
	bounds := p.batchBounds(len(uids))
	hydrated := 0
	for i, b := range bounds {
		if i > 0 && p.Yield > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Yield):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		records, stats := p.Hydrate(ctx, uids[b[0]:b[1]])
		hydrated = b[1]
		slog.Debug("hydrate batch", "batch", i, "blocks", stats.Blocks, "images", len(records), "failed", stats.Failed, "skipped", stats.Skipped)
		onBatch(Batch{
			Index:    i,
			Records:  records,
			Hydrated: hydrated,
			Total:    len(uids),
			Skipped:  stats.Skipped,
			Failed:   stats.Failed,
			Final:    i == len(bounds)-1,
		})
	}
	return nil
}

func (p *Pipeline) batchBounds(n int) [][2]int {
	if n == 0 {
		return nil
	}
	visible := p.VisibleBatch
	if visible <= 0 {
		visible = DefaultVisibleBatch
	}
	size := p.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	first := min(visible, n)
	bounds := [][2]int{{0, first}}
	for start := first; start < n; start += size {
		bounds = append(bounds, [2]int{start, min(start+size, n)})
	}
	return bounds
}

func (p *Pipeline) concurrency() int {
	if p.Concurrency <= 0 {
		return defaultConcurrency
	}
	return p.Concurrency
}
