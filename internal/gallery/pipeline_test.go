package gallery

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"blockgallery/internal/graph"
)

func TestPipelineScanNewestFirst(t *testing.T) {
	g := newFakeGraph()
	g.add("old", "![a](http://x/a.png)", "P", 10)
	g.add("none", "![b](http://x/b.png)", "P", 0)
	g.add("new", "![c](http://x/c.png)", "P", 30)
	g.add("mid", "![d](http://x/d.png)", "P", 20)

	p := &Pipeline{Graph: g}
	stamps, err := p.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var uids []string
	for _, s := range stamps {
		uids = append(uids, s.UID)
	}
	if !slices.Equal(uids, []string{"new", "mid", "old", "none"}) {
		t.Fatalf("unexpected order %v", uids)
	}
	if g.stamps[0].UID != "old" {
		t.Fatalf("scan reordered the host slice")
	}
}

func TestPipelineScanWrapsError(t *testing.T) {
	g := newFakeGraph()
	g.scanErr = fmt.Errorf("%w: offline", graph.ErrQuery)
	_, err := (&Pipeline{Graph: g}).Scan(context.Background())
	if !errors.Is(err, graph.ErrQuery) {
		t.Fatalf("expected ErrQuery, got %v", err)
	}
}

func TestPipelineHydrateOmitsFailedBlocks(t *testing.T) {
	g := newFakeGraph()
	g.add("a", "![a](http://x/a.png) ![a2](http://x/a2.png)", "P", 3)
	g.add("b", "![b](http://x/b.png)", "P", 2)
	g.add("c", "![c](https://mmbiz.qpic.cn/c.png)", "P", 1)
	g.failBlock["b"] = true

	records, stats := (&Pipeline{Graph: g, Concurrency: 2}).Hydrate(context.Background(), []string{"a", "b", "c", "missing"})
	if stats.Blocks != 4 || stats.Failed != 2 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(records) != 2 || records[0].ID != "a-0" || records[1].ID != "a-1" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestPipelineRunBatches(t *testing.T) {
	g := newFakeGraph()
	for i := range 120 {
		g.add(fmt.Sprintf("b%03d", i), fmt.Sprintf("![img %d](http://x/%d.png)", i, i), "P", int64(i+1))
	}
	p := &Pipeline{Graph: g, VisibleBatch: 50, BatchSize: 50}
	stamps, err := p.Scan(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var batches []Batch
	err = p.Run(context.Background(), stamps, func(b Batch) { batches = append(batches, b) })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	for i, want := range []struct{ records, hydrated int }{{50, 50}, {50, 100}, {20, 120}} {
		b := batches[i]
		if b.Index != i || len(b.Records) != want.records || b.Hydrated != want.hydrated || b.Total != 120 {
			t.Fatalf("batch %d: unexpected %+v", i, b)
		}
		if b.Final != (i == 2) {
			t.Fatalf("batch %d: final=%v", i, b.Final)
		}
	}
	if batches[0].Records[0].SourceBlockID != "b119" {
		t.Fatalf("expected newest block first, got %s", batches[0].Records[0].SourceBlockID)
	}
}

func TestPipelineRunStopsOnCancel(t *testing.T) {
	g := newFakeGraph()
	for i := range 10 {
		g.add(fmt.Sprintf("b%d", i), "![x](http://x/x.png)", "P", int64(i+1))
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{Graph: g, VisibleBatch: 2, BatchSize: 2, Yield: DefaultYield}
	stamps, _ := p.Scan(ctx)
	calls := 0
	err := p.Run(ctx, stamps, func(b Batch) {
		calls++
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single batch before cancel, got %d", calls)
	}
}

func TestBatchBounds(t *testing.T) {
	p := &Pipeline{VisibleBatch: 5, BatchSize: 3}
	got := p.batchBounds(12)
	want := [][2]int{{0, 5}, {5, 8}, {8, 11}, {11, 12}}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if p.batchBounds(0) != nil {
		t.Fatalf("expected no batches for an empty scan")
	}
	if got := p.batchBounds(3); !slices.Equal(got, [][2]int{{0, 3}}) {
		t.Fatalf("expected a single short batch, got %v", got)
	}
}
