package gallery

import (
	"strings"
	"testing"

	"blockgallery/internal/graph"
)

func TestExtractTwoImagesWithDefaultAlt(t *testing.T) {
	block := graph.Block{
		UID:       "abc",
		Text:      "See this: ![cat](http://x.com/cat.png) and ![](http://x.com/dog.jpg)",
		PageTitle: "Pets",
	}
	res := Extract(block)
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(res.Records))
	}
	if res.Records[0].URL != "http://x.com/cat.png" || res.Records[0].AltText != "cat" {
		t.Fatalf("unexpected first record %+v", res.Records[0])
	}
	if res.Records[1].URL != "http://x.com/dog.jpg" || res.Records[1].AltText != "Image" {
		t.Fatalf("unexpected second record %+v", res.Records[1])
	}
	for i, rec := range res.Records {
		if rec.SourceBlockID != "abc" {
			t.Fatalf("record %d: expected block id abc, got %q", i, rec.SourceBlockID)
		}
		if rec.Enriched || rec.ParentText != "" || rec.ChildrenText != "" || rec.SiblingsText != "" {
			t.Fatalf("record %d: expected empty context, got %+v", i, rec)
		}
	}
	if res.Records[0].ID == res.Records[1].ID {
		t.Fatalf("expected distinct record ids, got %q twice", res.Records[0].ID)
	}
	if res.Skipped != 0 {
		t.Fatalf("expected nothing skipped, got %d", res.Skipped)
	}
}

func TestExtractExcludesDeniedDomain(t *testing.T) {
	res := Extract(graph.Block{UID: "b", Text: "![wx](https://mmbiz.qpic.cn/abc/640?wx_fmt=png)"})
	if len(res.Records) != 0 {
		t.Fatalf("expected denied domain to be excluded, got %+v", res.Records)
	}
	if res.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", res.Skipped)
	}
}

func TestExtractKeepsOrderTrimsAndDuplicates(t *testing.T) {
	text := strings.Join([]string{
		"![one](  http://a/1.png  )",
		"text ![two](http://a/2.png) ![one again](http://a/1.png)",
		"![blank]( )",
		"![broken](http://a/3.png",
		"[not an image](http://a/4.png)",
	}, "\n")
	res := Extract(graph.Block{UID: "u", Text: text, PageTitle: "P"})
	want := []string{"http://a/1.png", "http://a/2.png", "http://a/1.png"}
	if len(res.Records) != len(want) {
		t.Fatalf("expected %d records, got %+v", len(want), res.Records)
	}
	for i, url := range want {
		if res.Records[i].URL != url {
			t.Fatalf("record %d: expected %q, got %q", i, url, res.Records[i].URL)
		}
	}
	if res.Skipped != 1 {
		t.Fatalf("expected the blank url to be counted as skipped, got %d", res.Skipped)
	}
}

func TestExtractDefaultsPageTitleAndCorpus(t *testing.T) {
	created := int64(42)
	res := Extract(graph.Block{UID: "u", Text: "![Sunset](http://a/s.png) at the BEACH", CreatedAt: &created})
	if len(res.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(res.Records))
	}
	rec := res.Records[0]
	if rec.PageTitle != DefaultPageTitle {
		t.Fatalf("expected default page title, got %q", rec.PageTitle)
	}
	if rec.CreatedAt == nil || *rec.CreatedAt != 42 {
		t.Fatalf("expected created at 42, got %v", rec.CreatedAt)
	}
	if !strings.Contains(rec.SearchCorpus, "beach") || !strings.Contains(rec.SearchCorpus, "sunset") {
		t.Fatalf("expected lowercase corpus, got %q", rec.SearchCorpus)
	}
}

func TestExtractNoMarkers(t *testing.T) {
	res := Extract(graph.Block{UID: "u", Text: "plain ![ text"})
	if len(res.Records) != 0 || res.Skipped != 0 {
		t.Fatalf("expected nothing, got %+v", res)
	}
}
