package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"PackCurator/internal/source"
)

const listingHTML = `
<html><body>
  <div class="project-card">
    <img src="/icons/berk.png">
    <a class="project-title" href="/packs/isle-of-berk">Isle of Berk</a>
    <p class="description">Dragons everywhere.</p>
    <span class="game-version">1.18.2</span>
    <span class="tag">Adventure</span>
    <span class="tag">Dragons</span>
  </div>
  <div class="project-card">
    <a class="project-title" href="/packs/ascendra?page=1">Ascendra</a>
    <p class="description">Magic meets technology.</p>
    <span class="tag">Magic</span>
  </div>
  <div class="project-card">
    <p class="description">Broken card without a title link.</p>
  </div>
</body></html>`

func TestSearchParsesListing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	sc := NewHTMLScanner(server.Client(), nil, nil)
	packs, err := sc.Search(context.Background(), source.Request{
		CatalogName: "example",
		Limit:       10,
		Options:     map[string]string{"url": server.URL + "/packs"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(packs) != 2 {
		t.Fatalf("expected 2 packs, got %d", len(packs))
	}

	first := packs[0]
	if first.Slug != "isle-of-berk" {
		t.Fatalf("unexpected slug: %s", first.Slug)
	}
	if first.Platform != "example" {
		t.Fatalf("platform must default to the catalog name, got %s", first.Platform)
	}
	if first.Title != "Isle of Berk" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Description != "Dragons everywhere." {
		t.Fatalf("unexpected description: %s", first.Description)
	}
	if first.GameVersions != "1.18.2" {
		t.Fatalf("unexpected game version: %s", first.GameVersions)
	}
	if len(first.Categories) != 2 || first.Categories[0] != "adventure" {
		t.Fatalf("unexpected categories: %v", first.Categories)
	}
	if first.IconURL != server.URL+"/icons/berk.png" {
		t.Fatalf("icon url must be resolved against the listing, got %s", first.IconURL)
	}
	if first.DownloadURL != server.URL+"/packs/isle-of-berk" {
		t.Fatalf("unexpected download url: %s", first.DownloadURL)
	}

	// Query strings are stripped from slugs.
	if packs[1].Slug != "ascendra" {
		t.Fatalf("unexpected second slug: %s", packs[1].Slug)
	}
}

func TestSearchRequiresListingURL(t *testing.T) {
	t.Parallel()

	sc := NewHTMLScanner(nil, nil, nil)
	if _, err := sc.Search(context.Background(), source.Request{CatalogName: "x"}); err == nil {
		t.Fatal("expected an error without a listing url")
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer server.Close()

	sc := NewHTMLScanner(server.Client(), nil, nil)
	packs, err := sc.Search(context.Background(), source.Request{
		CatalogName: "example",
		Limit:       1,
		Options:     map[string]string{"url": server.URL},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(packs) != 1 {
		t.Fatalf("expected 1 pack with limit 1, got %d", len(packs))
	}
}
