package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
	"PackCurator/internal/source"
)

// HTMLScanner extracts pack candidates from a catalog listing page. It
// covers catalogs without a JSON API: each listing entry is a project card
// with a title link, a short description, and category tags.
type HTMLScanner struct {
	client *http.Client
	dedup  ports.DedupStore
	logger *slog.Logger
}

var _ source.Strategy = (*HTMLScanner)(nil)

// NewHTMLScanner wires an HTTP client; nil falls back to a 20s default.
func NewHTMLScanner(client *http.Client, dedup ports.DedupStore, logger *slog.Logger) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLScanner{client: client, dedup: dedup, logger: logger}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Search fetches the listing page named by the "url" option and returns up
// to req.Limit packs not yet present in the dedup store.
func (h *HTMLScanner) Search(ctx context.Context, req source.Request) ([]domain.Pack, error) {
	listingURL := req.Options["url"]
	if listingURL == "" {
		return nil, fmt.Errorf("catalog %s: no listing url configured", req.CatalogName)
	}

	platform := req.Options["platform"]
	if platform == "" {
		platform = req.CatalogName
	}

	doc, err := h.fetchDocument(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", req.CatalogName, err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	var packs []domain.Pack
	doc.Find("div.project-card").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		pack, ok := h.parseCard(card, listingURL, platform)
		if !ok {
			return true
		}
		if h.dedup != nil && h.dedup.IsMarked(ctx, pack.UID()) {
			return true
		}

		packs = append(packs, pack)
		return len(packs) < limit
	})

	h.debug("html catalog scanned", "catalog", req.CatalogName, "packs", len(packs))
	return packs, nil
}

func (h *HTMLScanner) parseCard(card *goquery.Selection, base, platform string) (domain.Pack, bool) {
	link := card.Find("a.project-title").First()
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(link.Text()) == "" {
		return domain.Pack{}, false
	}

	downloadURL := resolveURL(base, href)
	slug := slugFromPath(href)
	if slug == "" {
		return domain.Pack{}, false
	}

	var categories []string
	card.Find("span.tag").Each(func(_ int, tag *goquery.Selection) {
		if text := strings.TrimSpace(tag.Text()); text != "" {
			categories = append(categories, strings.ToLower(text))
		}
	})

	iconURL := ""
	if src, ok := card.Find("img").First().Attr("src"); ok {
		iconURL = resolveURL(base, src)
	}

	return domain.Pack{
		Slug:         slug,
		Platform:     platform,
		Title:        strings.TrimSpace(link.Text()),
		Description:  strings.TrimSpace(card.Find("p.description").First().Text()),
		GameVersions: strings.TrimSpace(card.Find("span.game-version").First().Text()),
		IconURL:      iconURL,
		DownloadURL:  downloadURL,
		Categories:   categories,
	}, true
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "PackCurator/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func resolveURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func slugFromPath(href string) string {
	trimmed := strings.Trim(href, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	slug := parts[len(parts)-1]
	if i := strings.IndexAny(slug, "?#"); i >= 0 {
		slug = slug[:i]
	}
	return slug
}

func (h *HTMLScanner) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}
