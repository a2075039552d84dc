package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
	"PackCurator/internal/source"
)

const (
	defaultBaseURL = "https://api.modrinth.com/v2"
	defaultLimit   = 10
	searchPageSize = 50
	maxGalleryURLs = 3
	maxVersionRecs = 5
	userAgent      = "PackCurator/1.0"
)

// Client searches Modrinth for recently updated modpacks, skipping packs
// already present in the dedup store before paying for the per-project
// detail, version, and gallery lookups.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	dedup   ports.DedupStore
	logger  *slog.Logger
}

var _ source.Strategy = (*Client)(nil)

// NewClient wires an HTTP client; nil falls back to a 30s-timeout default.
func NewClient(client *http.Client, dedup ports.DedupStore, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: defaultBaseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		dedup:   dedup,
		logger:  logger,
	}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return "modrinth"
}

type searchHit struct {
	ProjectID   string   `json:"project_id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IconURL     string   `json:"icon_url"`
	Categories  []string `json:"categories"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type versionRecord struct {
	GameVersions []string `json:"game_versions"`
	Loaders      []string `json:"loaders"`
}

type galleryItem struct {
	URL string `json:"url"`
}

// Search walks the recently-updated modpack listing and returns up to
// req.Limit packs not yet marked in the dedup store, each enriched with
// version and gallery data.
func (c *Client) Search(ctx context.Context, req source.Request) ([]domain.Pack, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	params := url.Values{}
	params.Set("query", "")
	params.Set("facets", `[["project_type:modpack"]]`)
	params.Set("sort", "updated")
	params.Set("limit", fmt.Sprint(searchPageSize))

	var resp searchResponse
	if err := c.get(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search modpacks: %w", err)
	}

	packs := make([]domain.Pack, 0, limit)
	for _, hit := range resp.Hits {
		uid := fmt.Sprintf("modrinth:%s", hit.Slug)
		if c.dedup != nil && c.dedup.IsMarked(ctx, uid) {
			continue
		}

		pack, err := c.buildPack(ctx, hit)
		if err != nil {
			c.debug("skip pack", "slug", hit.Slug, "error", err)
			continue
		}

		packs = append(packs, pack)
		if len(packs) >= limit {
			break
		}
	}

	c.info("modrinth search done", "new_packs", len(packs))
	return packs, nil
}

func (c *Client) buildPack(ctx context.Context, hit searchHit) (domain.Pack, error) {
	versions, err := c.versions(ctx, hit.ProjectID)
	if err != nil {
		return domain.Pack{}, err
	}

	gameVersions := map[string]struct{}{}
	loaders := map[string]struct{}{}
	for i, ver := range versions {
		if i >= maxVersionRecs {
			break
		}
		for _, gv := range ver.GameVersions {
			gameVersions[gv] = struct{}{}
		}
		for _, loader := range ver.Loaders {
			loaders[loader] = struct{}{}
		}
	}

	gallery := c.gallery(ctx, hit.ProjectID)

	return domain.Pack{
		Slug:         hit.Slug,
		Platform:     "modrinth",
		ProjectID:    hit.ProjectID,
		Title:        hit.Title,
		Description:  hit.Description,
		GameVersions: topVersions(gameVersions, 3),
		IconURL:      hit.IconURL,
		GalleryURLs:  gallery,
		DownloadURL:  fmt.Sprintf("https://modrinth.com/modpack/%s", hit.Slug),
		Categories:   hit.Categories,
		Loaders:      sortedKeys(loaders),
		VersionsInfo: fmt.Sprintf("Versions: %s", topVersions(gameVersions, 3)),
	}, nil
}

func (c *Client) versions(ctx context.Context, projectID string) ([]versionRecord, error) {
	var records []versionRecord
	if err := c.get(ctx, "/project/"+projectID+"/version", &records); err != nil {
		return nil, fmt.Errorf("project versions: %w", err)
	}
	return records, nil
}

// gallery returns up to three screenshot URLs; a missing gallery is not an
// error, just an empty list.
func (c *Client) gallery(ctx context.Context, projectID string) []string {
	var items []galleryItem
	if err := c.get(ctx, "/project/"+projectID+"/gallery", &items); err != nil {
		c.debug("gallery unavailable", "project", projectID, "error", err)
		return nil
	}

	urls := make([]string, 0, maxGalleryURLs)
	for _, item := range items {
		urls = append(urls, item.URL)
		if len(urls) >= maxGalleryURLs {
			break
		}
	}
	return urls
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("modrinth returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func topVersions(set map[string]struct{}, n int) string {
	keys := sortedKeys(set)
	// Newest game versions sort last lexicographically often enough for
	// display purposes; take from the tail.
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return strings.Join(keys, ", ")
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Client) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
