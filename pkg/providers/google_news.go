package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

// maxSitemapDepth bounds index recursion.
const maxSitemapDepth = 3

type googleNewsFetcher struct {
	client HTTPClient
}

// NewGoogleNewsFetcher reads Google News sitemaps, following sitemap indexes.
func NewGoogleNewsFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &googleNewsFetcher{client: client}
}

func (f *googleNewsFetcher) ID() string { return ProviderTypeGoogleNews }

// Fetch ignores category; a sitemap is already scoped by the publisher.
func (f *googleNewsFetcher) Fetch(ctx context.Context, cfg Provider, _ string) ([]domain.TopicRecord, error) {
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	urls, err := f.collect(ctx, cfg, cfg.SourceURL, Headers(cfg), make(map[string]struct{}), 0)
	if err != nil {
		return nil, err
	}

	records := make([]domain.TopicRecord, 0, len(urls))
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		title := strings.TrimSpace(entry.News.Title)
		if loc == "" || title == "" {
			continue
		}
		records = append(records, domain.TopicRecord{
			ID:          hashKey(loc),
			Title:       title,
			SourceName:  firstNonEmpty(entry.News.Publication.Name, cfg.ID),
			SourceURL:   loc,
			ImageURL:    firstImageURL(entry.Images),
			Keywords:    splitKeywords(entry.News.Keywords),
			PublishedAt: parsePublished(entry.News.PublicationDate),
			ProviderID:  cfg.ID,
		})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s sitemap returned no records", cfg.ID)
	}
	return records, nil
}

func (f *googleNewsFetcher) collect(ctx context.Context, cfg Provider, url string, headers map[string]string, visited map[string]struct{}, depth int) ([]newsSitemapURL, error) {
	if _, seen := visited[url]; seen || depth > maxSitemapDepth {
		return nil, nil
	}
	visited[url] = struct{}{}

	raw, err := fetchBody(ctx, f.client, url, cfg.ID, headers)
	if err != nil {
		return nil, err
	}

	urls, err := parseNewsSitemap(raw)
	if err != nil {
		return nil, fmt.Errorf("decode news sitemap: %w", err)
	}
	if len(urls) > 0 {
		return urls, nil
	}

	nested, err := parseSitemapIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("decode sitemap index: %w", err)
	}

	var all []newsSitemapURL
	for _, loc := range nested {
		got, err := f.collect(ctx, cfg, loc, headers, visited, depth+1)
		if err != nil {
			return nil, err
		}
		all = append(all, got...)
	}
	return all, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
