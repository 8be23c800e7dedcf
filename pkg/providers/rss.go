package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

const itemsPerFeed = 5

// DefaultFeeds lists the fallback feeds by category; unknown categories use "general".
var DefaultFeeds = map[string][]string{
	"general": {
		"http://rss.cnn.com/rss/cnn_topstories.rss",
		"http://feeds.bbci.co.uk/news/rss.xml",
	},
	"technology": {
		"http://feeds.feedburner.com/TechCrunch",
		"https://www.wired.com/feed/rss",
	},
	"business": {
		"http://feeds.reuters.com/reuters/businessNews",
		"http://feeds.marketwatch.com/marketwatch/topstories/",
	},
	"science": {
		"http://feeds.sciencedaily.com/sciencedaily",
		"https://www.sciencemag.org/rss/news_current.xml",
	},
	"health": {
		"http://rssfeeds.webmd.com/rss/rss.aspx?RSSSource=RSS_PUBLIC",
		"https://www.medicalnewstoday.com/newsfeeds-rss",
	},
	"politics": {
		"http://feeds.washingtonpost.com/rss/politics",
		"http://rss.politico.com/politics-news.xml",
	},
}

type rssFetcher struct {
	client HTTPClient
	parser *gofeed.Parser
}

// NewRSSFetcher reads RSS/Atom feeds. Bodies are fetched with client and parsed by gofeed.
func NewRSSFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &rssFetcher{client: client, parser: gofeed.NewParser()}
}

func (f *rssFetcher) ID() string { return ProviderTypeRSS }

// Fetch reads up to five items per feed. A failing feed is skipped; the call errors only when every feed failed.
func (f *rssFetcher) Fetch(ctx context.Context, cfg Provider, category string) ([]domain.TopicRecord, error) {
	feeds := feedsFor(cfg, category)
	headers := Headers(cfg)

	var (
		records []domain.TopicRecord
		lastErr error
		okFeeds int
	)
	for _, feedURL := range feeds {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}
		items, err := f.fetchFeed(ctx, cfg, feedURL, category, headers)
		if err != nil {
			lastErr = err
			continue
		}
		okFeeds++
		records = append(records, items...)
	}
	if okFeeds == 0 && lastErr != nil {
		return nil, lastErr
	}
	return records, nil
}

func (f *rssFetcher) fetchFeed(ctx context.Context, cfg Provider, feedURL, category string, headers map[string]string) ([]domain.TopicRecord, error) {
	body, err := fetchBody(ctx, f.client, feedURL, cfg.ID, headers)
	if err != nil {
		return nil, err
	}
	feed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	n := min(len(feed.Items), itemsPerFeed)
	out := make([]domain.TopicRecord, 0, n)
	for _, item := range feed.Items[:n] {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		rec := domain.TopicRecord{
			ID:          hashKey(firstNonEmpty(item.Link, title)),
			Title:       title,
			Description: strings.TrimSpace(item.Description),
			Content:     item.Content,
			SourceName:  strings.TrimSpace(feed.Title),
			SourceURL:   strings.TrimSpace(item.Link),
			Category:    category,
			Facts:       ExtractFacts(item.Content),
			ProviderID:  cfg.ID,
		}
		if item.Image != nil {
			rec.ImageURL = item.Image.URL
		}
		switch {
		case item.PublishedParsed != nil:
			rec.PublishedAt = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			rec.PublishedAt = *item.UpdatedParsed
		}
		out = append(out, rec)
	}
	return out, nil
}

func feedsFor(cfg Provider, category string) []string {
	if len(cfg.Feeds) > 0 {
		return cfg.Feeds
	}
	if feeds, ok := DefaultFeeds[strings.ToLower(strings.TrimSpace(category))]; ok {
		return feeds
	}
	return DefaultFeeds["general"]
}
