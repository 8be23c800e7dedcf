package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

var errMissingAPIKey = errors.New("api key not configured")

// apiRecord is the common shape the JSON news APIs are mapped into.
type apiRecord struct {
	Title       string
	Description string
	Content     string
	URL         string
	ImageURL    string
	Source      string
	Category    string
	Published   string
}

// getJSON issues GET base+path?query and decodes the body into out.
func getJSON(ctx context.Context, client HTTPClient, cfg Provider, base, path string, query url.Values, out any) error {
	base = strings.TrimRight(firstNonEmpty(cfg.BaseURL, base), "/")
	endpoint := base + path + "?" + query.Encode()

	body, err := fetchBody(ctx, client, endpoint, cfg.ID, Headers(cfg))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", cfg.ID, err)
	}
	return nil
}

// toRecords keeps items published within the recency window and extracts facts.
// Items without a parseable timestamp are dropped.
func toRecords(cfg Provider, items []apiRecord, now time.Time) []domain.TopicRecord {
	cutoff := now.Add(-recencyWindow)
	out := make([]domain.TopicRecord, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		published := parsePublished(it.Published)
		if title == "" || published.IsZero() || published.Before(cutoff) {
			continue
		}
		factText := it.Content
		if strings.TrimSpace(factText) == "" {
			factText = it.Description
		}
		out = append(out, domain.TopicRecord{
			ID:          hashKey(firstNonEmpty(it.URL, title)),
			Title:       title,
			Description: strings.TrimSpace(it.Description),
			Content:     it.Content,
			SourceName:  strings.TrimSpace(it.Source),
			SourceURL:   strings.TrimSpace(it.URL),
			ImageURL:    strings.TrimSpace(it.ImageURL),
			Category:    it.Category,
			Facts:       ExtractFacts(factText),
			PublishedAt: published,
			ProviderID:  cfg.ID,
		})
	}
	return out
}

// apiCategory lower-cases category and keeps it only when the API accepts it.
func apiCategory(category string, accepted map[string]bool) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if accepted[c] {
		return c
	}
	return ""
}

var headlineCategories = map[string]bool{
	"business": true, "entertainment": true, "general": true, "health": true,
	"science": true, "sports": true, "technology": true,
}
