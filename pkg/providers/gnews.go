package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

const gnewsBaseURL = "https://gnews.io/api/v4"

var gnewsTopics = map[string]bool{
	"general": true, "world": true, "nation": true, "business": true, "technology": true,
	"entertainment": true, "sports": true, "science": true, "health": true,
}

type gnewsResponse struct {
	Errors   []string `json:"errors"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

type gnewsFetcher struct {
	client HTTPClient
	now    func() time.Time
}

// NewGNewsFetcher reads gnews.io top headlines.
func NewGNewsFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &gnewsFetcher{client: client, now: time.Now}
}

func (f *gnewsFetcher) ID() string { return ProviderTypeGNews }

func (f *gnewsFetcher) Fetch(ctx context.Context, cfg Provider, category string) ([]domain.TopicRecord, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.ID, errMissingAPIKey)
	}

	q := url.Values{}
	q.Set("token", cfg.APIKey)
	q.Set("lang", cfg.language())
	q.Set("max", strconv.Itoa(cfg.limit()))
	q.Set("sortby", "publishedAt")
	topic := apiCategory(category, gnewsTopics)
	if topic != "" {
		q.Set("topic", topic)
	}

	var resp gnewsResponse
	if err := getJSON(ctx, f.client, cfg, gnewsBaseURL, "/top-headlines", q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("%s: %s", cfg.ID, strings.Join(resp.Errors, "; "))
	}

	items := make([]apiRecord, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		items = append(items, apiRecord{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			ImageURL:    a.Image,
			Source:      a.Source.Name,
			Category:    topic,
			Published:   a.PublishedAt,
		})
	}
	return toRecords(cfg, items, f.now()), nil
}
