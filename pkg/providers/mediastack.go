package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

const mediastackBaseURL = "http://api.mediastack.com/v1"

type mediastackResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		Source      string `json:"source"`
		Category    string `json:"category"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
}

type mediastackFetcher struct {
	client HTTPClient
	now    func() time.Time
}

// NewMediastackFetcher reads mediastack live news.
func NewMediastackFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &mediastackFetcher{client: client, now: time.Now}
}

func (f *mediastackFetcher) ID() string { return ProviderTypeMediastack }

func (f *mediastackFetcher) Fetch(ctx context.Context, cfg Provider, category string) ([]domain.TopicRecord, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.ID, errMissingAPIKey)
	}

	q := url.Values{}
	q.Set("access_key", cfg.APIKey)
	q.Set("languages", cfg.language())
	q.Set("limit", strconv.Itoa(cfg.limit()))
	q.Set("sort", "published_desc")
	if c := apiCategory(category, headlineCategories); c != "" {
		q.Set("categories", c)
	}

	var resp mediastackResponse
	if err := getJSON(ctx, f.client, cfg, mediastackBaseURL, "/news", q, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s: %s: %s", cfg.ID, resp.Error.Code, resp.Error.Message)
	}

	items := make([]apiRecord, 0, len(resp.Data))
	for _, a := range resp.Data {
		items = append(items, apiRecord{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			ImageURL:    a.Image,
			Source:      a.Source,
			Category:    a.Category,
			Published:   a.PublishedAt,
		})
	}
	return toRecords(cfg, items, f.now()), nil
}
