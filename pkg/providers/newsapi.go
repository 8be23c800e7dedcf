package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

type newsAPIFetcher struct {
	client HTTPClient
	now    func() time.Time
}

// NewNewsAPIFetcher reads newsapi.org top headlines.
func NewNewsAPIFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &newsAPIFetcher{client: client, now: time.Now}
}

func (f *newsAPIFetcher) ID() string { return ProviderTypeNewsAPI }

func (f *newsAPIFetcher) Fetch(ctx context.Context, cfg Provider, category string) ([]domain.TopicRecord, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.ID, errMissingAPIKey)
	}

	q := url.Values{}
	q.Set("apiKey", cfg.APIKey)
	q.Set("language", cfg.language())
	q.Set("pageSize", strconv.Itoa(cfg.limit()))
	q.Set("sortBy", "publishedAt")
	if c := apiCategory(category, headlineCategories); c != "" {
		q.Set("category", c)
	}

	var resp newsAPIResponse
	if err := getJSON(ctx, f.client, cfg, newsAPIBaseURL, "/top-headlines", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("%s: %s: %s", cfg.ID, resp.Code, resp.Message)
	}

	items := make([]apiRecord, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		items = append(items, apiRecord{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			Source:      a.Source.Name,
			Published:   a.PublishedAt,
		})
	}
	return toRecords(cfg, items, f.now()), nil
}
