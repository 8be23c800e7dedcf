// Package providers fetches real news items that ground article generation.
package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

// Provider types understood by the default registry.
const (
	ProviderTypeNewsAPI    = "newsapi"
	ProviderTypeGNews      = "gnews"
	ProviderTypeMediastack = "mediastack"
	ProviderTypeRSS        = "rss"
	ProviderTypeGoogleNews = "google-news"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; khobor-lekhok/1.0; +https://github.com/Adda-Baaj/khobor-lekhok)"
	defaultLimit     = 10
	recencyWindow    = 30 * 24 * time.Hour
)

// HTTPClient is the request surface fetchers need.
type HTTPClient = httpclient.Client

// Provider configures one news source.
type Provider struct {
	ID             string            `mapstructure:"id" yaml:"id"`
	Type           string            `mapstructure:"type" yaml:"type"`
	BaseURL        string            `mapstructure:"base_url" yaml:"base_url"`
	APIKey         string            `mapstructure:"api_key" yaml:"api_key"`
	SourceURL      string            `mapstructure:"source_url" yaml:"source_url"`
	Feeds          []string          `mapstructure:"feeds" yaml:"feeds"`
	Language       string            `mapstructure:"language" yaml:"language"`
	Limit          int               `mapstructure:"limit" yaml:"limit"`
	Headers        map[string]string `mapstructure:"headers" yaml:"headers"`
	RequestDelayMs int               `mapstructure:"request_delay_ms" yaml:"request_delay_ms"`
}

// RequestDelay is the pause between page requests made on behalf of this provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return 0
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}

func (p Provider) limit() int {
	if p.Limit <= 0 {
		return defaultLimit
	}
	return p.Limit
}

func (p Provider) language() string {
	if l := strings.TrimSpace(p.Language); l != "" {
		return l
	}
	return "en"
}

// Headers returns the request headers for p, with a default User-Agent.
func Headers(p Provider) map[string]string {
	h := make(map[string]string, len(p.Headers)+1)
	h["User-Agent"] = defaultUserAgent
	for k, v := range p.Headers {
		if k = strings.TrimSpace(k); k != "" {
			h[k] = v
		}
	}
	return h
}

// Fetcher retrieves topic records for one provider type.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, category string) ([]domain.TopicRecord, error)
}

// FetcherRegistry resolves the fetcher for a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

type fetcherRegistry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewFetcherRegistry indexes fetchers by ID. Nil fetchers are skipped.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{fetchers: make(map[string]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.ID()))] = f
	}
	return reg
}

// FetcherFor selects by provider type.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	typ := strings.ToLower(strings.TrimSpace(cfg.Type))
	if typ == "" {
		return nil, fmt.Errorf("provider %q has no type", cfg.ID)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.fetchers[typ]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for provider type %q", cfg.Type)
}

// DefaultHTTPClient is the client used when none is supplied.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(30 * time.Second) }

// DefaultFetcherRegistry wires every built-in fetcher to client.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return NewFetcherRegistry(
		NewNewsAPIFetcher(client),
		NewGNewsFetcher(client),
		NewMediastackFetcher(client),
		NewRSSFetcher(client),
		NewGoogleNewsFetcher(client),
	)
}
