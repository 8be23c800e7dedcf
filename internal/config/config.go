// Package config loads runtime settings from an optional YAML file, a .env file and NEWSGEN_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/providers"
)

// EnvPrefix is prepended to every environment key, e.g. NEWSGEN_GEMINI_API_KEY.
const EnvPrefix = "NEWSGEN"

// Config is the full application configuration.
type Config struct {
	Gemini     Gemini     `mapstructure:"gemini"`
	Content    Content    `mapstructure:"content"`
	Images     Images     `mapstructure:"images"`
	News       News       `mapstructure:"news"`
	Schedule   Schedule   `mapstructure:"schedule"`
	Store      Store      `mapstructure:"store"`
	Media      Media      `mapstructure:"media"`
	Publishers Publishers `mapstructure:"publishers"`
	Log        Log        `mapstructure:"log"`
}

type Gemini struct {
	APIKey  string   `mapstructure:"api_key"`
	BaseURL string   `mapstructure:"base_url"`
	Models  []string `mapstructure:"models"`
}

type Content struct {
	Length             string   `mapstructure:"length"`
	PostStatus         string   `mapstructure:"post_status"`
	PostsPerGeneration int      `mapstructure:"posts_per_generation"`
	Categories         []string `mapstructure:"categories"`
	FeaturedImage      bool     `mapstructure:"featured_image"`
	SEOOptimization    bool     `mapstructure:"seo_optimization"`
	TaxonomyFile       string   `mapstructure:"taxonomy_file"`
}

type Images struct {
	Source             string `mapstructure:"source"`
	Quality            string `mapstructure:"quality"`
	HuggingFaceToken   string `mapstructure:"huggingface_token"`
	UnsplashKey        string `mapstructure:"unsplash_key"`
	PexelsKey          string `mapstructure:"pexels_key"`
	PollinationsVerify bool   `mapstructure:"pollinations_verify"`
}

// News configures the topic source. API providers without a key are left out.
type News struct {
	NewsAPIKey    string   `mapstructure:"newsapi_key"`
	GNewsKey      string   `mapstructure:"gnews_key"`
	MediastackKey string   `mapstructure:"mediastack_key"`
	Sitemaps      []string `mapstructure:"sitemaps"`
	Feeds         []string `mapstructure:"feeds"`
	Enrich        bool     `mapstructure:"enrich"`
	Timeout       string   `mapstructure:"timeout"`
}

type Schedule struct {
	Enabled   bool   `mapstructure:"enabled"`
	Frequency string `mapstructure:"frequency"`
}

type Store struct {
	Path string `mapstructure:"path"`
}

type Media struct {
	Dir string `mapstructure:"dir"`
}

type Publishers struct {
	File string `mapstructure:"file"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. Empty searches ./khobor-lekhok.yaml and $HOME/.khobor-lekhok.yaml.
	File string
	// EnvFile is loaded into the process environment when it exists. Defaults to ".env".
	EnvFile string
}

// Load reads, sanitizes and validates the configuration.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("khobor-lekhok")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1")
	v.SetDefault("gemini.models", []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-flash"})

	v.SetDefault("content.length", "medium")
	v.SetDefault("content.post_status", domain.StatusPublish)
	v.SetDefault("content.posts_per_generation", 3)
	v.SetDefault("content.categories", []string{})
	v.SetDefault("content.featured_image", true)
	v.SetDefault("content.seo_optimization", true)
	v.SetDefault("content.taxonomy_file", "")

	v.SetDefault("images.source", "ai")
	v.SetDefault("images.quality", "standard")
	v.SetDefault("images.huggingface_token", "")
	v.SetDefault("images.unsplash_key", "")
	v.SetDefault("images.pexels_key", "")
	v.SetDefault("images.pollinations_verify", false)

	v.SetDefault("news.newsapi_key", "")
	v.SetDefault("news.gnews_key", "")
	v.SetDefault("news.mediastack_key", "")
	v.SetDefault("news.sitemaps", []string{})
	v.SetDefault("news.feeds", []string{})
	v.SetDefault("news.enrich", true)
	v.SetDefault("news.timeout", "30s")

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.frequency", "daily")

	v.SetDefault("store.path", "data/khobor-lekhok.db")
	v.SetDefault("media.dir", "media")
	v.SetDefault("publishers.file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) sanitize() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	c.Gemini.Models = splitList(c.Gemini.Models)

	c.Content.Length = strings.ToLower(strings.TrimSpace(c.Content.Length))
	c.Content.PostStatus = strings.ToLower(strings.TrimSpace(c.Content.PostStatus))
	c.Content.Categories = splitList(c.Content.Categories)
	c.Content.TaxonomyFile = strings.TrimSpace(c.Content.TaxonomyFile)

	c.Images.Source = strings.ToLower(strings.TrimSpace(c.Images.Source))
	c.Images.Quality = strings.ToLower(strings.TrimSpace(c.Images.Quality))

	c.News.Sitemaps = splitList(c.News.Sitemaps)
	c.News.Feeds = splitList(c.News.Feeds)

	c.Schedule.Frequency = strings.ToLower(strings.TrimSpace(c.Schedule.Frequency))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate reports the first invalid field as a domain.ConfigurationError. The Gemini key is not
// required here; commands that call the API check it themselves.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
		ok    []string
	}{
		{"content.length", c.Content.Length, []string{"short", "medium", "long"}},
		{"content.post_status", c.Content.PostStatus, []string{domain.StatusPublish, domain.StatusDraft}},
		{"images.source", c.Images.Source, []string{"ai", "unsplash", "pexels"}},
		{"images.quality", c.Images.Quality, []string{"standard", "high"}},
		{"schedule.frequency", c.Schedule.Frequency, []string{"hourly", "daily", "weekly"}},
		{"log.format", c.Log.Format, []string{"json", "console"}},
	}
	for _, chk := range checks {
		if !slices.Contains(chk.ok, chk.value) {
			return &domain.ConfigurationError{
				Field:  chk.field,
				Reason: fmt.Sprintf("%q is not one of %s", chk.value, strings.Join(chk.ok, ", ")),
			}
		}
	}

	if n := c.Content.PostsPerGeneration; n < 1 || n > 10 {
		return &domain.ConfigurationError{Field: "content.posts_per_generation", Reason: fmt.Sprintf("%d is outside 1-10", n)}
	}
	if len(c.Gemini.Models) == 0 {
		return &domain.ConfigurationError{Field: "gemini.models", Reason: "at least one model is required"}
	}
	if c.Store.Path == "" {
		return &domain.ConfigurationError{Field: "store.path", Reason: "must not be empty"}
	}
	if _, err := c.News.timeout(); err != nil {
		return &domain.ConfigurationError{Field: "news.timeout", Reason: err.Error()}
	}
	return nil
}

// Interval converts the schedule frequency into a tick period.
func (s Schedule) Interval() time.Duration {
	switch s.Frequency {
	case "hourly":
		return time.Hour
	case "weekly":
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (n News) timeout() (time.Duration, error) {
	if strings.TrimSpace(n.Timeout) == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

// RequestTimeout is the per-request timeout for topic providers.
func (n News) RequestTimeout() time.Duration {
	d, err := n.timeout()
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Providers expands the news settings into topic provider entries. The RSS fallback is always present.
func (n News) Providers() []providers.Provider {
	var out []providers.Provider
	keyed := []struct {
		typ, key string
	}{
		{providers.ProviderTypeNewsAPI, n.NewsAPIKey},
		{providers.ProviderTypeGNews, n.GNewsKey},
		{providers.ProviderTypeMediastack, n.MediastackKey},
	}
	for _, k := range keyed {
		if strings.TrimSpace(k.key) == "" {
			continue
		}
		out = append(out, providers.Provider{ID: k.typ, Type: k.typ, APIKey: strings.TrimSpace(k.key)})
	}
	for i, sm := range n.Sitemaps {
		out = append(out, providers.Provider{
			ID:        fmt.Sprintf("sitemap-%d", i+1),
			Type:      providers.ProviderTypeGoogleNews,
			SourceURL: sm,
		})
	}
	return append(out, providers.Provider{ID: "rss", Type: providers.ProviderTypeRSS, Feeds: n.Feeds})
}

// splitList trims entries and splits comma-joined values, which is how lists arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
