// Package imagery acquires exactly one image per article through an ordered provider chain that
// always ends in an inline placeholder.
package imagery

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/fallback"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

// Chain selections accepted by Config.Source.
const (
	SourceAI       = "ai"
	SourceUnsplash = "unsplash"
	SourcePexels   = "pexels"
)

// Endpoints overrides provider base URLs.
type Endpoints struct {
	Pollinations string
	HuggingFace  string
	Lexica       string
	Unsplash     string
	Pexels       string
}

// Config carries credentials and chain options.
type Config struct {
	Source             string
	Quality            string
	HuggingFaceToken   string
	UnsplashKey        string
	PexelsKey          string
	VerifyPollinations bool
	MediaDir           string
	Endpoints          Endpoints
}

// Provider runs the image chain.
type Provider struct {
	chain []fallback.Strategy[Request, domain.ImageResult]
	log   logger.Logger
}

// New wires the chain. A nil client gets a resty client with the longest stage timeout.
func New(client httpclient.Client, cfg Config, log logger.Logger) *Provider {
	if client == nil {
		client = httpclient.NewRestyClient(aiTimeout)
	}
	ep := withDefaults(cfg.Endpoints)
	high := strings.EqualFold(strings.TrimSpace(cfg.Quality), "high")
	mediaDir := cfg.MediaDir
	if mediaDir == "" {
		mediaDir = "media"
	}

	stock := []fallback.Strategy[Request, domain.ImageResult]{
		&unsplash{client: client, base: ep.Unsplash, key: cfg.UnsplashKey, high: high},
		&pexels{client: client, base: ep.Pexels, key: cfg.PexelsKey, high: high},
	}

	var chain []fallback.Strategy[Request, domain.ImageResult]
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case SourceUnsplash:
		chain = stock
	case SourcePexels:
		chain = stock[1:]
	default:
		chain = append([]fallback.Strategy[Request, domain.ImageResult]{
			&pollinations{client: client, base: ep.Pollinations, verify: cfg.VerifyPollinations, now: time.Now},
			&huggingFace{client: client, endpoint: ep.HuggingFace, token: cfg.HuggingFaceToken, mediaDir: mediaDir, now: time.Now},
			&lexica{client: client, base: ep.Lexica},
		}, stock...)
	}
	chain = append(chain, placeholder{})

	return &Provider{chain: chain, log: logger.Ensure(log)}
}

func withDefaults(ep Endpoints) Endpoints {
	set := func(v *string, def string) {
		if s := strings.TrimRight(strings.TrimSpace(*v), "/"); s != "" {
			*v = s
			return
		}
		*v = def
	}
	set(&ep.Pollinations, DefaultPollinationsURL)
	set(&ep.HuggingFace, DefaultHuggingFaceURL)
	set(&ep.Lexica, DefaultLexicaURL)
	set(&ep.Unsplash, DefaultUnsplashURL)
	set(&ep.Pexels, DefaultPexelsURL)
	return ep
}

// Stages lists the chain order by source tag.
func (p *Provider) Stages() []string {
	names := make([]string, 0, len(p.chain))
	for _, s := range p.chain {
		names = append(names, s.Name())
	}
	return names
}

// Acquire never fails: stage errors are logged and the chain moves on.
func (p *Provider) Acquire(ctx context.Context, title, topic string) domain.ImageResult {
	req := Request{Title: title, Topic: topic, Prompt: CleanPrompt(ScenePrompt(title, topic))}
	p.log.Debug("image prompt", "prompt", req.Prompt)

	res, err := fallback.Run(ctx, p.chain, req, func(stage string, err error) {
		p.log.WarnObj("image stage failed", "image_stage", map[string]any{"stage": stage, "error": err.Error()})
	})
	if err != nil {
		p.log.Warn("image chain aborted, using placeholder", "error", err)
		return Placeholder()
	}
	p.log.Info("image acquired", "source", res.Value.SourceTag, "attempts", res.Attempts)
	return res.Value
}
