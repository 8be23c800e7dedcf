// Package app wires configuration into the running pipeline.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/classifier"
	"github.com/Adda-Baaj/khobor-lekhok/internal/config"
	"github.com/Adda-Baaj/khobor-lekhok/internal/crawler"
	"github.com/Adda-Baaj/khobor-lekhok/internal/formatter"
	"github.com/Adda-Baaj/khobor-lekhok/internal/imagery"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/internal/media"
	"github.com/Adda-Baaj/khobor-lekhok/internal/pipeline"
	"github.com/Adda-Baaj/khobor-lekhok/internal/scheduler"
	"github.com/Adda-Baaj/khobor-lekhok/internal/sink"
	"github.com/Adda-Baaj/khobor-lekhok/internal/store"
	"github.com/Adda-Baaj/khobor-lekhok/internal/writer"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/gemini"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/providers"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/publishers"
)

const (
	generationTimeout = 60 * time.Second
	downloadTimeout   = 300 * time.Second
	scrapeDelay       = 200 * time.Millisecond
)

// App holds every wired component.
type App struct {
	Config       *config.Config
	Gemini       *gemini.Client
	Writer       *writer.Writer
	Source       *providers.Source
	Store        *store.Store
	Sink         *sink.Sink
	Orchestrator *pipeline.Orchestrator

	log logger.Logger
}

// Build constructs the pipeline from cfg. The caller owns Close.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	log = logger.Ensure(log)

	llm := gemini.New(httpclient.NewRestyClient(generationTimeout), cfg.Gemini.APIKey,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithLogger(log),
	)
	w := writer.New(llm, writer.Config{Models: cfg.Gemini.Models, Length: writer.Length(cfg.Content.Length)}, log)

	taxonomy, err := loadTaxonomy(cfg.Content.TaxonomyFile)
	if err != nil {
		return nil, err
	}
	cls := classifier.New(taxonomy, llm, cfg.Gemini.Models, log)

	images := imagery.New(httpclient.NewRestyClient(downloadTimeout), imagery.Config{
		Source:             cfg.Images.Source,
		Quality:            cfg.Images.Quality,
		HuggingFaceToken:   cfg.Images.HuggingFaceToken,
		UnsplashKey:        cfg.Images.UnsplashKey,
		PexelsKey:          cfg.Images.PexelsKey,
		VerifyPollinations: cfg.Images.PollinationsVerify,
		MediaDir:           cfg.Media.Dir,
	}, log)

	source := NewSource(cfg, log)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	events, err := buildFanout(ctx, cfg.Publishers.File, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	lib := media.New(httpclient.NewRestyClient(downloadTimeout), cfg.Media.Dir, log)
	sk := sink.New(st, lib, events, log)

	orch := pipeline.New(pipeline.Config{
		APIKey:          cfg.Gemini.APIKey,
		FeaturedImage:   cfg.Content.FeaturedImage,
		SEOOptimization: cfg.Content.SEOOptimization,
		DefaultStatus:   cfg.Content.PostStatus,
	}, pipeline.Deps{
		Topics:     source,
		Writer:     w,
		Format:     formatter.Format,
		Classifier: cls,
		Images:     images,
		Sink:       sk,
	}, log)

	return &App{
		Config:       cfg,
		Gemini:       llm,
		Writer:       w,
		Source:       source,
		Store:        st,
		Sink:         sk,
		Orchestrator: orch,
		log:          log,
	}, nil
}

// NewSource builds the topic source from the news settings, with page enrichment when enabled.
func NewSource(cfg *config.Config, log logger.Logger) *providers.Source {
	client := httpclient.NewRestyClient(cfg.News.RequestTimeout())
	opts := []providers.SourceOption{providers.WithLogger(log)}
	if cfg.News.Enrich {
		opts = append(opts, providers.WithEnricher(crawler.NewScraper(client, log, scrapeDelay)))
	}
	return providers.NewSource(providers.DefaultFetcherRegistry(client), cfg.News.Providers(), opts...)
}

// Scheduler returns the recurring batch driver for the schedule settings.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		Enabled:    a.Config.Schedule.Enabled,
		Interval:   a.Config.Schedule.Interval(),
		Count:      a.Config.Content.PostsPerGeneration,
		Categories: a.Config.Content.Categories,
		PostStatus: a.Config.Content.PostStatus,
	}, a.Orchestrator, a.log)
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func loadTaxonomy(path string) (classifier.Taxonomy, error) {
	if path == "" {
		return classifier.DefaultTaxonomy(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy: %w", err)
	}
	defer f.Close()
	return classifier.LoadTaxonomy(f)
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil, log), nil
	}
	set, err := publishers.LoadConfigs(path)
	if err != nil {
		return nil, err
	}
	reg := publishers.DefaultRegistry(httpclient.NewRestyClient(30 * time.Second))
	pubs, err := publishers.BuildAll(ctx, reg, set.Enabled(), log)
	if err != nil {
		return nil, err
	}
	log.InfoObj("publishers ready", "publishers", map[string]any{"count": len(pubs)})
	return publishers.NewFanout(pubs, log), nil
}
