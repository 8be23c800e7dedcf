package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
)

// Enricher fills in details the listing endpoints leave out.
type Enricher interface {
	Enrich(ctx context.Context, records []domain.TopicRecord) []domain.TopicRecord
}

// Source aggregates the configured providers into one topic list.
//
// Non-RSS providers are queried first and their results merged. RSS providers are consulted only when
// that yields nothing. The merged list is de-duplicated by case-insensitive title, ordered newest first
// and cut to the limit.
type Source struct {
	registry FetcherRegistry
	primary  []Provider
	fallback []Provider
	enricher Enricher
	limit    int
	log      logger.Logger
}

// SourceOption customises a Source.
type SourceOption func(*Source)

// WithEnricher runs e over the final list.
func WithEnricher(e Enricher) SourceOption { return func(s *Source) { s.enricher = e } }

// WithLimit overrides the number of topics returned.
func WithLimit(n int) SourceOption {
	return func(s *Source) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) SourceOption { return func(s *Source) { s.log = logger.Ensure(log) } }

// NewSource splits cfgs into primary and RSS fallback providers.
func NewSource(reg FetcherRegistry, cfgs []Provider, opts ...SourceOption) *Source {
	s := &Source{registry: reg, limit: defaultLimit, log: logger.NopLogger{}}
	for _, cfg := range cfgs {
		if strings.EqualFold(cfg.Type, ProviderTypeRSS) {
			s.fallback = append(s.fallback, cfg)
		} else {
			s.primary = append(s.primary, cfg)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Providers returns the configured providers, primary first.
func (s *Source) Providers() []Provider {
	out := make([]Provider, 0, len(s.primary)+len(s.fallback))
	out = append(out, s.primary...)
	return append(out, s.fallback...)
}

// FetchTopics returns up to limit records for category. The error is non-nil only when no provider
// produced anything and at least one failed.
func (s *Source) FetchTopics(ctx context.Context, category string) ([]domain.TopicRecord, error) {
	records, errs := s.fetchAll(ctx, s.primary, category)
	if len(records) == 0 {
		more, moreErrs := s.fetchAll(ctx, s.fallback, category)
		records = more
		errs = append(errs, moreErrs...)
	}
	if len(records) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("no topics fetched: %w", errors.Join(errs...))
		}
		return nil, nil
	}

	records = Process(records, s.limit)
	if s.enricher != nil {
		records = s.enricher.Enrich(ctx, records)
	}
	return records, nil
}

func (s *Source) fetchAll(ctx context.Context, cfgs []Provider, category string) ([]domain.TopicRecord, []error) {
	var (
		out  []domain.TopicRecord
		errs []error
	)
	for _, cfg := range cfgs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		fetcher, err := s.registry.FetcherFor(cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got, err := fetcher.Fetch(ctx, cfg, category)
		if err != nil {
			s.log.WarnObj("topic provider failed", "provider_error", map[string]any{
				"provider_id": cfg.ID,
				"type":        cfg.Type,
				"error":       err.Error(),
			})
			errs = append(errs, err)
			continue
		}
		s.log.DebugObj("topic provider fetched", "provider_fetch", map[string]any{
			"provider_id": cfg.ID,
			"records":     len(got),
		})
		out = append(out, got...)
	}
	return out, errs
}

// Process de-duplicates by lower-cased title, sorts newest first and keeps at most limit records.
func Process(records []domain.TopicRecord, limit int) []domain.TopicRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.TopicRecord, 0, len(records))
	for _, rec := range records {
		key := hashKey(strings.ToLower(rec.Title))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
