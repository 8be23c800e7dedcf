// Package sink is the publish destination: the bbolt store, the media library for featured images
// and the event fan-out to external publishers.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/internal/media"
	"github.com/Adda-Baaj/khobor-lekhok/internal/store"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/publishers"
)

// Sink persists generated articles and announces them.
type Sink struct {
	store  *store.Store
	media  *media.Library
	events *publishers.Fanout
	log    logger.Logger
	now    func() time.Time
}

// New composes a Sink. media and events may be nil: featured images are then stored by reference
// and no events are sent.
func New(st *store.Store, lib *media.Library, events *publishers.Fanout, log logger.Logger) *Sink {
	return &Sink{
		store:  st,
		media:  lib,
		events: events,
		log:    logger.Ensure(log),
		now:    time.Now,
	}
}

func (s *Sink) EnsureCategory(ctx context.Context, name string) (store.Category, error) {
	return s.store.EnsureCategory(ctx, name)
}

func (s *Sink) CreateArticle(ctx context.Context, in store.NewArticle) (string, error) {
	return s.store.CreateArticle(ctx, in)
}

// SetFeaturedImage saves the image into the media library and points the article at the local copy.
func (s *Sink) SetFeaturedImage(ctx context.Context, articleID, location, alt string) error {
	local := location
	if s.media != nil {
		name := alt
		if art, err := s.store.Article(ctx, articleID); err == nil {
			name = art.Title
		}
		saved, err := s.media.Save(ctx, location, name)
		if err != nil {
			return fmt.Errorf("save featured image: %w", err)
		}
		local = saved
	}
	if err := s.store.SetFeaturedImage(ctx, articleID, local, alt); err != nil {
		return err
	}
	s.log.DebugObj("featured image attached", "featured_image", map[string]any{
		"article_id": articleID,
		"path":       local,
	})
	return nil
}

func (s *Sink) SetSEOMeta(ctx context.Context, articleID string, meta store.SEOMeta) error {
	return s.store.SetSEOMeta(ctx, articleID, meta)
}

func (s *Sink) RecordAuditLog(ctx context.Context, articleID, title, status string) error {
	return s.store.RecordAuditLog(ctx, articleID, title, status)
}

func (s *Sink) AddGenerated(ctx context.Context, n int, at time.Time) error {
	return s.store.AddGenerated(ctx, n, at)
}

// Announce sends an article.published event to every enabled publisher.
func (s *Sink) Announce(ctx context.Context, ref domain.PublishedArticleRef, art domain.FormattedArticle) error {
	if s.events == nil || s.events.Len() == 0 {
		return nil
	}
	return s.events.Publish(ctx, publishers.NewArticleEvent(ref, art, s.now()))
}

// Stats reports the lifetime counters and store sizes.
func (s *Sink) Stats(ctx context.Context) (store.Stats, error) {
	return s.store.Stats(ctx)
}
