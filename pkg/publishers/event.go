// Package publishers fans generated-article events out to external sinks (queues, topics, webhooks).
package publishers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
)

// EventArticlePublished is emitted once per stored article.
const EventArticlePublished = "article.published"

// Logger is the logger accepted by publishers.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger { return logger.Ensure(log) }

// Event is the payload delivered to every publisher.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Article    Article   `json:"article"`
}

// Article is the article view carried by an event.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug,omitempty"`
	Category    string   `json:"category"`
	Status      string   `json:"status"`
	Excerpt     string   `json:"excerpt,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Sources     string   `json:"sources,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	ImageSource string   `json:"image_source,omitempty"`
}

// NewArticleEvent builds an article.published event for ref.
func NewArticleEvent(ref domain.PublishedArticleRef, art domain.FormattedArticle, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventArticlePublished,
		OccurredAt: at.UTC(),
		Article: Article{
			ID:          ref.ID,
			Title:       ref.Title,
			Slug:        ref.Slug,
			Category:    ref.CategoryName,
			Status:      ref.Status,
			Excerpt:     art.Excerpt,
			Keywords:    splitKeywords(art.Keywords),
			Sources:     art.Sources,
			ImageURL:    ref.ImageURL,
			ImageSource: ref.ImageSource,
		},
	}
}

func splitKeywords(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// attributes are copied onto queue messages so consumers can filter without decoding the body.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"category":   e.Article.Category,
		"status":     e.Article.Status,
	}
}

// Publisher delivers events to one configured sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
