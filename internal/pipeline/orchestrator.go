// Package pipeline drives batch article generation from topic selection through publishing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/imagery"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/internal/store"
)

// MaxBatch is the largest accepted post count per run.
const MaxBatch = 10

// BackupTopics are used whenever the topic source fails or returns nothing.
var BackupTopics = []string{
	"Breaking: AI Regulation and Policy Developments in 2025",
	"Global Economic Outlook: Post-Pandemic Recovery and New Challenges",
	"Healthcare Innovation: Breakthrough Technologies Transforming Patient Care",
	"Climate Action: International Agreements and Renewable Energy Progress",
	"Space Exploration: Latest Missions and Discoveries in 2025",
	"Digital Transformation: How Technology is Reshaping Industries",
	"Cybersecurity Threats: Emerging Risks and Protective Measures",
	"Supply Chain Evolution: Global Trade and Logistics in 2025",
	"Social Media Regulation: Privacy and Content Moderation Policies",
	"Education Technology: Remote Learning and Digital Classrooms",
}

const defaultTopicCategory = "general"

// TopicSource supplies real news records for a category.
type TopicSource interface {
	FetchTopics(ctx context.Context, category string) ([]domain.TopicRecord, error)
}

// Writer turns a topic into a parsed draft.
type Writer interface {
	Generate(ctx context.Context, topic domain.Topic) (domain.Draft, error)
}

// FormatFunc renders a draft into a publishable article.
type FormatFunc func(domain.Draft) (domain.FormattedArticle, error)

// Classifier resolves the article category. It never fails.
type Classifier interface {
	Classify(ctx context.Context, title, body string, topic domain.Topic) domain.CategoryDecision
}

// ImageProvider returns exactly one image for an article.
type ImageProvider interface {
	Acquire(ctx context.Context, title, topic string) domain.ImageResult
}

// Sink is the publish destination.
type Sink interface {
	EnsureCategory(ctx context.Context, name string) (store.Category, error)
	CreateArticle(ctx context.Context, in store.NewArticle) (string, error)
	SetFeaturedImage(ctx context.Context, articleID, location, alt string) error
	SetSEOMeta(ctx context.Context, articleID string, meta store.SEOMeta) error
	RecordAuditLog(ctx context.Context, articleID, title, status string) error
	AddGenerated(ctx context.Context, n int, at time.Time) error
	Announce(ctx context.Context, ref domain.PublishedArticleRef, art domain.FormattedArticle) error
}

// Config is the per-orchestrator settings snapshot.
type Config struct {
	APIKey          string
	FeaturedImage   bool
	SEOOptimization bool
	DefaultStatus   string
}

// Deps are the pipeline stages. Topics and Images may be nil.
type Deps struct {
	Topics     TopicSource
	Writer     Writer
	Format     FormatFunc
	Classifier Classifier
	Images     ImageProvider
	Sink       Sink
}

// Orchestrator runs generation batches.
type Orchestrator struct {
	cfg  Config
	deps Deps
	log  logger.Logger
	now  func() time.Time
	pick func(n int) int
}

// New builds an Orchestrator.
func New(cfg Config, deps Deps, log logger.Logger) *Orchestrator {
	if deps.Format == nil {
		deps.Format = func(d domain.Draft) (domain.FormattedArticle, error) {
			return domain.FormattedArticle{}, errors.New("no formatter configured")
		}
	}
	return &Orchestrator{
		cfg:  cfg,
		deps: deps,
		log:  logger.Ensure(log),
		now:  time.Now,
		pick: rand.IntN,
	}
}

// Run generates count articles. The only error it returns is a *domain.ConfigurationError, raised
// before any stage is called; per-article failures are collected in the result.
func (o *Orchestrator) Run(ctx context.Context, count int, categories []string, postStatus string) (domain.BatchResult, error) {
	result := domain.BatchResult{Articles: []domain.PublishedArticleRef{}, Errors: []string{}}

	status, err := o.validate(count, postStatus)
	if err != nil {
		o.log.ErrorObj("batch rejected", "batch_error", map[string]any{
			"count": count,
			"error": err.Error(),
		})
		return result, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	o.log.InfoObj("batch started", "batch", map[string]any{
		"count":      count,
		"categories": categories,
		"status":     status,
	})

	for i := range count {
		ref, err := o.generateOne(ctx, categories, status)
		if err != nil {
			o.log.WarnObj("article generation failed", "article_error", map[string]any{
				"index": i + 1,
				"count": count,
				"error": err.Error(),
			})
			result.Errors = append(result.Errors, errorMessage(err))
			continue
		}
		o.log.InfoObj("article generated", "article", map[string]any{
			"index":    i + 1,
			"count":    count,
			"id":       ref.ID,
			"title":    ref.Title,
			"category": ref.CategoryName,
		})
		result.Articles = append(result.Articles, ref)
	}
	result.TotalGenerated = len(result.Articles)

	if err := o.deps.Sink.AddGenerated(context.WithoutCancel(ctx), result.TotalGenerated, o.now()); err != nil {
		o.log.WarnObj("counter update failed", "side_effect_error", map[string]any{
			"error": (&domain.SideEffectError{Step: "counters", Err: err}).Error(),
		})
	}

	o.log.InfoObj("batch complete", "batch", map[string]any{
		"generated": result.TotalGenerated,
		"errors":    len(result.Errors),
	})
	return result, nil
}

func (o *Orchestrator) validate(count int, postStatus string) (string, error) {
	if strings.TrimSpace(o.cfg.APIKey) == "" {
		return "", &domain.ConfigurationError{Field: "gemini.api_key", Reason: "API key not configured"}
	}
	if count < 1 || count > MaxBatch {
		return "", &domain.ConfigurationError{Field: "count", Reason: fmt.Sprintf("must be between 1 and %d, got %d", MaxBatch, count)}
	}
	if o.deps.Writer == nil || o.deps.Classifier == nil || o.deps.Sink == nil {
		return "", &domain.ConfigurationError{Reason: "pipeline stages not configured"}
	}

	status := strings.ToLower(strings.TrimSpace(postStatus))
	if status == "" {
		status = strings.ToLower(strings.TrimSpace(o.cfg.DefaultStatus))
	}
	if status == "" {
		status = domain.StatusPublish
	}
	if status != domain.StatusPublish && status != domain.StatusDraft {
		return "", &domain.ConfigurationError{Field: "post_status", Reason: fmt.Sprintf("unsupported status %q", postStatus)}
	}
	return status, nil
}

type panicError struct{ value any }

func (e *panicError) Error() string { return fmt.Sprint(e.value) }

func errorMessage(err error) string {
	var pe *panicError
	if errors.As(err, &pe) {
		return "Exception during post generation: " + pe.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error occurred during post generation"
}

// generateOne runs every stage for a single article. A panic in any stage becomes an error.
func (o *Orchestrator) generateOne(ctx context.Context, categories []string, status string) (ref domain.PublishedArticleRef, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()

	topic := o.chooseTopic(ctx, categories)

	draft, err := o.deps.Writer.Generate(ctx, topic)
	if err != nil {
		return ref, err
	}
	art, err := o.deps.Format(draft)
	if err != nil {
		return ref, err
	}

	decision := o.deps.Classifier.Classify(ctx, art.Title, art.BodyHTML, topic)
	category, err := o.deps.Sink.EnsureCategory(ctx, decision.Name)
	if err != nil {
		return ref, fmt.Errorf("resolve category %q: %w", decision.Name, err)
	}

	var image domain.ImageResult
	if o.deps.Images != nil {
		image = o.deps.Images.Acquire(ctx, art.Title, topic.Label())
	}

	id, err := o.deps.Sink.CreateArticle(ctx, store.NewArticle{
		Title:      art.Title,
		HTML:       art.BodyHTML,
		Excerpt:    art.Excerpt,
		Status:     status,
		CategoryID: category.ID,
	})
	if err != nil {
		return ref, err
	}

	ref = domain.PublishedArticleRef{
		ID:           id,
		Title:        art.Title,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Status:       status,
	}
	o.applySideEffects(ctx, &ref, art, image, topic)
	return ref, nil
}

// chooseTopic picks a random sourced record, or a random backup topic when the source has none.
func (o *Orchestrator) chooseTopic(ctx context.Context, categories []string) domain.Topic {
	if o.deps.Topics != nil {
		category := defaultTopicCategory
		if len(categories) > 0 {
			if c := strings.ToLower(strings.TrimSpace(categories[o.pick(len(categories))])); c != "" {
				category = c
			}
		}
		records, err := o.deps.Topics.FetchTopics(ctx, category)
		switch {
		case err != nil:
			o.log.WarnObj("topic source failed, using backup topics", "topic_error", map[string]any{
				"category": category,
				"error":    err.Error(),
			})
		case len(records) == 0:
			o.log.Info("topic source returned nothing, using backup topics", "category", category)
		default:
			return domain.SourcedTopic(records[o.pick(len(records))])
		}
	}
	return domain.GenericTopic(BackupTopics[o.pick(len(BackupTopics))])
}

// applySideEffects runs the non-critical post-publish steps. Each failure is logged and dropped.
func (o *Orchestrator) applySideEffects(ctx context.Context, ref *domain.PublishedArticleRef, art domain.FormattedArticle, image domain.ImageResult, topic domain.Topic) {
	if image.Success && image.ImageURL != "" && o.cfg.FeaturedImage {
		alt := imagery.AltText(art.Title, topic.Label())
		o.guard(ctx, "featured_image", ref.ID, func() error {
			return o.deps.Sink.SetFeaturedImage(ctx, ref.ID, image.ImageURL, alt)
		})
		ref.ImageURL = image.ImageURL
		ref.ImageSource = image.SourceTag
	}

	if o.cfg.SEOOptimization {
		meta := SEOMetaFor(art)
		if o.guard(ctx, "seo_meta", ref.ID, func() error {
			return o.deps.Sink.SetSEOMeta(ctx, ref.ID, meta)
		}) {
			ref.Slug = store.Slugify(meta.Slug)
		}
	}

	o.guard(ctx, "audit_log", ref.ID, func() error {
		return o.deps.Sink.RecordAuditLog(ctx, ref.ID, ref.Title, "success")
	})

	published := *ref
	o.guard(ctx, "announce", ref.ID, func() error {
		return o.deps.Sink.Announce(ctx, published, art)
	})
}

// guard runs one side effect, recovering panics, and reports whether it succeeded.
func (o *Orchestrator) guard(ctx context.Context, step, articleID string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.logSideEffect(step, articleID, &domain.SideEffectError{Step: step, Err: fmt.Errorf("panic: %v", r)})
			ok = false
		}
	}()
	if err := ctx.Err(); err != nil {
		o.logSideEffect(step, articleID, &domain.SideEffectError{Step: step, Err: err})
		return false
	}
	if err := fn(); err != nil {
		o.logSideEffect(step, articleID, &domain.SideEffectError{Step: step, Err: err})
		return false
	}
	return true
}

func (o *Orchestrator) logSideEffect(step, articleID string, err error) {
	o.log.WarnObj("post-publish step failed", "side_effect_error", map[string]any{
		"step":       step,
		"article_id": articleID,
		"error":      err.Error(),
	})
}

// SEOMetaFor derives the search metadata for an article. The meta description falls back to the
// excerpt and the focus keyword is the first keyword.
func SEOMetaFor(art domain.FormattedArticle) store.SEOMeta {
	var keywords []string
	for _, kw := range strings.Split(art.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	meta := store.SEOMeta{
		MetaDescription: art.MetaDescription,
		Keywords:        strings.Join(keywords, ", "),
		Slug:            art.URLSlug,
		Sources:         art.Sources,
	}
	if meta.MetaDescription == "" {
		meta.MetaDescription = art.Excerpt
	}
	if len(keywords) > 0 {
		meta.FocusKeyword = keywords[0]
	}
	if strings.TrimSpace(meta.Slug) == "" {
		meta.Slug = art.Title
	}
	return meta
}
