package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/formatter"
	"github.com/Adda-Baaj/khobor-lekhok/internal/store"
)

type fakeTopics struct {
	records    []domain.TopicRecord
	err        error
	calls      int
	categories []string
}

func (f *fakeTopics) FetchTopics(_ context.Context, category string) ([]domain.TopicRecord, error) {
	f.calls++
	f.categories = append(f.categories, category)
	return f.records, f.err
}

type fakeWriter struct {
	err    error
	panics bool
	calls  int
	topics []domain.Topic
}

func (f *fakeWriter) Generate(_ context.Context, topic domain.Topic) (domain.Draft, error) {
	f.calls++
	f.topics = append(f.topics, topic)
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return domain.Draft{}, f.err
	}
	return domain.Draft{
		Title:           "Rates Hold Steady",
		MetaDescription: "",
		SEOKeywords:     "rates, central bank ,, inflation",
		URLSlug:         "rates-hold",
		RawBody:         "The central bank kept rates unchanged.",
		Sources:         "Reuters",
	}, nil
}

type fakeClassifier struct{ calls int }

func (f *fakeClassifier) Classify(context.Context, string, string, domain.Topic) domain.CategoryDecision {
	f.calls++
	return domain.CategoryDecision{Name: "Business", Score: 9, Matched: true}
}

type fakeImages struct{ calls int }

func (f *fakeImages) Acquire(context.Context, string, string) domain.ImageResult {
	f.calls++
	return domain.ImageResult{Success: true, ImageURL: "https://img.example/x.jpg", SourceTag: "pollinations"}
}

type fakeSink struct {
	createErr   error
	imageErr    error
	seoErr      error
	auditErr    error
	announceErr error
	seoPanics   bool

	created   []store.NewArticle
	images    []string
	seo       []store.SEOMeta
	audits    []string
	announced []domain.PublishedArticleRef
	counters  []int
	calls     int
}

func (f *fakeSink) EnsureCategory(_ context.Context, name string) (store.Category, error) {
	f.calls++
	return store.Category{ID: "cat-" + strings.ToLower(name), Name: name}, nil
}

func (f *fakeSink) CreateArticle(_ context.Context, in store.NewArticle) (string, error) {
	f.calls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, in)
	return "post-" + string(rune('0'+len(f.created))), nil
}

func (f *fakeSink) SetFeaturedImage(_ context.Context, id, location, _ string) error {
	f.calls++
	f.images = append(f.images, id+"="+location)
	return f.imageErr
}

func (f *fakeSink) SetSEOMeta(_ context.Context, _ string, meta store.SEOMeta) error {
	f.calls++
	if f.seoPanics {
		panic("seo plugin exploded")
	}
	f.seo = append(f.seo, meta)
	return f.seoErr
}

func (f *fakeSink) RecordAuditLog(_ context.Context, id, _, status string) error {
	f.calls++
	f.audits = append(f.audits, id+":"+status)
	return f.auditErr
}

func (f *fakeSink) AddGenerated(_ context.Context, n int, _ time.Time) error {
	f.calls++
	f.counters = append(f.counters, n)
	return nil
}

func (f *fakeSink) Announce(_ context.Context, ref domain.PublishedArticleRef, _ domain.FormattedArticle) error {
	f.calls++
	f.announced = append(f.announced, ref)
	return f.announceErr
}

type harness struct {
	topics     *fakeTopics
	writer     *fakeWriter
	classifier *fakeClassifier
	images     *fakeImages
	sink       *fakeSink
}

func newHarness() *harness {
	return &harness{
		topics:     &fakeTopics{},
		writer:     &fakeWriter{},
		classifier: &fakeClassifier{},
		images:     &fakeImages{},
		sink:       &fakeSink{},
	}
}

func (h *harness) orchestrator(cfg Config) *Orchestrator {
	o := New(cfg, Deps{
		Topics:     h.topics,
		Writer:     h.writer,
		Format:     formatter.Format,
		Classifier: h.classifier,
		Images:     h.images,
		Sink:       h.sink,
	}, nil)
	o.pick = func(int) int { return 0 }
	return o
}

var enabled = Config{APIKey: "key", FeaturedImage: true, SEOOptimization: true}

func TestRunRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		count  int
		status string
	}{
		{name: "missing api key", cfg: Config{}, count: 3},
		{name: "zero count", cfg: enabled, count: 0},
		{name: "negative count", cfg: enabled, count: -2},
		{name: "count above max", cfg: enabled, count: 11},
		{name: "unknown status", cfg: enabled, count: 1, status: "private"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			result, err := h.orchestrator(tt.cfg).Run(context.Background(), tt.count, nil, tt.status)
			if !domain.IsConfiguration(err) {
				t.Fatalf("err = %v, want ConfigurationError", err)
			}
			if result.Success() || len(result.Articles) != 0 {
				t.Errorf("result = %+v", result)
			}
			if h.topics.calls+h.writer.calls+h.classifier.calls+h.images.calls+h.sink.calls != 0 {
				t.Errorf("stages called: topics=%d writer=%d sink=%d", h.topics.calls, h.writer.calls, h.sink.calls)
			}
		})
	}
}

func TestRunCollectsEveryFailure(t *testing.T) {
	h := newHarness()
	h.writer.err = &domain.ProviderError{Provider: "gemini", Message: "quota exceeded"}

	result, err := h.orchestrator(enabled).Run(context.Background(), 3, nil, "publish")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Success() || result.TotalGenerated != 0 || len(result.Articles) != 0 {
		t.Errorf("result = %+v", result)
	}
	want := []string{"quota exceeded", "quota exceeded", "quota exceeded"}
	if !slices.Equal(result.Errors, want) {
		t.Errorf("errors = %q, want %q", result.Errors, want)
	}
	if h.writer.calls != 3 {
		t.Errorf("writer calls = %d, want 3", h.writer.calls)
	}
	if !slices.Equal(h.sink.counters, []int{0}) {
		t.Errorf("counters = %v, want one update of 0", h.sink.counters)
	}
}

func TestRunRecoversPanics(t *testing.T) {
	h := newHarness()
	h.writer.panics = true

	result, err := h.orchestrator(enabled).Run(context.Background(), 2, nil, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Errors) != 2 || result.Errors[0] != "Exception during post generation: boom" {
		t.Errorf("errors = %q", result.Errors)
	}
}

func TestRunPublishesArticle(t *testing.T) {
	h := newHarness()
	h.topics.records = []domain.TopicRecord{{Title: "Central bank meets", SourceName: "Reuters"}}

	result, err := h.orchestrator(enabled).Run(context.Background(), 2, []string{" Business "}, "draft")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Success() || result.TotalGenerated != 2 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}

	ref := result.Articles[0]
	if ref.ID != "post-1" || ref.CategoryName != "Business" || ref.CategoryID != "cat-business" || ref.Status != "draft" {
		t.Errorf("ref = %+v", ref)
	}
	if ref.Slug != "rates-hold" || ref.ImageSource != "pollinations" {
		t.Errorf("ref slug/image = %q %q", ref.Slug, ref.ImageSource)
	}
	if got := h.topics.categories; !slices.Equal(got, []string{"business", "business"}) {
		t.Errorf("topic categories = %q", got)
	}
	if rec, ok := h.writer.topics[0].Record(); !ok || rec.Title != "Central bank meets" {
		t.Errorf("writer topic = %+v", h.writer.topics[0])
	}

	created := h.sink.created[0]
	if created.Status != "draft" || created.CategoryID != "cat-business" || !strings.Contains(created.HTML, "lead-paragraph") {
		t.Errorf("created = %+v", created)
	}
	if created.Excerpt != "The central bank kept rates unchanged." {
		t.Errorf("excerpt = %q", created.Excerpt)
	}

	meta := h.sink.seo[0]
	if meta.FocusKeyword != "rates" || meta.Keywords != "rates, central bank, inflation" || meta.MetaDescription != created.Excerpt {
		t.Errorf("seo = %+v", meta)
	}
	if len(h.sink.images) != 2 || len(h.sink.audits) != 2 || h.sink.audits[0] != "post-1:success" || len(h.sink.announced) != 2 {
		t.Errorf("images=%v audits=%v announced=%d", h.sink.images, h.sink.audits, len(h.sink.announced))
	}
	if !slices.Equal(h.sink.counters, []int{2}) {
		t.Errorf("counters = %v, want [2]", h.sink.counters)
	}
}

func TestRunFallsBackToBackupTopics(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeTopics
	}{
		{name: "source error", src: &fakeTopics{err: errors.New("all providers failed")}},
		{name: "empty source", src: &fakeTopics{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.topics = tt.src
			if _, err := h.orchestrator(enabled).Run(context.Background(), 1, nil, ""); err != nil {
				t.Fatal(err)
			}
			topic := h.writer.topics[0]
			if topic.Kind() != domain.TopicGeneric || topic.Label() != BackupTopics[0] {
				t.Errorf("topic = %q kind %v", topic.Label(), topic.Kind())
			}
			if tt.src.categories[0] != "general" {
				t.Errorf("category = %q", tt.src.categories[0])
			}
		})
	}
}

func TestSideEffectFailuresAreSwallowed(t *testing.T) {
	h := newHarness()
	h.sink.imageErr = errors.New("download failed")
	h.sink.seoPanics = true
	h.sink.auditErr = errors.New("disk full")
	h.sink.announceErr = errors.New("queue down")

	result, err := h.orchestrator(enabled).Run(context.Background(), 1, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalGenerated != 1 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(h.sink.images) != 1 || len(h.sink.audits) != 1 || len(h.sink.announced) != 1 {
		t.Errorf("every side effect should still run: images=%d audits=%d announced=%d",
			len(h.sink.images), len(h.sink.audits), len(h.sink.announced))
	}
	if result.Articles[0].Slug != "" {
		t.Errorf("slug should stay empty when seo failed, got %q", result.Articles[0].Slug)
	}
}

func TestDisabledSideEffectsAreSkipped(t *testing.T) {
	h := newHarness()
	result, err := h.orchestrator(Config{APIKey: "key"}).Run(context.Background(), 1, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(h.sink.images) != 0 || len(h.sink.seo) != 0 {
		t.Errorf("images=%v seo=%v", h.sink.images, h.sink.seo)
	}
	if result.Articles[0].Status != domain.StatusPublish || len(h.sink.audits) != 1 {
		t.Errorf("ref = %+v audits=%v", result.Articles[0], h.sink.audits)
	}
}

func TestCreateFailureIsRecorded(t *testing.T) {
	h := newHarness()
	h.sink.createErr = errors.New("insert failed")
	result, err := h.orchestrator(enabled).Run(context.Background(), 1, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "insert failed" || len(h.sink.audits) != 0 {
		t.Errorf("errors=%q audits=%v", result.Errors, h.sink.audits)
	}
}

func TestSEOMetaFor(t *testing.T) {
	meta := SEOMetaFor(domain.FormattedArticle{Title: "Solar Boom", MetaDescription: "Panels everywhere.", Keywords: ""})
	if meta.MetaDescription != "Panels everywhere." || meta.FocusKeyword != "" || meta.Slug != "Solar Boom" {
		t.Errorf("meta = %+v", meta)
	}
}
