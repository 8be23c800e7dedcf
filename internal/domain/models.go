package domain

import "time"

// Domain contains the values that flow through the generation pipeline.

// Facts are verified details lifted from a source article and injected into the prompt as grounding.
type Facts struct {
	Dates         []string `json:"dates,omitempty"`
	Statistics    []string `json:"statistics,omitempty"`
	Quotes        []string `json:"quotes,omitempty"`
	Organizations []string `json:"organizations,omitempty"`
}

// Empty reports whether no fact was extracted.
func (f Facts) Empty() bool {
	return len(f.Dates) == 0 && len(f.Statistics) == 0 && len(f.Quotes) == 0 && len(f.Organizations) == 0
}

// TopicRecord is a real news item returned by a topic source.
type TopicRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"-"`
	SourceName  string    `json:"source_name,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Category    string    `json:"category,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	Facts       Facts     `json:"facts"`
	PublishedAt time.Time `json:"published_at"`
	ProviderID  string    `json:"provider_id,omitempty"`
}

// TopicKind tags the Topic variant.
type TopicKind int

const (
	TopicGeneric TopicKind = iota
	TopicSourced
)

// Topic is either a bare generic subject or a sourced news record.
type Topic struct {
	kind    TopicKind
	subject string
	record  TopicRecord
}

// GenericTopic wraps a bare topic string.
func GenericTopic(subject string) Topic {
	return Topic{kind: TopicGeneric, subject: subject}
}

// SourcedTopic wraps a structured news record.
func SourcedTopic(rec TopicRecord) Topic {
	return Topic{kind: TopicSourced, record: rec}
}

func (t Topic) Kind() TopicKind { return t.kind }

// Record returns the sourced record; ok is false for generic topics.
func (t Topic) Record() (TopicRecord, bool) {
	return t.record, t.kind == TopicSourced
}

// Label is the human readable subject: the record title or the generic string.
func (t Topic) Label() string {
	if t.kind == TopicSourced {
		return t.record.Title
	}
	return t.subject
}

// ClassifierText is the topic text fed to category scoring. Sourced records contribute nothing,
// matching how only plain topic strings were ever scored.
func (t Topic) ClassifierText() string {
	if t.kind == TopicSourced {
		return ""
	}
	return t.subject
}

// Draft is parsed but unformatted model output.
type Draft struct {
	Title           string
	MetaDescription string
	SEOKeywords     string
	URLSlug         string
	RawBody         string
	Sources         string
}

// Valid reports whether the draft passes the title/body gate.
func (d Draft) Valid() bool {
	return d.Title != "" && d.RawBody != ""
}

// FormattedArticle is the publishable article derived from a Draft.
type FormattedArticle struct {
	Title           string
	Excerpt         string
	BodyHTML        string
	Keywords        string
	MetaDescription string
	URLSlug         string
	Sources         string
}

// GeneralCategory is the sentinel every classification falls back to.
const GeneralCategory = "General"

// CategoryDecision is the classifier outcome; Name is never empty.
type CategoryDecision struct {
	Name    string
	Score   int
	Matched bool
	ViaAI   bool
}

// ImageResult describes the single image chosen for an article.
type ImageResult struct {
	Success         bool   `json:"success"`
	ImageURL        string `json:"image_url"`
	SourceTag       string `json:"source"`
	AttributionName string `json:"photographer,omitempty"`
	AttributionURL  string `json:"photographer_url,omitempty"`
}

// Post statuses accepted by the publish sink.
const (
	StatusPublish = "publish"
	StatusDraft   = "draft"
)

// PublishedArticleRef is what a batch reports for each created article.
type PublishedArticleRef struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug,omitempty"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Status       string `json:"status"`
	ImageURL     string `json:"image_url,omitempty"`
	ImageSource  string `json:"image_source,omitempty"`
}

// BatchResult aggregates the outcome of one orchestrator run.
type BatchResult struct {
	Articles       []PublishedArticleRef `json:"generated_articles"`
	Errors         []string              `json:"error_messages"`
	TotalGenerated int                   `json:"total_generated"`
}

// Success is true when at least one article was created.
func (b BatchResult) Success() bool { return b.TotalGenerated > 0 }
