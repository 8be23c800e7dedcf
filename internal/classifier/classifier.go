// Package classifier assigns an article to a taxonomy category by weighted keyword scoring,
// falling back to a single AI call and finally to the General sentinel.
package classifier

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/gemini"
)

const (
	primaryWeight   = 3
	secondaryWeight = 1
	titleWeight     = 6

	aiContentLimit = 500
	aiTimeout      = 30 * time.Second
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// TextModel is the model-list runner used for the AI fallback.
type TextModel interface {
	Ask(ctx context.Context, models []string, prompt string, budget gemini.Budget) (text, model string, err error)
}

// Classifier scores text against a Taxonomy.
type Classifier struct {
	taxonomy Taxonomy
	llm      TextModel
	models   []string
	log      logger.Logger
}

// New builds a Classifier. A nil taxonomy uses DefaultTaxonomy; a nil llm disables the AI fallback.
func New(taxonomy Taxonomy, llm TextModel, models []string, log logger.Logger) *Classifier {
	if len(taxonomy) == 0 {
		taxonomy = DefaultTaxonomy()
	}
	if len(models) == 0 {
		models = gemini.DefaultModels
	}
	return &Classifier{taxonomy: taxonomy, llm: llm, models: models, log: logger.Ensure(log)}
}

// Scores returns the non-zero score of every category for the given inputs.
func (c *Classifier) Scores(title, body, topic string) map[string]int {
	text := strings.ToLower(title + " " + stripTags(body) + " " + topic)
	titleLower := strings.ToLower(title)

	scores := make(map[string]int)
	for _, cat := range c.taxonomy {
		score := 0
		for _, kw := range cat.Primary {
			kw = strings.ToLower(kw)
			score += strings.Count(text, kw) * primaryWeight
			score += strings.Count(titleLower, kw) * titleWeight
		}
		for _, kw := range cat.Secondary {
			score += strings.Count(text, strings.ToLower(kw)) * secondaryWeight
		}
		if score > 0 {
			scores[cat.Name] = score
		}
	}
	return scores
}

// Classify always resolves to a category name.
func (c *Classifier) Classify(ctx context.Context, title, body string, topic domain.Topic) domain.CategoryDecision {
	scores := c.Scores(title, body, topic.ClassifierText())
	if best, score, ok := pick(scores); ok {
		c.log.DebugObj("category scores", "scores", scores)
		return domain.CategoryDecision{Name: best, Score: score, Matched: true}
	}

	if c.llm == nil {
		return domain.CategoryDecision{Name: domain.GeneralCategory}
	}
	name, err := c.askModel(ctx, title, body, topic)
	if err != nil {
		c.log.Warn("ai category fallback failed", "error", err)
		return domain.CategoryDecision{Name: domain.GeneralCategory}
	}
	return domain.CategoryDecision{Name: name, ViaAI: true}
}

// pick returns the highest score, breaking ties by lexical category name.
func pick(scores map[string]int) (string, int, bool) {
	var (
		best  string
		score int
	)
	for name, s := range scores {
		if s > score || (s == score && name < best) {
			best, score = name, s
		}
	}
	return best, score, score > 0
}

func (c *Classifier) askModel(ctx context.Context, title, body string, topic domain.Topic) (string, error) {
	budget := gemini.Budget{
		Config:  gemini.GenerationConfig{Temperature: 0.3, MaxOutputTokens: 50},
		Timeout: aiTimeout,
	}
	text, model, err := c.llm.Ask(ctx, c.models, c.prompt(title, body, topic), budget)
	if err != nil {
		return "", err
	}
	name := c.normalize(text)
	c.log.Info("ai determined category", "model", model, "category", name)
	return name, nil
}

func (c *Classifier) prompt(title, body string, topic domain.Topic) string {
	content := stripTags(body)
	if len(content) > aiContentLimit {
		content = content[:aiContentLimit]
		for !utf8.ValidString(content) {
			content = content[:len(content)-1]
		}
	}
	subject := topic.ClassifierText()
	if subject == "" {
		subject = "General News"
	}

	var b strings.Builder
	b.WriteString("Analyze this news article and determine the most appropriate category from this list: ")
	b.WriteString(strings.Join(c.taxonomy.Names(), ", "))
	b.WriteString(".\n\n")
	b.WriteString("Title: " + title + "\n")
	b.WriteString("Content: " + content + "...\n")
	b.WriteString("Topic: " + subject + "\n\n")
	b.WriteString("Respond with only the category name, nothing else.")
	return b.String()
}

// normalize maps a model answer onto a taxonomy name when possible.
func (c *Classifier) normalize(answer string) string {
	answer = strings.TrimSpace(strings.Trim(strings.TrimSpace(answer), `"'.*`))
	if answer == "" {
		return domain.GeneralCategory
	}
	if i := strings.IndexByte(answer, '\n'); i >= 0 {
		answer = strings.TrimSpace(answer[:i])
	}
	for _, name := range c.taxonomy.Names() {
		if strings.EqualFold(name, answer) {
			return name
		}
	}
	return titleCase(answer)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func stripTags(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(tagRe.ReplaceAllString(s, " "))), " ")
}
