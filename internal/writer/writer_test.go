package writer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/gemini"
)

type fakeModel struct {
	text    string
	err     error
	prompts []string
	budgets []gemini.Budget
	models  [][]string
}

func (f *fakeModel) Ask(_ context.Context, models []string, prompt string, budget gemini.Budget) (string, string, error) {
	f.prompts = append(f.prompts, prompt)
	f.budgets = append(f.budgets, budget)
	f.models = append(f.models, models)
	if f.err != nil {
		return "", "", f.err
	}
	return f.text, models[0], nil
}

func TestGenerateParsesReply(t *testing.T) {
	llm := &fakeModel{text: "TITLE: Rates Hold\nCONTENT:\nThe central bank held rates."}
	w := New(llm, Config{Length: LengthLong}, nil)

	d, err := w.Generate(context.Background(), domain.GenericTopic("Interest rates"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.Title != "Rates Hold" || d.RawBody != "The central bank held rates." {
		t.Errorf("draft = %+v", d)
	}
	b := llm.budgets[0]
	if b.Config.MaxOutputTokens != 4096 || b.Config.Temperature != 0.7 || b.Config.TopK != 40 || b.Config.TopP != 0.95 {
		t.Errorf("budget = %+v", b.Config)
	}
	if b.Timeout != 60*time.Second {
		t.Errorf("timeout = %v", b.Timeout)
	}
	if strings.Join(llm.models[0], ",") != strings.Join(gemini.DefaultModels, ",") {
		t.Errorf("models = %v", llm.models[0])
	}
}

func TestGenerateParseFailure(t *testing.T) {
	w := New(&fakeModel{text: "CONTENT:\nno title here"}, Config{}, nil)
	_, err := w.Generate(context.Background(), domain.GenericTopic("x"))
	if !domain.IsParse(err) {
		t.Fatalf("err = %v, want parse error", err)
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	want := &domain.ProviderError{Provider: "gemini", Message: "last one"}
	w := New(&fakeModel{err: want}, Config{}, nil)
	_, err := w.Generate(context.Background(), domain.GenericTopic("x"))
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestTestConnection(t *testing.T) {
	llm := &fakeModel{text: "hi"}
	w := New(llm, Config{Models: []string{"custom-model"}}, nil)
	model, err := w.TestConnection(context.Background())
	if err != nil || model != "custom-model" {
		t.Fatalf("model=%q err=%v", model, err)
	}
	if llm.prompts[0] != "Hello, this is a test message." {
		t.Errorf("prompt = %q", llm.prompts[0])
	}
	if llm.budgets[0].Config.MaxOutputTokens != 10 || llm.budgets[0].Timeout != 30*time.Second {
		t.Errorf("budget = %+v", llm.budgets[0])
	}
}

func TestBuildPromptGeneric(t *testing.T) {
	now := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	p := BuildPrompt(domain.GenericTopic("Space Exploration"), LengthShort, now)

	for _, want := range []string{
		"March 4, 2025",
		"Research and write about: **Space Exploration**",
		"between 300-500 words",
		"[MINI_TITLE]Key Developments[/MINI_TITLE]",
		"DO NOT invent quotes",
		"TITLE: [Your headline]",
		"SOURCES: [List of sources used]",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "Verified Facts") {
		t.Error("generic prompt should not carry facts")
	}
}

func TestBuildPromptSourcedInjectsFacts(t *testing.T) {
	rec := domain.TopicRecord{
		Title:      "WHO approves new malaria vaccine",
		SourceName: "Reuters",
		Category:   "health",
		Facts: domain.Facts{
			Dates:         []string{"March 3, 2025"},
			Statistics:    []string{"45%"},
			Quotes:        []string{"A historic day"},
			Organizations: []string{"World Health Organization"},
		},
	}
	p := BuildPrompt(domain.SourcedTopic(rec), LengthMedium, time.Now())
	for _, want := range []string{
		"**Source Article:** WHO approves new malaria vaccine",
		"**Source:** Reuters",
		"- Dates: March 3, 2025",
		"- Statistics: 45%",
		`- "A historic day"`,
		"- Organizations: World Health Organization",
		"between 500-800 words",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "Research and write about") {
		t.Error("sourced prompt should not ask for free research")
	}
}

func TestLengthSettings(t *testing.T) {
	tests := []struct {
		raw    string
		words  string
		tokens int
	}{
		{"short", "300-500", 2048},
		{"MEDIUM", "500-800", 3072},
		{"long", "800-1200", 4096},
		{"bogus", "500-800", 3072},
	}
	for _, tt := range tests {
		l := ParseLength(tt.raw)
		if l.WordRange() != tt.words || l.MaxOutputTokens() != tt.tokens {
			t.Errorf("%s: %s/%d", tt.raw, l.WordRange(), l.MaxOutputTokens())
		}
	}
}
