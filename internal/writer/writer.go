// Package writer turns a topic into a parsed article draft using the model fallback list.
package writer

import (
	"context"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/internal/parser"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/gemini"
)

const (
	generationTimeout = 60 * time.Second
	testTimeout       = 30 * time.Second
	testPrompt        = "Hello, this is a test message."
)

// TextModel runs a prompt through an ordered model list and reports the winning model.
type TextModel interface {
	Ask(ctx context.Context, models []string, prompt string, budget gemini.Budget) (text, model string, err error)
}

// Config selects models and article length.
type Config struct {
	Models []string
	Length Length
}

// Writer is the text generation client.
type Writer struct {
	llm    TextModel
	models []string
	length Length
	log    logger.Logger
	now    func() time.Time
}

// New builds a Writer. An empty model list uses gemini.DefaultModels.
func New(llm TextModel, cfg Config, log logger.Logger) *Writer {
	models := cfg.Models
	if len(models) == 0 {
		models = gemini.DefaultModels
	}
	length := cfg.Length
	if length == "" {
		length = LengthMedium
	}
	return &Writer{
		llm:    llm,
		models: models,
		length: length,
		log:    logger.Ensure(log),
		now:    time.Now,
	}
}

// Models returns the configured fallback order.
func (w *Writer) Models() []string { return append([]string(nil), w.models...) }

func (w *Writer) generationBudget() gemini.Budget {
	return gemini.Budget{
		Config: gemini.GenerationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: w.length.MaxOutputTokens(),
		},
		Timeout: generationTimeout,
	}
}

// Generate builds the prompt for topic, asks the model list and parses the first reply.
func (w *Writer) Generate(ctx context.Context, topic domain.Topic) (domain.Draft, error) {
	prompt := BuildPrompt(topic, w.length, w.now())
	w.log.Debug("generating article", "topic", topic.Label(), "prompt_length", len(prompt))

	text, model, err := w.llm.Ask(ctx, w.models, prompt, w.generationBudget())
	if err != nil {
		w.log.Error("all models failed", "error", err)
		return domain.Draft{}, err
	}
	w.log.Info("received model reply", "model", model, "length", len(text))

	draft, ok := parser.Parse(text)
	if !ok {
		return domain.Draft{}, &domain.ParseError{Reason: "missing title or content"}
	}
	return draft, nil
}

// TestConnection sends a tiny prompt through the model list and returns the model that answered.
func (w *Writer) TestConnection(ctx context.Context) (string, error) {
	budget := gemini.Budget{
		Config:  gemini.GenerationConfig{Temperature: 0.7, MaxOutputTokens: 10},
		Timeout: testTimeout,
	}
	_, model, err := w.llm.Ask(ctx, w.models, testPrompt, budget)
	if err != nil {
		return "", err
	}
	return model, nil
}
