package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestTopicVariants(t *testing.T) {
	g := GenericTopic("Space Exploration")
	if g.Kind() != TopicGeneric {
		t.Fatalf("kind = %v", g.Kind())
	}
	if _, ok := g.Record(); ok {
		t.Error("generic topic should not expose a record")
	}
	if g.Label() != "Space Exploration" || g.ClassifierText() != "Space Exploration" {
		t.Errorf("label/classifier text = %q/%q", g.Label(), g.ClassifierText())
	}

	s := SourcedTopic(TopicRecord{Title: "Vaccine rollout expands"})
	rec, ok := s.Record()
	if !ok || rec.Title != "Vaccine rollout expands" {
		t.Fatalf("record = %+v ok=%v", rec, ok)
	}
	if s.Label() != "Vaccine rollout expands" {
		t.Errorf("label = %q", s.Label())
	}
	if s.ClassifierText() != "" {
		t.Errorf("sourced classifier text = %q", s.ClassifierText())
	}
}

func TestDraftValid(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  bool
	}{
		{"complete", Draft{Title: "T", RawBody: "B"}, true},
		{"missing title", Draft{RawBody: "B", MetaDescription: "m"}, false},
		{"missing body", Draft{Title: "T", Sources: "s"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.draft.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchResultSuccess(t *testing.T) {
	if (BatchResult{}).Success() {
		t.Error("empty batch should not succeed")
	}
	if !(BatchResult{TotalGenerated: 1, Errors: []string{"x"}}).Success() {
		t.Error("partial batch should succeed")
	}
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", &ConfigurationError{Field: "count", Reason: "out of range"})
	if !IsConfiguration(wrapped) {
		t.Error("expected configuration error")
	}
	if IsParse(wrapped) {
		t.Error("did not expect parse error")
	}
	if !IsParse(fmt.Errorf("x: %w", &ParseError{})) {
		t.Error("expected parse error")
	}

	inner := errors.New("disk full")
	se := &SideEffectError{Step: "seo_meta", Err: inner}
	if !errors.Is(se, inner) {
		t.Error("side effect error should unwrap")
	}
}

func TestProviderErrorMessageIsLastError(t *testing.T) {
	err := &ProviderError{Provider: "gemini", Message: "quota exceeded"}
	if err.Error() != "quota exceeded" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
