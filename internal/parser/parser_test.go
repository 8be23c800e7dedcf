package parser

import "testing"

func TestParseFullReply(t *testing.T) {
	raw := `Here is your article.
TITLE: Solar Capacity Hits Record
META_DESCRIPTION: Global solar installations grew sharply.
SEO_KEYWORDS: solar, energy, renewables, climate, grid
URL_SLUG: solar-capacity-record

CONTENT:
[MINI_TITLE]Key Developments[/MINI_TITLE]
Installations rose across Asia.

Europe followed closely.
SOURCES:
https://example.com/solar
https://example.com/iea
`
	d, ok := Parse(raw)
	if !ok {
		t.Fatal("expected valid draft")
	}
	if d.Title != "Solar Capacity Hits Record" {
		t.Errorf("title = %q", d.Title)
	}
	if d.MetaDescription != "Global solar installations grew sharply." {
		t.Errorf("meta = %q", d.MetaDescription)
	}
	if d.SEOKeywords != "solar, energy, renewables, climate, grid" {
		t.Errorf("keywords = %q", d.SEOKeywords)
	}
	if d.URLSlug != "solar-capacity-record" {
		t.Errorf("slug = %q", d.URLSlug)
	}
	wantBody := "[MINI_TITLE]Key Developments[/MINI_TITLE]\nInstallations rose across Asia.\nEurope followed closely."
	if d.RawBody != wantBody {
		t.Errorf("body = %q, want %q", d.RawBody, wantBody)
	}
	if d.Sources != "https://example.com/solar\nhttps://example.com/iea" {
		t.Errorf("sources = %q", d.Sources)
	}
}

func TestParseValidityGate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"title and content", "TITLE: X\nCONTENT:\nbody", true},
		{"content on prefix line", "TITLE: X\nCONTENT: inline body", true},
		{"missing title", "META_DESCRIPTION: m\nSEO_KEYWORDS: a\nURL_SLUG: s\nCONTENT:\nbody\nSOURCES:\nsrc", false},
		{"empty title", "TITLE:   \nCONTENT:\nbody", false},
		{"missing content", "TITLE: X\nMETA_DESCRIPTION: m\nSOURCES:\nsrc", false},
		{"content header only", "TITLE: X\nCONTENT:\n\n\nSOURCES:\nsrc", false},
		{"lowercase prefixes ignored", "title: X\ncontent:\nbody", false},
		{"empty reply", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Parse(tt.raw); ok != tt.want {
				t.Errorf("valid = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestParseLinesBeforeAnySectionAreDropped(t *testing.T) {
	d, _ := Parse("preamble\nTITLE: X\nstray line\nCONTENT:\nbody")
	if d.RawBody != "body" {
		t.Errorf("body = %q", d.RawBody)
	}
}

func TestParseSingleLineFieldDoesNotEndSection(t *testing.T) {
	d, ok := Parse("CONTENT:\nfirst\nTITLE: Late Title\nsecond")
	if !ok {
		t.Fatal("expected valid draft")
	}
	if d.RawBody != "first\nsecond" {
		t.Errorf("body = %q", d.RawBody)
	}
	if d.Title != "Late Title" {
		t.Errorf("title = %q", d.Title)
	}
}
