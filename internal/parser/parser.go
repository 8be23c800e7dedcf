// Package parser extracts the labelled fields of a model reply into a draft.
package parser

import (
	"strings"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

const (
	prefixTitle    = "TITLE:"
	prefixMeta     = "META_DESCRIPTION:"
	prefixKeywords = "SEO_KEYWORDS:"
	prefixSlug     = "URL_SLUG:"
	prefixContent  = "CONTENT:"
	prefixSources  = "SOURCES:"
)

type section int

const (
	sectionNone section = iota
	sectionContent
	sectionSources
)

// Parse scans raw line by line. Prefixes are case sensitive and must start the trimmed line.
// CONTENT and SOURCES open a multi-line section that collects every following non-prefixed line.
// The returned draft is only usable when ok is true.
func Parse(raw string) (domain.Draft, bool) {
	var (
		d       domain.Draft
		current = sectionNone
		content []string
		sources []string
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, prefixTitle):
			d.Title = field(line, prefixTitle)
		case strings.HasPrefix(line, prefixMeta):
			d.MetaDescription = field(line, prefixMeta)
		case strings.HasPrefix(line, prefixKeywords):
			d.SEOKeywords = field(line, prefixKeywords)
		case strings.HasPrefix(line, prefixSlug):
			d.URLSlug = field(line, prefixSlug)
		case strings.HasPrefix(line, prefixContent):
			current = sectionContent
			if rest := field(line, prefixContent); rest != "" {
				content = append(content, rest)
			}
		case strings.HasPrefix(line, prefixSources):
			current = sectionSources
			if rest := field(line, prefixSources); rest != "" {
				sources = append(sources, rest)
			}
		case current == sectionContent:
			content = append(content, line)
		case current == sectionSources:
			sources = append(sources, line)
		}
	}

	d.RawBody = strings.Join(content, "\n")
	d.Sources = strings.Join(sources, "\n")
	return d, d.Valid()
}

func field(line, prefix string) string {
	return strings.TrimSpace(line[len(prefix):])
}
