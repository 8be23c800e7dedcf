package writer

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

// Length is the content-length setting.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// ParseLength maps a config value to a Length, defaulting to medium.
func ParseLength(raw string) Length {
	switch Length(strings.ToLower(strings.TrimSpace(raw))) {
	case LengthShort:
		return LengthShort
	case LengthLong:
		return LengthLong
	default:
		return LengthMedium
	}
}

// WordRange is the target word count placed in the prompt.
func (l Length) WordRange() string {
	switch l {
	case LengthShort:
		return "300-500"
	case LengthLong:
		return "800-1200"
	default:
		return "500-800"
	}
}

// MaxOutputTokens is the output budget for one generation call.
func (l Length) MaxOutputTokens() int {
	switch l {
	case LengthShort:
		return 2048
	case LengthLong:
		return 4096
	default:
		return 3072
	}
}

var subheadingExamples = []string{
	"Key Developments", "Industry Impact", "Future Outlook", "Expert Analysis",
	"Market Response", "Technical Details", "Consumer Impact", "Global Implications",
}

// BuildPrompt renders the article prompt for topic.
func BuildPrompt(topic domain.Topic, length Length, now time.Time) string {
	date := now.Format("January 2, 2006")

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional journalist assistant. Write a professional, SEO-friendly news article grounded in real news as of %s.\n\n", date)

	if rec, ok := topic.Record(); ok {
		writeSourceBlock(&b, rec)
	} else {
		subject := strings.TrimSpace(topic.Label())
		if subject == "" {
			subject = "General News"
		}
		fmt.Fprintf(&b, "Research and write about: **%s**\n\n", subject)
	}

	b.WriteString("## ARTICLE STRUCTURE\n")
	b.WriteString("1. Title: engaging and SEO-optimized, not clickbait\n")
	b.WriteString("2. Meta description: at most 160 characters\n")
	b.WriteString("3. Five SEO keywords related to the article\n")
	b.WriteString("4. URL slug\n")
	fmt.Fprintf(&b, "5. Length: between %s words\n", length.WordRange())
	b.WriteString("6. Tone: clear, professional and neutral\n")
	b.WriteString("7. Introduction, several subheadings, lists where useful, and a conclusion\n")
	b.WriteString("8. Sources used, with URLs where possible\n\n")

	b.WriteString("## RULES\n")
	b.WriteString("- Use semantic HTML for body content (<p>, <ul>, <li>, <blockquote>)\n")
	b.WriteString("- Separate paragraphs with blank lines and keep them to 2-3 sentences\n")
	b.WriteString("- CRITICAL: mark every subheading as [MINI_TITLE]Subheading[/MINI_TITLE], for example:\n")
	for _, ex := range subheadingExamples {
		fmt.Fprintf(&b, "  [MINI_TITLE]%s[/MINI_TITLE]\n", ex)
	}
	b.WriteString("- Write in third person, past tense, active voice\n")
	b.WriteString("- Use transition words (However, Meanwhile, Furthermore, Additionally, Moreover)\n")
	b.WriteString("- DO NOT repeat the headline in the article body\n")
	b.WriteString("- DO NOT include bylines or author names\n")
	b.WriteString("- DO NOT invent quotes, statistics or people\n\n")

	b.WriteString("Format your response exactly as:\n")
	b.WriteString("TITLE: [Your headline]\n")
	b.WriteString("META_DESCRIPTION: [Your meta description - max 160 characters]\n")
	b.WriteString("SEO_KEYWORDS: [5 comma-separated keywords]\n")
	b.WriteString("URL_SLUG: [suggested-url-slug]\n")
	b.WriteString("CONTENT: [Your formatted article content]\n")
	b.WriteString("SOURCES: [List of sources used]\n")
	return b.String()
}

func writeSourceBlock(b *strings.Builder, rec domain.TopicRecord) {
	b.WriteString("Use the following real news item as your primary source:\n\n")
	fmt.Fprintf(b, "**Source Article:** %s\n", rec.Title)
	if rec.SourceName != "" {
		fmt.Fprintf(b, "**Source:** %s\n", rec.SourceName)
	}
	if rec.SourceURL != "" {
		fmt.Fprintf(b, "**URL:** %s\n", rec.SourceURL)
	}
	if rec.Category != "" {
		fmt.Fprintf(b, "**Category:** %s\n", rec.Category)
	}
	if rec.Description != "" {
		fmt.Fprintf(b, "**Description:** %s\n", rec.Description)
	}
	b.WriteString("\n")

	f := rec.Facts
	if f.Empty() {
		return
	}
	b.WriteString("**Verified Facts:**\n")
	if len(f.Dates) > 0 {
		fmt.Fprintf(b, "- Dates: %s\n", strings.Join(f.Dates, ", "))
	}
	if len(f.Statistics) > 0 {
		fmt.Fprintf(b, "- Statistics: %s\n", strings.Join(f.Statistics, ", "))
	}
	if len(f.Quotes) > 0 {
		b.WriteString("- Quotes:\n")
		for _, q := range f.Quotes {
			fmt.Fprintf(b, "  - %q\n", q)
		}
	}
	if len(f.Organizations) > 0 {
		fmt.Fprintf(b, "- Organizations: %s\n", strings.Join(f.Organizations, ", "))
	}
	b.WriteString("Use only these facts for names, numbers and quotes.\n\n")
}
