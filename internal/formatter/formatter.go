// Package formatter normalises a draft body into the newspaper HTML layout.
package formatter

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

const (
	wrapperOpen  = `<div class="newspaper-article">`
	wrapperClose = `</div>`

	wallOfTextMin = 500
	excerptLen    = 160
	sentenceGroup = 3
)

var (
	markerRe      = regexp.MustCompile(`(?i)\[\s*MINI_TITLE\s*\](.*?)\[\s*/\s*MINI_TITLE\s*\]`)
	strayMarkerRe = regexp.MustCompile(`(?i)\[\s*/?\s*MINI_TITLE\s*\]`)
	blockLineRe   = regexp.MustCompile(`(?i)^</?(?:h[1-6]|p|blockquote|div|ul|ol|li)(?:\s|>|/)`)
	listOpenRe    = regexp.MustCompile(`(?i)^<(?:ul|ol)(?:\s|>)`)
	listCloseRe   = regexp.MustCompile(`(?i)</(?:ul|ol)>\s*$`)
	bulletRe      = regexp.MustCompile(`^[-*•]\s+`)
	transitionRe  = regexp.MustCompile(`(?i)\b(?:however|meanwhile|furthermore|additionally|moreover|nevertheless|consequently|therefore|thus|hence|as a result|in conclusion|in summary)\b`)
	newlinesRe    = regexp.MustCompile(`\n{3,}`)
	spacesRe      = regexp.MustCompile(`\s{2,}`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
)

// Format derives the publishable article from d.
func Format(d domain.Draft) (domain.FormattedArticle, error) {
	body, err := Body(d.RawBody, d.Title)
	if err != nil {
		return domain.FormattedArticle{}, err
	}

	excerpt := strings.TrimSpace(d.MetaDescription)
	if excerpt == "" {
		excerpt = Excerpt(body)
	}

	return domain.FormattedArticle{
		Title:           d.Title,
		Excerpt:         excerpt,
		BodyHTML:        body,
		Keywords:        d.SEOKeywords,
		MetaDescription: d.MetaDescription,
		URLSlug:         d.URLSlug,
		Sources:         d.Sources,
	}, nil
}

// Body runs the five formatting stages over raw in order.
func Body(raw, title string) (string, error) {
	body := strings.ReplaceAll(strings.ReplaceAll(raw, "\r\n", "\n"), "\r", "\n")
	body = removeTitleEcho(body, title)
	wall := !strings.Contains(body, "\n") && len(body) > wallOfTextMin

	body = substituteMarkers(body)
	body = rebuildParagraphs(body, wall)

	doc, err := parse(body)
	if err != nil {
		return "", err
	}
	addStyling(doc)
	return sanitize(doc)
}

func removeTitleEcho(body, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return strings.TrimSpace(body)
	}
	q := regexp.QuoteMeta(title)
	variants := []string{
		`<h1>` + q + `</h1>`,
		`<h2>` + q + `</h2>`,
		`## ` + q,
		`# ` + q,
		q,
	}
	for _, v := range variants {
		body = regexp.MustCompile(`(?i)` + v).ReplaceAllLiteralString(body, "")
	}
	return strings.TrimSpace(body)
}

func substituteMarkers(body string) string {
	body = markerRe.ReplaceAllStringFunc(body, func(m string) string {
		heading := strings.TrimSpace(markerRe.FindStringSubmatch(m)[1])
		if heading == "" {
			return "\n"
		}
		return "\n<h3>" + heading + "</h3>\n"
	})
	return strayMarkerRe.ReplaceAllLiteralString(body, "")
}

// splitSentences cuts after '.', '!' or '?' when whitespace follows.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// groupSentences regroups a wall of text every few sentences or right after a transition word.
func groupSentences(text string) []string {
	var (
		paragraphs []string
		current    []string
	)
	for _, s := range splitSentences(text) {
		current = append(current, s)
		if len(current) >= sentenceGroup || transitionRe.MatchString(s) {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return paragraphs
}

func rebuildParagraphs(body string, wall bool) string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if wall && !blockLineRe.MatchString(line) {
			lines = append(lines, groupSentences(line)...)
			continue
		}
		lines = append(lines, line)
	}

	var (
		out       []string
		items     []string
		listDepth int
	)
	flush := func() {
		if len(items) > 0 {
			out = append(out, "<ul>"+strings.Join(items, "")+"</ul>")
			items = nil
		}
	}

	for _, line := range lines {
		switch {
		case blockLineRe.MatchString(line):
			if listDepth == 0 && strings.HasPrefix(strings.ToLower(line), "<li") {
				items = append(items, line)
				continue
			}
			flush()
			if listOpenRe.MatchString(line) && !listCloseRe.MatchString(line) {
				listDepth++
			} else if listDepth > 0 && listCloseRe.MatchString(line) && !listOpenRe.MatchString(line) {
				listDepth--
			}
			out = append(out, line)
		case bulletRe.MatchString(line):
			item := "<li>" + bulletRe.ReplaceAllLiteralString(line, "") + "</li>"
			if listDepth > 0 {
				out = append(out, item)
				continue
			}
			items = append(items, item)
		default:
			flush()
			out = append(out, "<p>"+line+"</p>")
		}
	}
	flush()
	return strings.Join(out, "")
}

func parse(fragment string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		return nil, fmt.Errorf("parse article html: %w", err)
	}
	return doc, nil
}

func hasText(s *goquery.Selection) bool {
	return strings.TrimSpace(s.Text()) != "" || s.Find("img").Length() > 0
}

func addStyling(doc *goquery.Document) {
	body := doc.Find("body")
	body.Find("p").FilterFunction(func(_ int, s *goquery.Selection) bool { return hasText(s) }).First().AddClass("lead-paragraph")
	body.Find("h3").AddClass("section-heading")
	body.Find("blockquote").AddClass("professional-quote")
	body.Find("ul, ol").AddClass("article-list")
	body.Find("li").AddClass("article-list-item")
}

func sanitize(doc *goquery.Document) (string, error) {
	body := doc.Find("body")

	body.Find("h1, h2").Each(func(_ int, h *goquery.Selection) {
		h.ReplaceWithSelection(h.Contents())
	})

	// Children first so emptied lists are caught on the second selector.
	for _, sel := range []string{"p, li, h3", "ul, ol, blockquote"} {
		body.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if !hasText(s) {
				s.Remove()
			}
		})
	}

	root := body
	if kids := body.Children(); kids.Length() == 1 && kids.Is("div.newspaper-article") &&
		strings.TrimSpace(body.Text()) == strings.TrimSpace(kids.Text()) {
		root = kids
	}

	inner, err := root.Html()
	if err != nil {
		return "", fmt.Errorf("render article html: %w", err)
	}
	inner = newlinesRe.ReplaceAllString(inner, "\n")
	inner = strings.TrimSpace(spacesRe.ReplaceAllString(inner, " "))

	return wrapperOpen + "\n" + inner + "\n" + wrapperClose, nil
}

// Excerpt returns the first characters of the tag-stripped body, with an ellipsis when cut.
func Excerpt(bodyHTML string) string {
	text := html.UnescapeString(tagRe.ReplaceAllString(bodyHTML, " "))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptLen {
		return text
	}
	return string([]rune(text)[:excerptLen]) + "..."
}
