package formatter

import (
	"strings"
	"testing"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

func mustBody(t *testing.T, raw, title string) string {
	t.Helper()
	out, err := Body(raw, title)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	return out
}

func TestBodyMarkerScenario(t *testing.T) {
	got := mustBody(t, "[MINI_TITLE]Impact[/MINI_TITLE]\nSome text here.", "Unrelated Headline")
	want := `<div class="newspaper-article">` + "\n" +
		`<h3 class="section-heading">Impact</h3><p class="lead-paragraph">Some text here.</p>` +
		"\n</div>"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestBodyMalformedMarkers(t *testing.T) {
	tests := []string{
		"[MINI_TITLE ]Outlook[/MINI_TITLE]\nText.",
		"[MINI_TITLE]Outlook[/MINI_TITLE ]\nText.",
		"[ mini_title ]  Outlook  [ / MINI_TITLE ]\nText.",
	}
	for _, raw := range tests {
		got := mustBody(t, raw, "")
		if !strings.Contains(got, `<h3 class="section-heading">Outlook</h3>`) {
			t.Errorf("%q: heading missing in %s", raw, got)
		}
		if strings.Contains(strings.ToUpper(got), "MINI_TITLE") {
			t.Errorf("%q: marker leaked: %s", raw, got)
		}
	}
}

func TestBodyStrayMarkerRemoved(t *testing.T) {
	got := mustBody(t, "[MINI_TITLE]Unclosed heading\nBody text.", "")
	if strings.Contains(got, "MINI_TITLE") {
		t.Errorf("marker leaked: %s", got)
	}
}

func TestBodyTitleEchoRemoval(t *testing.T) {
	title := "Markets Rally"
	tests := []string{
		"<h1>Markets Rally</h1>\nStocks rose.",
		"<h2>markets rally</h2>\nStocks rose.",
		"# Markets Rally\nStocks rose.",
		"## MARKETS RALLY\nStocks rose.",
		"Markets Rally\nStocks rose.",
	}
	for _, raw := range tests {
		got := mustBody(t, raw, title)
		if strings.Contains(strings.ToLower(got), "markets rally") {
			t.Errorf("%q: title echoed in %s", raw, got)
		}
		if strings.Contains(got, "#") {
			t.Errorf("%q: markdown residue in %s", raw, got)
		}
		if !strings.Contains(got, `<p class="lead-paragraph">Stocks rose.</p>`) {
			t.Errorf("%q: body lost: %s", raw, got)
		}
	}
}

func TestBodyEmptyTitleSkipsEchoRemoval(t *testing.T) {
	got := mustBody(t, "Plain line.", "")
	if !strings.Contains(got, "Plain line.") {
		t.Errorf("got %s", got)
	}
}

func TestBodyBulletsCoalesce(t *testing.T) {
	raw := "Intro line.\n- first\n* second\n• third\nOutro line."
	got := mustBody(t, raw, "")
	want := `<p class="lead-paragraph">Intro line.</p>` +
		`<ul class="article-list"><li class="article-list-item">first</li><li class="article-list-item">second</li><li class="article-list-item">third</li></ul>` +
		`<p>Outro line.</p>`
	if !strings.Contains(got, want) {
		t.Errorf("got\n%s\nwant fragment\n%s", got, want)
	}
}

func TestBodyExplicitListNotNested(t *testing.T) {
	raw := "<ul>\n<li>one</li>\n<li>two</li>\n</ul>"
	got := mustBody(t, raw, "")
	if strings.Count(got, "<ul") != 1 {
		t.Errorf("expected a single list: %s", got)
	}
	if strings.Count(got, `<li class="article-list-item">`) != 2 {
		t.Errorf("list items missing class: %s", got)
	}
}

func TestBodyWallOfText(t *testing.T) {
	sentences := []string{
		"The summit opened in Geneva on Monday.",
		"Delegates from forty nations attended.",
		"Talks focused on trade.",
		"However, energy dominated the second day.",
		"Several ministers issued statements.",
		"Observers called the meeting productive.",
		"A final communique is expected on Friday.",
		"The next summit will take place in Nairobi next spring, organisers confirmed.",
	}
	raw := strings.Join(sentences, " ") + " " +
		strings.TrimSpace(strings.Repeat("Additional background context was shared with reporters today. ", 3))
	if len(raw) <= 500 {
		t.Fatalf("fixture is not a wall of text (len %d)", len(raw))
	}

	got := mustBody(t, raw, "")
	if n := strings.Count(got, "<p"); n < 3 {
		t.Fatalf("expected the wall to be split, got %d paragraphs: %s", n, got)
	}
	wantFirst := `<p class="lead-paragraph">The summit opened in Geneva on Monday. Delegates from forty nations attended. Talks focused on trade.</p>`
	if !strings.Contains(got, wantFirst) {
		t.Errorf("first paragraph should group three sentences: %s", got)
	}
	if !strings.Contains(got, "<p>However, energy dominated the second day.</p>") {
		t.Errorf("transition sentence should close its paragraph: %s", got)
	}
}

func TestBodyShortSingleLineNotSplit(t *testing.T) {
	got := mustBody(t, "One. Two. Three. Four.", "")
	if strings.Count(got, "<p") != 1 {
		t.Errorf("short body should remain one paragraph: %s", got)
	}
}

func TestBodySanitation(t *testing.T) {
	raw := "<h1>Stray</h1>\n<h2>Another</h2>\n<p></p>\n<p>   </p>\n<p>Unclosed paragraph\n<blockquote>Quoted words</blockquote>\n\n\n\nFinal   words   here."
	got := mustBody(t, raw, "")

	for _, bad := range []string{"<h1", "<h2", "<p></p>", "<p> </p>", "  "} {
		if strings.Contains(got, bad) {
			t.Errorf("output contains %q: %s", bad, got)
		}
	}
	for _, want := range []string{"Stray", "Another", `<blockquote class="professional-quote">Quoted words</blockquote>`, "Final words here.", "Unclosed paragraph</p>"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %s", want, got)
		}
	}
	if strings.Count(got, `<div class="newspaper-article">`) != 1 {
		t.Errorf("expected exactly one wrapper: %s", got)
	}
}

func TestBodyIdempotent(t *testing.T) {
	inputs := []string{
		"[MINI_TITLE]Impact[/MINI_TITLE]\nSome text here.",
		"Intro.\n- a\n- b\n<blockquote>q</blockquote>\n<h2>Sub</h2>\nEnd.",
		strings.Repeat("Markets moved sharply today. ", 25),
	}
	for _, raw := range inputs {
		once := mustBody(t, raw, "Headline")
		twice := mustBody(t, once, "Headline")
		if once != twice {
			t.Errorf("not idempotent:\nonce  %s\ntwice %s", once, twice)
		}
		for _, bad := range []string{"MINI_TITLE", "<h1", "<h2", "<p></p>"} {
			if strings.Contains(twice, bad) {
				t.Errorf("second pass contains %q: %s", bad, twice)
			}
		}
	}
}

func TestFormatExcerpt(t *testing.T) {
	long := strings.Repeat("word ", 60)
	a, err := Format(domain.Draft{Title: "T", RawBody: long})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.HasSuffix(a.Excerpt, "...") || len([]rune(a.Excerpt)) != 163 {
		t.Errorf("excerpt = %q", a.Excerpt)
	}

	b, err := Format(domain.Draft{Title: "T", RawBody: "body", MetaDescription: "Meta text", SEOKeywords: "a, b", URLSlug: "s", Sources: "src"})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if b.Excerpt != "Meta text" || b.Keywords != "a, b" || b.URLSlug != "s" || b.Sources != "src" {
		t.Errorf("article = %+v", b)
	}
}

func TestExcerptShortBody(t *testing.T) {
	got := Excerpt(`<div class="newspaper-article"><h3>Head</h3><p>It&#39;s short.</p></div>`)
	if got != "Head It's short." {
		t.Errorf("excerpt = %q", got)
	}
}
