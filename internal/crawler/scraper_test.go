package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

const page = `<html><head>
<meta property="og:description" content=" Lawmakers approved the plan. ">
<meta property="og:image" content="/img/lead.jpg">
<meta property="og:site_name" content="Daily Post">
</head><body><article><p>The WHO said "cases fell" by 20% on 03/04/2025.</p></article></body></html>`

func TestEnrichFillsGaps(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	complete := domain.TopicRecord{
		Title: "Done", Description: "d", ImageURL: "i", SourceURL: srv.URL + "/done",
		Facts: domain.Facts{Dates: []string{"1/1/2025"}},
	}
	records := []domain.TopicRecord{
		{Title: "Plan approved", SourceURL: srv.URL + "/story"},
		{Title: "Gone", SourceURL: srv.URL + "/missing"},
		{Title: "No url"},
		complete,
	}

	s := NewScraper(httpclient.NewRestyClient(5*time.Second), nil, 0)
	out := s.Enrich(context.Background(), records)

	if len(out) != len(records) {
		t.Fatalf("len = %d", len(out))
	}
	got := out[0]
	if got.Description != "Lawmakers approved the plan." {
		t.Errorf("description = %q", got.Description)
	}
	if got.ImageURL != srv.URL+"/img/lead.jpg" {
		t.Errorf("image = %q", got.ImageURL)
	}
	if got.SourceName != "Daily Post" {
		t.Errorf("source = %q", got.SourceName)
	}
	if len(got.Facts.Quotes) != 1 || got.Facts.Quotes[0] != "cases fell" {
		t.Errorf("facts = %+v", got.Facts)
	}
	if out[1].Description != "" || out[1].Title != "Gone" {
		t.Errorf("failed scrape should keep the record: %+v", out[1])
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("page requests = %d, want 2", hits)
	}
	if records[0].Description != "" {
		t.Error("input slice was modified")
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct{ raw, base, want string }{
		{"https://cdn.x/a.jpg", "https://x/story", "https://cdn.x/a.jpg"},
		{"/a.jpg", "https://x/news/story", "https://x/a.jpg"},
		{"a.jpg", "https://x/news/story", "https://x/news/a.jpg"},
	}
	for _, c := range cases {
		if got := resolveURL(c.raw, c.base); got != c.want {
			t.Errorf("resolveURL(%q, %q) = %q, want %q", c.raw, c.base, got, c.want)
		}
	}
}
