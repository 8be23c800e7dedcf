// Package crawler enriches topic records with metadata scraped from the article pages.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/providers"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxWorkers       = 10
	maxFactTextBytes = 8 << 10
)

// Scraper fills missing descriptions, images and facts from each record's page.
type Scraper struct {
	client  httpclient.Client
	log     logger.Logger
	delay   time.Duration
	headers map[string]string
}

// NewScraper builds a Scraper. delay spaces page requests across all workers; zero disables it.
func NewScraper(client httpclient.Client, log logger.Logger, delay time.Duration) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	return &Scraper{
		client:  client,
		log:     logger.Ensure(log),
		delay:   delay,
		headers: providers.Headers(providers.Provider{}),
	}
}

// Enrich returns a copy of records with gaps filled where a page could be scraped. Records that
// are already complete, or have no source URL, are not fetched. Failures keep the original record.
func (s *Scraper) Enrich(ctx context.Context, records []domain.TopicRecord) []domain.TopicRecord {
	out := make([]domain.TopicRecord, len(records))
	copy(out, records)

	var jobs []int
	for i, rec := range records {
		if needsEnrichment(rec) {
			jobs = append(jobs, i)
		}
	}
	if len(jobs) == 0 {
		return out
	}

	var limiter <-chan time.Time
	if s.delay > 0 {
		ticker := time.NewTicker(s.delay)
		defer ticker.Stop()
		limiter = ticker.C
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup
	for workerID := range min(len(jobs), maxWorkers) {
		wg.Add(1)
		go s.worker(ctx, workerID, records, out, jobCh, limiter, &wg)
	}

feed:
	for _, idx := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- idx:
		}
	}
	close(jobCh)
	wg.Wait()

	return out
}

func needsEnrichment(rec domain.TopicRecord) bool {
	if strings.TrimSpace(rec.SourceURL) == "" {
		return false
	}
	return rec.Description == "" || rec.ImageURL == "" || rec.Facts.Empty()
}

func (s *Scraper) worker(
	ctx context.Context,
	workerID int,
	records []domain.TopicRecord,
	out []domain.TopicRecord,
	jobCh <-chan int,
	limiter <-chan time.Time,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for idx := range jobCh {
		if ctx.Err() != nil {
			return
		}
		if limiter != nil {
			select {
			case <-ctx.Done():
				return
			case <-limiter:
			}
		}

		rec := records[idx]
		enriched, err := s.scrape(ctx, rec)
		if err != nil {
			s.log.WarnObj("topic page scrape failed", "scrape_error", map[string]any{
				"worker_id":   workerID,
				"provider_id": rec.ProviderID,
				"url":         rec.SourceURL,
				"error":       err.Error(),
			})
			continue
		}
		out[idx] = enriched
	}
}

func (s *Scraper) scrape(ctx context.Context, rec domain.TopicRecord) (domain.TopicRecord, error) {
	resp, err := s.client.Get(ctx, rec.SourceURL, s.headers)
	if err != nil {
		return rec, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return rec, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return rec, err
	}

	if rec.Description == "" {
		rec.Description = meta.Description
	}
	if rec.ImageURL == "" && meta.ImageURL != "" {
		rec.ImageURL = resolveURL(meta.ImageURL, rec.SourceURL)
	}
	if rec.SourceName == "" {
		rec.SourceName = meta.SiteName
	}
	if rec.Facts.Empty() && meta.Text != "" {
		rec.Facts = providers.ExtractFacts(meta.Text)
	}
	return rec, nil
}

type pageMeta struct {
	Description string
	ImageURL    string
	SiteName    string
	Text        string
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	content := func(sel string) string {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}

	var text strings.Builder
	paragraphs := doc.Find("article p")
	if paragraphs.Length() == 0 {
		paragraphs = doc.Find("p")
	}
	paragraphs.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if t := strings.TrimSpace(p.Text()); t != "" {
			text.WriteString(t)
			text.WriteByte('\n')
		}
		return text.Len() < maxFactTextBytes
	})

	return pageMeta{
		Description: firstNonEmpty(content(`meta[property="og:description"]`), content(`meta[name="description"]`)),
		ImageURL:    firstNonEmpty(content(`meta[property="og:image"]`), content(`meta[name="twitter:image"]`)),
		SiteName:    content(`meta[property="og:site_name"]`),
		Text:        text.String(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// resolveURL resolves a possibly relative URL against base.
func resolveURL(raw, base string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}
	return baseURL.ResolveReference(parsed).String()
}
