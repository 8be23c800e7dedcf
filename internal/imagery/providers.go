package imagery

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

// Source tags reported in ImageResult.SourceTag.
const (
	TagPollinations = "pollinations-ai"
	TagHuggingFace  = "stable-diffusion"
	TagLexica       = "lexica"
	TagUnsplash     = "unsplash"
	TagPexels       = "pexels"
	TagPlaceholder  = "local-fallback"
)

const (
	DefaultPollinationsURL = "https://image.pollinations.ai"
	DefaultHuggingFaceURL  = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"
	DefaultLexicaURL       = "https://lexica.art"
	DefaultUnsplashURL     = "https://api.unsplash.com"
	DefaultPexelsURL       = "https://api.pexels.com"

	negativePrompt = "text, watermark, logo, label, banner, title, words, letters, signature, timestamp, date"

	verifyTimeout = 10 * time.Second
	aiTimeout     = 30 * time.Second
	searchTimeout = 15 * time.Second
	stockTimeout  = 30 * time.Second
)

var errMissingKey = errors.New("credentials not configured")

// Request is the input shared by every stage.
type Request struct {
	Title  string
	Topic  string
	Prompt string
}

type pollinations struct {
	client httpclient.Client
	base   string
	verify bool
	now    func() time.Time
}

func (p *pollinations) Name() string { return TagPollinations }

func (p *pollinations) Attempt(ctx context.Context, req Request) (domain.ImageResult, error) {
	now := p.now()
	seed := fmt.Sprintf("%d-%06d", now.Unix(), now.Nanosecond()/1000)

	q := url.Values{}
	q.Set("width", "1920")
	q.Set("height", "1080")
	q.Set("seed", seed)
	q.Set("nologo", "true")
	q.Set("enhance", "true")
	q.Set("quality", "high")
	q.Set("style", "photographic")
	imageURL := fmt.Sprintf("%s/prompt/%s?%s", p.base, url.QueryEscape(req.Prompt), q.Encode())

	if p.verify {
		ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
		defer cancel()
		resp, err := p.client.Head(ctx, imageURL, nil)
		if err != nil {
			return domain.ImageResult{}, fmt.Errorf("verify pollinations image: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return domain.ImageResult{}, fmt.Errorf("pollinations returned status %d", resp.StatusCode())
		}
		if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
			return domain.ImageResult{}, fmt.Errorf("pollinations returned content type %q", ct)
		}
	}

	return domain.ImageResult{
		Success:         true,
		ImageURL:        imageURL,
		SourceTag:       TagPollinations,
		AttributionName: "Pollinations AI",
		AttributionURL:  "https://pollinations.ai",
	}, nil
}

type huggingFace struct {
	client   httpclient.Client
	endpoint string
	token    string
	mediaDir string
	now      func() time.Time
}

func (h *huggingFace) Name() string { return TagHuggingFace }

func (h *huggingFace) Attempt(ctx context.Context, req Request) (domain.ImageResult, error) {
	if h.token == "" {
		return domain.ImageResult{}, fmt.Errorf("huggingface: %w", errMissingKey)
	}

	ctx, cancel := context.WithTimeout(ctx, aiTimeout)
	defer cancel()

	payload := map[string]any{
		"inputs": req.Prompt,
		"parameters": map[string]any{
			"negative_prompt":     negativePrompt,
			"num_inference_steps": 30,
			"guidance_scale":      7.5,
		},
	}
	resp, err := h.client.PostJSON(ctx, h.endpoint, map[string]string{"Authorization": "Bearer " + h.token}, payload)
	if err != nil {
		return domain.ImageResult{}, fmt.Errorf("huggingface request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.ImageResult{}, fmt.Errorf("huggingface returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	data, err := decodeImagePayload(resp.Body())
	if err != nil {
		return domain.ImageResult{}, err
	}

	if err := os.MkdirAll(h.mediaDir, 0o755); err != nil {
		return domain.ImageResult{}, fmt.Errorf("create media dir: %w", err)
	}
	path := filepath.Join(h.mediaDir, fmt.Sprintf("ai-generated-%d.jpg", h.now().UnixNano()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.ImageResult{}, fmt.Errorf("save generated image: %w", err)
	}

	return domain.ImageResult{
		Success:         true,
		ImageURL:        path,
		SourceTag:       TagHuggingFace,
		AttributionName: "Stable Diffusion XL",
		AttributionURL:  "https://stability.ai",
	}, nil
}

// decodeImagePayload accepts a base64 encoded image or raw image bytes.
func decodeImagePayload(body []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, errors.New("huggingface returned an empty body")
	}
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) > 0 {
		return decoded, nil
	}
	if strings.HasPrefix(http.DetectContentType(body), "image/") {
		return body, nil
	}
	return nil, errors.New("huggingface returned an undecodable payload")
}

type lexica struct {
	client httpclient.Client
	base   string
}

func (l *lexica) Name() string { return TagLexica }

func (l *lexica) Attempt(ctx context.Context, req Request) (domain.ImageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	resp, err := l.client.Get(ctx, l.base+"/api/v1/search?q="+url.QueryEscape(req.Prompt), nil)
	if err != nil {
		return domain.ImageResult{}, fmt.Errorf("lexica request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.ImageResult{}, fmt.Errorf("lexica returned status %d", resp.StatusCode())
	}

	var decoded struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	}
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return domain.ImageResult{}, fmt.Errorf("decode lexica response: %w", err)
	}
	if len(decoded.Images) == 0 || strings.TrimSpace(decoded.Images[0].URL) == "" {
		return domain.ImageResult{}, errors.New("lexica returned no images")
	}

	return domain.ImageResult{
		Success:         true,
		ImageURL:        decoded.Images[0].URL,
		SourceTag:       TagLexica,
		AttributionName: "Lexica Art",
		AttributionURL:  "https://lexica.art",
	}, nil
}

type unsplash struct {
	client httpclient.Client
	base   string
	key    string
	high   bool
}

func (u *unsplash) Name() string { return TagUnsplash }

func (u *unsplash) Attempt(ctx context.Context, req Request) (domain.ImageResult, error) {
	if u.key == "" {
		return domain.ImageResult{}, fmt.Errorf("unsplash: %w", errMissingKey)
	}

	ctx, cancel := context.WithTimeout(ctx, stockTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("query", req.Prompt)
	q.Set("orientation", "landscape")
	q.Set("count", "1")
	resp, err := u.client.Get(ctx, u.base+"/photos/random?"+q.Encode(), map[string]string{"Authorization": "Client-ID " + u.key})
	if err != nil {
		return domain.ImageResult{}, fmt.Errorf("unsplash request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.ImageResult{}, fmt.Errorf("unsplash returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var photos []struct {
		URLs struct {
			Regular string `json:"regular"`
			Full    string `json:"full"`
		} `json:"urls"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp.Body(), &photos); err != nil {
		return domain.ImageResult{}, fmt.Errorf("decode unsplash response: %w", err)
	}
	if len(photos) == 0 || photos[0].URLs.Regular == "" {
		return domain.ImageResult{}, errors.New("unsplash returned no photos")
	}

	photo := photos[0]
	imageURL := photo.URLs.Regular
	if u.high && photo.URLs.Full != "" {
		imageURL = photo.URLs.Full
	}
	return domain.ImageResult{
		Success:         true,
		ImageURL:        imageURL,
		SourceTag:       TagUnsplash,
		AttributionName: photo.User.Name,
		AttributionURL:  photo.User.Links.HTML,
	}, nil
}

type pexels struct {
	client httpclient.Client
	base   string
	key    string
	high   bool
}

func (p *pexels) Name() string { return TagPexels }

func (p *pexels) Attempt(ctx context.Context, req Request) (domain.ImageResult, error) {
	if p.key == "" {
		return domain.ImageResult{}, fmt.Errorf("pexels: %w", errMissingKey)
	}

	ctx, cancel := context.WithTimeout(ctx, stockTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("query", req.Prompt)
	q.Set("orientation", "landscape")
	q.Set("per_page", "1")
	resp, err := p.client.Get(ctx, p.base+"/v1/search?"+q.Encode(), map[string]string{"Authorization": p.key})
	if err != nil {
		return domain.ImageResult{}, fmt.Errorf("pexels request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.ImageResult{}, fmt.Errorf("pexels returned status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var decoded struct {
		Photos []struct {
			Photographer    string `json:"photographer"`
			PhotographerURL string `json:"photographer_url"`
			Src             struct {
				Original string `json:"original"`
				Large2x  string `json:"large2x"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return domain.ImageResult{}, fmt.Errorf("decode pexels response: %w", err)
	}
	if len(decoded.Photos) == 0 || decoded.Photos[0].Src.Large2x == "" {
		return domain.ImageResult{}, errors.New("pexels returned no photos")
	}

	photo := decoded.Photos[0]
	imageURL := photo.Src.Large2x
	if p.high && photo.Src.Original != "" {
		imageURL = photo.Src.Original
	}
	return domain.ImageResult{
		Success:         true,
		ImageURL:        imageURL,
		SourceTag:       TagPexels,
		AttributionName: photo.Photographer,
		AttributionURL:  photo.PhotographerURL,
	}, nil
}

const placeholderSVG = `<svg width="1920" height="1080" xmlns="http://www.w3.org/2000/svg">` +
	`<rect width="1920" height="1080" fill="#2c3e50"/>` +
	`<text x="960" y="540" font-family="Arial" font-size="24" fill="white" text-anchor="middle" dominant-baseline="middle">Generating image...</text>` +
	`</svg>`

type placeholder struct{}

func (placeholder) Name() string { return TagPlaceholder }

func (placeholder) Attempt(context.Context, Request) (domain.ImageResult, error) {
	return Placeholder(), nil
}

// Placeholder is the inline SVG result that ends every chain.
func Placeholder() domain.ImageResult {
	return domain.ImageResult{
		Success:         true,
		ImageURL:        "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(placeholderSVG)),
		SourceTag:       TagPlaceholder,
		AttributionName: "Local Generator",
	}
}

func responseSnippet(body []byte) string {
	const maxLen = 256
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
