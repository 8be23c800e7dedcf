// Package media materialises featured images into the local media directory.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-lekhok/internal/logger"
	"github.com/Adda-Baaj/khobor-lekhok/pkg/httpclient"
)

const downloadTimeout = 300 * time.Second

// Library writes images under Dir.
type Library struct {
	client httpclient.Client
	dir    string
	log    logger.Logger
	now    func() time.Time
}

// New builds a Library. A nil client gets a resty client sized for large downloads.
func New(client httpclient.Client, dir string, log logger.Logger) *Library {
	if client == nil {
		client = httpclient.NewRestyClient(downloadTimeout)
	}
	if strings.TrimSpace(dir) == "" {
		dir = "media"
	}
	return &Library{client: client, dir: dir, log: logger.Ensure(log), now: time.Now}
}

// Dir is the media directory.
func (l *Library) Dir() string { return l.dir }

// Save stores the image behind location and returns the local path. Remote URLs are downloaded,
// data URIs decoded and existing local files returned unchanged.
func (l *Library) Save(ctx context.Context, location, name string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", errors.New("image location is empty")
	}

	switch {
	case strings.HasPrefix(location, "data:"):
		data, ext, err := decodeDataURI(location)
		if err != nil {
			return "", err
		}
		return l.write(name, ext, data)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return l.download(ctx, location, name)
	default:
		if _, err := os.Stat(location); err != nil {
			return "", fmt.Errorf("local image %s: %w", location, err)
		}
		return location, nil
	}
}

func (l *Library) download(ctx context.Context, rawURL, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	resp, err := l.client.Get(ctx, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return "", errors.New("download image: empty body")
	}

	ext := extensionFor(resp.Header().Get("Content-Type"))
	if ext == "" {
		ext = extensionFor(http.DetectContentType(body))
	}
	if ext == "" {
		if u, err := url.Parse(rawURL); err == nil {
			ext = filepath.Ext(u.Path)
		}
	}
	path, err := l.write(name, ext, body)
	if err != nil {
		return "", err
	}
	l.log.Debug("image downloaded", "url", rawURL, "path", path, "bytes", len(body))
	return path, nil
}

func (l *Library) write(name, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if ext == "" {
		ext = ".jpg"
	}
	base := sanitizeName(name)
	if base == "" {
		base = "news-image"
	}
	path := filepath.Join(l.dir, fmt.Sprintf("%s-%d%s", base, l.now().UnixNano(), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

func decodeDataURI(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", errors.New("malformed data uri")
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data uri: %w", err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data uri: %w", err)
		}
		data = []byte(unescaped)
	}
	return data, extensionFor(mediaType), nil
}

func extensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mt {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}

func sanitizeName(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteByte('-')
			lastDash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if len(s) > 60 {
		s = strings.TrimSuffix(s[:60], "-")
	}
	return s
}
