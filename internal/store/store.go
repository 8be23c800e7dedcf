// Package store persists generated articles, categories, SEO metadata, the audit log and the
// lifetime counters in a bbolt file.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketArticles      = []byte("articles")
	bucketCategories    = []byte("categories")
	bucketCategoryNames = []byte("category_names")
	bucketSEO           = []byte("seo")
	bucketAudit         = []byte("audit")
	bucketCounters      = []byte("counters")

	keyTotalGenerated = []byte("total_generated")
	keyLastGeneration = []byte("last_generation")
)

// ErrNotFound is returned when an article id is unknown.
var ErrNotFound = errors.New("not found")

// NewArticle is the input of CreateArticle.
type NewArticle struct {
	Title      string
	HTML       string
	Excerpt    string
	Status     string
	CategoryID string
}

// Article is a persisted article.
type Article struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	HTML          string    `json:"html"`
	Excerpt       string    `json:"excerpt"`
	Status        string    `json:"status"`
	CategoryID    string    `json:"category_id"`
	Slug          string    `json:"slug,omitempty"`
	FeaturedImage string    `json:"featured_image,omitempty"`
	FeaturedAlt   string    `json:"featured_alt,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Category is a taxonomy entry in the destination store.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// SEOMeta is the per-article search metadata.
type SEOMeta struct {
	MetaDescription string `json:"meta_description,omitempty"`
	FocusKeyword    string `json:"focus_keyword,omitempty"`
	Keywords        string `json:"keywords,omitempty"`
	Slug            string `json:"slug,omitempty"`
	Sources         string `json:"sources,omitempty"`
}

// AuditEntry is one generation log row.
type AuditEntry struct {
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// Stats summarises the store.
type Stats struct {
	TotalGenerated int       `json:"total_generated"`
	LastGeneration time.Time `json:"last_generation"`
	Articles       int       `json:"articles"`
	Categories     int       `json:"categories"`
}

// Store is a bbolt backed publish destination.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketArticles, bucketCategories, bucketCategoryNames, bucketSEO, bucketAudit, bucketCounters} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// CreateArticle stores a new article and returns its id.
func (s *Store) CreateArticle(ctx context.Context, in NewArticle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", errors.New("article title is empty")
	}

	now := s.now().UTC()
	a := Article{
		ID:         uuid.NewString(),
		Title:      in.Title,
		HTML:       in.HTML,
		Excerpt:    in.Excerpt,
		Status:     in.Status,
		CategoryID: in.CategoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketArticles), []byte(a.ID), a)
	})
	if err != nil {
		return "", fmt.Errorf("create article: %w", err)
	}
	return a.ID, nil
}

// Article loads one article.
func (s *Store) Article(_ context.Context, id string) (Article, error) {
	var a Article
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketArticles), []byte(id), &a)
	})
	return a, err
}

// Articles returns every article, newest first.
func (s *Store) Articles(_ context.Context) ([]Article, error) {
	var out []Article
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketArticles).ForEach(func(_, v []byte) error {
			var a Article
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			out = append(out, a)
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

// EnsureCategory looks a category up by case-insensitive name, creating it when missing.
func (s *Store) EnsureCategory(ctx context.Context, name string) (Category, error) {
	if err := ctx.Err(); err != nil {
		return Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, errors.New("category name is empty")
	}

	var c Category
	err := s.db.Update(func(tx *bolt.Tx) error {
		names := tx.Bucket(bucketCategoryNames)
		cats := tx.Bucket(bucketCategories)
		key := []byte(strings.ToLower(name))

		if id := names.Get(key); id != nil {
			return getJSON(cats, id, &c)
		}

		c = Category{ID: uuid.NewString(), Name: name, Slug: Slugify(name), CreatedAt: s.now().UTC()}
		if err := putJSON(cats, []byte(c.ID), c); err != nil {
			return err
		}
		return names.Put(key, []byte(c.ID))
	})
	if err != nil {
		return Category{}, fmt.Errorf("ensure category %q: %w", name, err)
	}
	return c, nil
}

// Categories lists categories by name.
func (s *Store) Categories(_ context.Context) ([]Category, error) {
	var out []Category
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCategories).ForEach(func(_, v []byte) error {
			var c Category
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// SetFeaturedImage records the image location and alt text on the article.
func (s *Store) SetFeaturedImage(ctx context.Context, id, location, alt string) error {
	return s.updateArticle(ctx, id, func(a *Article) {
		a.FeaturedImage = location
		a.FeaturedAlt = alt
	})
}

// SetSEOMeta stores the SEO metadata and applies the slug to the article.
func (s *Store) SetSEOMeta(ctx context.Context, id string, meta SEOMeta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta.Slug = Slugify(meta.Slug)

	err := s.db.Update(func(tx *bolt.Tx) error {
		articles := tx.Bucket(bucketArticles)
		var a Article
		if err := getJSON(articles, []byte(id), &a); err != nil {
			return err
		}
		if meta.Slug != "" {
			a.Slug = meta.Slug
			a.UpdatedAt = s.now().UTC()
			if err := putJSON(articles, []byte(id), a); err != nil {
				return err
			}
		}
		return putJSON(tx.Bucket(bucketSEO), []byte(id), meta)
	})
	if err != nil {
		return fmt.Errorf("set seo meta for %s: %w", id, err)
	}
	return nil
}

// SEOMeta loads the metadata stored for an article.
func (s *Store) SEOMeta(_ context.Context, id string) (SEOMeta, error) {
	var m SEOMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketSEO), []byte(id), &m)
	})
	return m, err
}

// RecordAuditLog appends a generation log row.
func (s *Store) RecordAuditLog(ctx context.Context, articleID, title, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := AuditEntry{ArticleID: articleID, Title: title, Status: status, At: s.now().UTC()}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAudit)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return putJSON(b, sequenceKey(seq), entry)
	})
	if err != nil {
		return fmt.Errorf("record audit log: %w", err)
	}
	return nil
}

// AuditLog returns up to limit entries, newest first. A non-positive limit returns all.
func (s *Store) AuditLog(_ context.Context, limit int) ([]AuditEntry, error) {
	var out []AuditEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAudit).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e AuditEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// AddGenerated adds n to the lifetime counter and stamps the last run time.
func (s *Store) AddGenerated(ctx context.Context, n int, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		var total int
		if raw := b.Get(keyTotalGenerated); raw != nil {
			if err := json.Unmarshal(raw, &total); err != nil {
				return fmt.Errorf("decode counter: %w", err)
			}
		}
		if err := putJSON(b, keyTotalGenerated, total+n); err != nil {
			return err
		}
		return b.Put(keyLastGeneration, []byte(at.UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("update counters: %w", err)
	}
	return nil
}

// Stats reads the counters and bucket sizes.
func (s *Store) Stats(_ context.Context) (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		if raw := b.Get(keyTotalGenerated); raw != nil {
			if err := json.Unmarshal(raw, &st.TotalGenerated); err != nil {
				return fmt.Errorf("decode counter: %w", err)
			}
		}
		if raw := b.Get(keyLastGeneration); raw != nil {
			t, err := time.Parse(time.RFC3339, string(raw))
			if err != nil {
				return fmt.Errorf("decode last generation: %w", err)
			}
			st.LastGeneration = t
		}
		st.Articles = countKeys(tx.Bucket(bucketArticles))
		st.Categories = countKeys(tx.Bucket(bucketCategories))
		return nil
	})
	return st, err
}

func (s *Store) updateArticle(ctx context.Context, id string, mutate func(*Article)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketArticles)
		var a Article
		if err := getJSON(b, []byte(id), &a); err != nil {
			return err
		}
		mutate(&a)
		a.UpdatedAt = s.now().UTC()
		return putJSON(b, []byte(id), a)
	})
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}
	return nil
}

func putJSON(b *bolt.Bucket, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return b.Put(key, raw)
}

func getJSON(b *bolt.Bucket, key []byte, v any) error {
	raw := b.Get(key)
	if raw == nil {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return json.Unmarshal(raw, v)
}

func countKeys(b *bolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

func sequenceKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d", seq))
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
}
