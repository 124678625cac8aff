package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/samvad-news-importer/internal/domain"
)

const (
	articleBucket  = "articles"
	slugBucket     = "slugs"
	categoryBucket = "categories"
	authorBucket   = "authors"
	sourceBucket   = "sources"
)

var allBuckets = []string{articleBucket, slugBucket, categoryBucket, authorBucket, sourceBucket}

// storedArticle is the JSON value kept in the article bucket.
type storedArticle struct {
	ID         string                  `json:"id"`
	Article    domain.CanonicalArticle `json:"article"`
	ImportedAt time.Time               `json:"imported_at"`
}

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db            *bolt.DB
	defaultAuthor string
	sourceTTL     time.Duration
	sweep         *sweeper
	now           func() time.Time
}

// openBolt initializes a BoltDB-backed Store and seeds its lookup buckets.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		categories := tx.Bucket([]byte(categoryBucket))
		for _, c := range opts.Categories {
			if err := putIfAbsent(categories, categoryKey(c)); err != nil {
				return err
			}
		}
		return putIfAbsent(tx.Bucket([]byte(authorBucket)), opts.DefaultAuthor)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &boltStore{
		db:            db,
		defaultAuthor: opts.DefaultAuthor,
		sourceTTL:     opts.SourceTTL,
		sweep:         newSweeper(opts.CleanupInterval, opts.clock()),
		now:           opts.clock,
	}, nil
}

func putIfAbsent(bucket *bolt.Bucket, key string) error {
	if bucket.Get([]byte(key)) != nil {
		return nil
	}
	return bucket.Put([]byte(key), []byte(uuid.NewString()))
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket([]byte(slugBucket)).Get([]byte(slug)) != nil
		return nil
	})
	return exists, err
}

func (b *boltStore) FindCategoryID(_ context.Context, name string) (string, bool, error) {
	var id string
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(categoryBucket)).Get([]byte(categoryKey(name))); v != nil {
			id = string(v)
		}
		return nil
	})
	return id, id != "", err
}

func (b *boltStore) FindDefaultAuthor(context.Context) (string, error) {
	var id string
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(authorBucket)).Get([]byte(b.defaultAuthor))
		if v == nil {
			return fmt.Errorf("default author %q missing", b.defaultAuthor)
		}
		id = string(v)
		return nil
	})
	return id, err
}

// InsertArticle stores the article and claims its slug in one transaction.
func (b *boltStore) InsertArticle(_ context.Context, a domain.CanonicalArticle) (domain.InsertedArticle, error) {
	id := uuid.NewString()
	value, err := json.Marshal(storedArticle{ID: id, Article: a, ImportedAt: b.now().UTC()})
	if err != nil {
		return domain.InsertedArticle{}, fmt.Errorf("marshal article: %w", err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		slugs := tx.Bucket([]byte(slugBucket))
		if slugs.Get([]byte(a.Slug)) != nil {
			return fmt.Errorf("insert article %q: %w", a.Slug, domain.ErrDuplicateSlug)
		}
		if err := slugs.Put([]byte(a.Slug), []byte(id)); err != nil {
			return err
		}
		return tx.Bucket([]byte(articleBucket)).Put([]byte(id), value)
	})
	if err != nil {
		return domain.InsertedArticle{}, err
	}
	return domain.InsertedArticle{ID: id, Slug: a.Slug}, nil
}

// SeenSource reports whether sourceURL carries an unexpired mark.
func (b *boltStore) SeenSource(_ context.Context, sourceURL string) (bool, error) {
	now := b.now()
	if err := b.sweep.maybe(now, b.pruneSources); err != nil {
		return false, fmt.Errorf("prune source marks: %w", err)
	}
	var seen bool
	err := b.db.View(func(tx *bolt.Tx) error {
		seen = liveMark(tx.Bucket([]byte(sourceBucket)).Get([]byte(sourceURL)), now)
		return nil
	})
	return seen, err
}

// MarkSource records sourceURL until the TTL passes, extending any older mark.
func (b *boltStore) MarkSource(_ context.Context, sourceURL string) error {
	now := b.now()
	if err := b.sweep.maybe(now, b.pruneSources); err != nil {
		return fmt.Errorf("prune source marks: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sourceBucket)).Put([]byte(sourceURL), encodeExpiry(now.Add(b.sourceTTL)))
	})
}

// pruneSources deletes every mark that is expired or unreadable at now.
func (b *boltStore) pruneSources(now time.Time) (int, error) {
	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(sourceBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if liveMark(v, now) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
