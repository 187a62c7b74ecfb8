// Package cover memoizes artwork lookups keyed by (source, picture id, size).
//
// A hit is answered from the [Store] without touching the network. A miss issues a single
// lookup; concurrent misses for the same key share that lookup. Failed lookups yield a
// placeholder URL and are never stored, so the next call retries.
package cover

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/models"
	"github.com/desertthunder/clmusic/internal/shared"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultSize        = 300
	DefaultPlaceholder = "default_cover.jpg"
)

// Lookup resolves a cover URL upstream. [services.Aggregator] satisfies it.
type Lookup interface {
	Cover(ctx context.Context, source models.Source, pictureID string, size int) (string, error)
}

// Store holds resolved cover URLs for the process lifetime.
type Store interface {
	Get(ctx context.Context, key models.CoverKey) (string, bool, error)
	Put(ctx context.Context, key models.CoverKey, url string) error
}

// Cache is the cover URL cache.
type Cache struct {
	lookup      Lookup
	store       Store
	group       singleflight.Group
	placeholder string
	size        int
	logger      *log.Logger
}

// CacheOpts configures a [Cache]. Zero values select defaults.
type CacheOpts struct {
	Store       Store
	Placeholder string
	DefaultSize int
	Logger      *log.Logger
}

// NewCache creates a cover cache backed by lookup.
func NewCache(lookup Lookup, opts CacheOpts) *Cache {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = DefaultSize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Cache{
		lookup:      lookup,
		store:       opts.Store,
		placeholder: opts.Placeholder,
		size:        opts.DefaultSize,
		logger:      opts.Logger,
	}
}

// Placeholder returns the URL substituted for failed lookups.
func (c *Cache) Placeholder() string {
	return c.placeholder
}

// Resolve returns the cover URL for the key, or the placeholder when the lookup fails.
func (c *Cache) Resolve(ctx context.Context, source models.Source, pictureID string, size int) string {
	url, err := c.ResolveErr(ctx, source, pictureID, size)
	if err != nil {
		c.logger.Warn("cover lookup failed", "source", source, "pic_id", pictureID, "err", err)
	}
	return url
}

// ResolveErr is [Cache.Resolve] with the failure reported.
//
// On failure the returned URL is still the placeholder and the error wraps [shared.ErrCoverLookupFailed].
func (c *Cache) ResolveErr(ctx context.Context, source models.Source, pictureID string, size int) (string, error) {
	if size <= 0 {
		size = c.size
	}
	key := models.CoverKey{Source: source, PictureID: pictureID, Size: size}

	if pictureID == "" {
		return c.placeholder, fmt.Errorf("%w: %s: empty picture id", shared.ErrCoverLookupFailed, key)
	}

	if url, ok := c.cached(ctx, key); ok {
		return url, nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		// shared by every waiter, so one caller giving up must not cancel it
		flightCtx := context.WithoutCancel(ctx)

		if url, ok := c.cached(flightCtx, key); ok {
			return url, nil
		}

		url, err := c.lookup.Cover(flightCtx, source, pictureID, size)
		if err != nil {
			return nil, err
		}

		if err := c.store.Put(flightCtx, key, url); err != nil {
			c.logger.Warn("failed to store cover", "key", key.String(), "err", err)
		}
		c.logger.Debug("cover resolved", "key", key.String())
		return url, nil
	})

	select {
	case <-ctx.Done():
		return c.placeholder, fmt.Errorf("%w: %s: %v", shared.ErrCoverLookupFailed, key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return c.placeholder, fmt.Errorf("%w: %s: %v", shared.ErrCoverLookupFailed, key, res.Err)
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) cached(ctx context.Context, key models.CoverKey) (string, bool) {
	url, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cover store read failed", "key", key.String(), "err", err)
		return "", false
	}
	return url, ok
}

// MemoryStore is a map-backed [Store].
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[models.CoverKey]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[models.CoverKey]string)}
}

func (m *MemoryStore) Get(_ context.Context, key models.CoverKey) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	url, ok := m.entries[key]
	return url, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key models.CoverKey, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = url
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
