package ai

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/go-go-golems/palaver/pkg/metrics"
)

type cacheEntry struct {
	Value   string
	Created time.Time
	element *list.Element
}

// CachingProvider keeps the results of translations and rewrites in an LRU cache.
// Failed calls are not cached. Everything else is passed through.
type CachingProvider struct {
	Provider
	cache   map[string]*cacheEntry
	lruList *list.List
	maxSize int
	metrics *metrics.Metrics
	mu      sync.Mutex
}

type CacheOption func(*CachingProvider)

func WithCacheMaxSize(size int) CacheOption {
	return func(c *CachingProvider) {
		c.maxSize = size
	}
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachingProvider) {
		c.metrics = m
	}
}

func NewCachingProvider(p Provider, options ...CacheOption) *CachingProvider {
	ret := &CachingProvider{
		Provider: p,
		cache:    map[string]*cacheEntry{},
		lruList:  list.New(),
		maxSize:  256,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachingProvider) read(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok {
		return "", false
	}
	c.lruList.MoveToFront(entry.element)
	return entry.Value, true
}

func (c *CachingProvider) write(key string, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.cache[key]; ok {
		entry.Value = value
		c.lruList.MoveToFront(entry.element)
		return
	}
	if c.lruList.Len() >= c.maxSize {
		oldest := c.lruList.Back()
		if oldest != nil {
			delete(c.cache, oldest.Value.(string))
			c.lruList.Remove(oldest)
		}
	}
	c.cache[key] = &cacheEntry{
		Value:   value,
		Created: time.Now(),
		element: c.lruList.PushFront(key),
	}
}

func (c *CachingProvider) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

func (c *CachingProvider) cached(operation string, key string, f func() (string, error)) (string, error) {
	if v, ok := c.read(key); ok {
		c.metrics.RecordCacheLookup(operation, true)
		return v, nil
	}
	c.metrics.RecordCacheLookup(operation, false)

	v, err := f()
	if err != nil {
		return "", err
	}
	c.write(key, v)
	return v, nil
}

func (c *CachingProvider) Translate(ctx context.Context, text string, targetLanguage string) (string, error) {
	return c.cached("translate", cacheKey("translate", targetLanguage, text), func() (string, error) {
		return c.Provider.Translate(ctx, text, targetLanguage)
	})
}

func (c *CachingProvider) Rewrite(ctx context.Context, text string, tone string) (string, error) {
	return c.cached("rewrite", cacheKey("rewrite", tone, text), func() (string, error) {
		return c.Provider.Rewrite(ctx, text, tone)
	})
}

var _ Provider = (*CachingProvider)(nil)
