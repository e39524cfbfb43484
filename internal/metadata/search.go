package metadata

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ncnbooks/bookshelf/internal/entities"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 1 * time.Second
	defaultCacheTTL   = 5 * time.Minute
)

// Searcher combines the catalog providers into one waterfall search: the
// primary provider is tried with bounded retry, then the fallback with the
// same policy, and when both fail the search resolves to an empty result —
// provider errors are absorbed and logged, never surfaced to callers.
//
// Successful results (including empty ones) are cached per query key for a
// fixed window. Concurrent callers with the same key share one in-flight
// request chain; at most one outbound chain runs per key at a time. The
// chain itself runs detached from caller contexts, so a caller that stops
// waiting cannot poison the shared cache entry.
type Searcher struct {
	primary  Provider
	fallback Provider

	maxRetries int
	retryDelay time.Duration
	cacheTTL   time.Duration

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	ready     chan struct{}
	books     []entities.Book
	expiresAt time.Time
}

// expired reports whether the entry can no longer serve callers. In-flight
// entries have a zero deadline and never expire.
func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewSearcher creates a searcher with the default retry policy (an initial
// call plus 3 retries with 1s/2s/4s backoff) and a five-minute result cache.
// Zero values for maxRetries, retryDelay or cacheTTL select the defaults.
func NewSearcher(primary, fallback Provider, maxRetries int, retryDelay, cacheTTL time.Duration) *Searcher {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Searcher{
		primary:    primary,
		fallback:   fallback,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		cacheTTL:   cacheTTL,
		cache:      make(map[string]*cacheEntry),
	}
}

// Search looks up books by title and optional author. The returned error is
// only ever the caller's context error; provider failures resolve to an
// empty slice.
func (s *Searcher) Search(ctx context.Context, title, author string, maxResults, startIndex int) ([]entities.Book, error) {
	key := fmt.Sprintf("%s|%s|%d|%d", title, author, maxResults, startIndex)
	return s.cached(ctx, key, func(ctx context.Context, p Provider) ([]entities.Book, error) {
		return p.Search(ctx, title, author, maxResults, startIndex)
	})
}

// SearchByISBN looks up books by ISBN under the same waterfall, retry and
// cache policy as Search.
func (s *Searcher) SearchByISBN(ctx context.Context, isbn string) ([]entities.Book, error) {
	key := "isbn|" + isbn
	return s.cached(ctx, key, func(ctx context.Context, p Provider) ([]entities.Book, error) {
		return p.SearchByISBN(ctx, isbn)
	})
}

// ClearCache drops every cached result. Exposed for tests and the settings
// surface.
func (s *Searcher) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cacheEntry)
}

// EvictExpired removes entries past their deadline and returns how many
// were dropped. Expired entries are also skipped lazily on access; the
// periodic sweep just keeps the map from accumulating dead keys.
func (s *Searcher) EvictExpired() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.cache {
		if entry.expired(now) {
			delete(s.cache, key)
			evicted++
		}
	}
	return evicted
}

type providerCall func(ctx context.Context, p Provider) ([]entities.Book, error)

// cached returns the shared result for key, starting the outbound chain if
// no live entry exists. Callers block until the chain completes or their
// own context is done.
func (s *Searcher) cached(ctx context.Context, key string, call providerCall) ([]entities.Book, error) {
	s.mu.Lock()
	entry, ok := s.cache[key]
	if ok && entry.expired(time.Now()) {
		delete(s.cache, key)
		ok = false
	}
	if !ok {
		entry = &cacheEntry{ready: make(chan struct{})}
		s.cache[key] = entry

		go func() {
			// Detached context: the chain runs to completion even when
			// every waiting caller has gone away.
			books := s.waterfall(context.Background(), key, call)

			s.mu.Lock()
			entry.books = books
			entry.expiresAt = time.Now().Add(s.cacheTTL)
			s.mu.Unlock()
			close(entry.ready)
		}()
	}
	s.mu.Unlock()

	select {
	case <-entry.ready:
		return entry.books, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waterfall tries the primary provider with retry, then the fallback, and
// absorbs failure into an empty result.
func (s *Searcher) waterfall(ctx context.Context, key string, call providerCall) []entities.Book {
	books, err := s.withRetry(ctx, s.primary, call)
	if err == nil {
		return books
	}
	log.Printf("catalog search: %s failed for %q, trying %s: %v", s.primary.Name(), key, s.fallback.Name(), err)

	books, err = s.withRetry(ctx, s.fallback, call)
	if err == nil {
		return books
	}
	log.Printf("catalog search: all providers failed for %q: %v", key, err)

	return []entities.Book{}
}

// withRetry calls a provider once and then up to maxRetries more times with
// exponential backoff between calls, so the default policy is 4 calls spaced
// 1s/2s/4s apart.
func (s *Searcher) withRetry(ctx context.Context, p Provider, call providerCall) ([]entities.Book, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelay << (attempt - 1)
			log.Printf("catalog search: %s attempt %d failed, retrying in %v: %v", p.Name(), attempt, delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		books, err := call(ctx, p)
		if err == nil {
			return books, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
