// Package cache provides the shared parse cache for schema documents.
// Entries are keyed by canonical source identity and guarded by a
// source fingerprint and an optional TTL, so repeated references to the
// same document are parsed once and stale content is re-read instead of
// served. Only successful parses are stored; failures are always
// retried on the next request.
package cache

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/xsdgraph/schema"
)

// Config configures a Cache.
type Config struct {
	// TTL is how long an entry stays servable. Zero or negative means
	// entries never expire by age; fingerprints still apply.
	TTL time.Duration

	// Metrics receives hit, miss, and eviction counts when non-nil.
	Metrics *Metrics

	// Logger records evictions at debug level when non-nil.
	Logger *slog.Logger
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

type entry struct {
	doc     *schema.Document
	expires time.Time // zero means no age limit
}

// Cache is a thread-safe parse cache. Documents it returns are shared
// between callers and must be treated as immutable; Clone before
// mutating.
type Cache struct {
	mu      sync.Mutex
	entries map[schema.SourceID]*entry

	ttl     time.Duration
	now     func() time.Time
	metrics *Metrics
	logger  *slog.Logger

	hits      uint64
	misses    uint64
	evictions uint64
}

// New builds an empty cache.
func New(cfg Config) *Cache {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		entries: make(map[schema.SourceID]*entry),
		ttl:     cfg.TTL,
		now:     time.Now,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Get returns the cached document for id if it is still current. A
// non-empty fingerprint is compared against the stored document's
// fingerprint; a mismatch evicts the entry and reports a miss, which is
// how edits to a file are picked up without any watcher. Pass an empty
// fingerprint when the source state is unknowable before fetching.
func (c *Cache) Get(id schema.SourceID, fingerprint string) (*schema.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		c.miss()
		return nil, false
	}

	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.evict(id, "ttl expired")
		c.miss()
		return nil, false
	}

	if fingerprint != "" && fingerprint != e.doc.Fingerprint {
		c.evict(id, "fingerprint changed")
		c.miss()
		return nil, false
	}

	c.hits++
	if c.metrics != nil {
		c.metrics.Hits.Inc()
	}
	return e.doc, true
}

// PutIfAbsent stores doc under its own identity unless a live entry is
// already present, in which case the existing document wins and is
// returned. The check and insert are one atomic step, so concurrent
// resolvers racing on the same source agree on a single instance.
// The second return reports whether doc was stored.
func (c *Cache) PutIfAbsent(doc *schema.Document) (*schema.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[doc.ID]; ok {
		expired := !e.expires.IsZero() && c.now().After(e.expires)
		stale := doc.Fingerprint != "" && doc.Fingerprint != e.doc.Fingerprint
		if !expired && !stale {
			return e.doc, false
		}
		c.evict(doc.ID, "replaced by fresh parse")
	}

	e := &entry{doc: doc}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[doc.ID] = e
	c.gauge()
	return doc, true
}

// Invalidate removes the entry for id, reporting whether one existed.
func (c *Cache) Invalidate(id schema.SourceID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok {
		return false
	}
	c.evict(id, "invalidated")
	return true
}

// InvalidatePath removes the entry for a filesystem path, if the path
// canonicalizes and an entry exists.
func (c *Cache) InvalidatePath(path string) bool {
	id, err := schema.FileID(path)
	if err != nil {
		return false
	}
	return c.Invalidate(id)
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[schema.SourceID]*entry)
	c.hits, c.misses, c.evictions = 0, 0, 0
	c.gauge()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats snapshots the effectiveness counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      len(c.entries),
	}
}

// evict removes id and counts the removal. Callers hold c.mu.
func (c *Cache) evict(id schema.SourceID, reason string) {
	delete(c.entries, id)
	c.evictions++
	if c.metrics != nil {
		c.metrics.Evictions.Inc()
	}
	c.gauge()
	c.logger.Debug("cache entry evicted",
		slog.String("source", id.String()),
		slog.String("reason", reason))
}

// miss counts a lookup that found nothing servable. Callers hold c.mu.
func (c *Cache) miss() {
	c.misses++
	if c.metrics != nil {
		c.metrics.Misses.Inc()
	}
}

// gauge publishes the current size. Callers hold c.mu.
func (c *Cache) gauge() {
	if c.metrics != nil {
		c.metrics.Size.Set(float64(len(c.entries)))
	}
}
