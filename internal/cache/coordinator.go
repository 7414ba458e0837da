package cache

import (
	"context"
	"sync"
	"time"

	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/telemetry"
)

// Coordinator is the L3 tiered cache: an L1 memTier in front of the L2
// Store, gated by an L2 Bloom filter so a guaranteed-absent key never
// touches disk. Generalized from
// _examples/jmgilman-go/oci/internal/cache/manager.go's Coordinator
// (config validation, tier wiring, a cleanup ticker running composite
// eviction) away from the teacher's OCI manifest/blob/tag split toward
// this module's Class-keyed Entry model.
type Coordinator struct {
	mu    sync.RWMutex
	store *Store
	mem   *memTier
	bloom *Bloom

	eviction EvictionStrategy
	entries  map[string]*Entry // mirrors what's addressable, for eviction bookkeeping

	metrics *telemetry.Metrics
	log     telemetry.Logger

	cleanupStop chan struct{}
}

// NewCoordinator wires the memory tier, disk store, and bloom filter
// together and starts a background cleanup loop pruning expired entries.
func NewCoordinator(fs fsx.FS, cfg Config, metrics *telemetry.Metrics, log telemetry.Logger) *Coordinator {
	cfg.SetDefaults()
	if log == nil {
		log = telemetry.Nop()
	}
	c := &Coordinator{
		store:   NewStore(fs, cfg.RootPath),
		mem:     newMemTier(cfg.MemoryMaxBytes),
		bloom:   NewBloom(100_000, 0.01),
		entries: make(map[string]*Entry),
		eviction: NewCompositeEviction(
			[]EvictionStrategy{NewTTLEviction(), NewLRUEviction(), NewSizeEviction(cfg.DiskMaxBytes)},
			[]int{0, 1, 2},
		),
		metrics:     metrics,
		log:         log,
		cleanupStop: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get looks up key under class, checking the memory tier, then the bloom
// filter (a negative short-circuits without touching disk), then the disk
// store, promoting disk hits into the memory tier.
func (c *Coordinator) Get(ctx context.Context, class Class, key string) ([]byte, bool) {
	fullKey := string(class) + ":" + key

	if entry, ok := c.mem.get(fullKey); ok {
		c.recordHit(class, "memory")
		c.eviction.OnAccess(entry)
		return entry.Data, true
	}

	if !c.bloom.MightContain(fullKey) {
		c.recordMiss(class)
		return nil, false
	}

	stored, err := c.store.Get(class, key)
	if err != nil {
		c.recordMiss(class)
		return nil, false
	}
	data, err := decompressFromDisk(stored)
	if err != nil {
		c.log.Warn(ctx, "cache: failed to inflate disk entry", "class", string(class), "key", key, "error", err)
		_ = c.store.Remove(class, key)
		c.recordMiss(class)
		return nil, false
	}
	c.recordHit(class, "disk")

	entry := &Entry{
		Key:        fullKey,
		Class:      class,
		Data:       data,
		CreatedAt:  time.Now(),
		AccessedAt: time.Now(),
		TTL:        class.DefaultTTL(),
	}
	c.promote(entry)
	return data, true
}

// Put inserts data under (class, key) into both the disk store and the
// memory tier, and marks the bloom filter so future Gets of the same key
// skip straight past a negative.
func (c *Coordinator) Put(ctx context.Context, class Class, key string, data []byte) error {
	fullKey := string(class) + ":" + key
	onDisk, wasCompressed, err := compressForDisk(class, data)
	if err != nil {
		return err
	}
	if err := c.store.Put(class, key, onDisk); err != nil {
		return err
	}
	c.bloom.Add(fullKey)

	entry := &Entry{
		Key:        fullKey,
		Class:      class,
		Data:       data,
		Compressed: wasCompressed,
		CreatedAt:  time.Now(),
		AccessedAt: time.Now(),
		TTL:        class.DefaultTTL(),
	}
	c.promote(entry)
	if c.metrics != nil {
		c.metrics.BytesStored.Add(float64(len(onDisk)))
	}
	return nil
}

func (c *Coordinator) promote(entry *Entry) {
	c.mem.put(entry)
	c.mu.Lock()
	c.entries[entry.Key] = entry
	c.mu.Unlock()
	c.eviction.OnAdd(entry)
}

func (c *Coordinator) recordHit(class Class, tier string) {
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(string(class), tier).Inc()
	}
}

func (c *Coordinator) recordMiss(class Class) {
	if c.metrics != nil {
		c.metrics.CacheMisses.WithLabelValues(string(class)).Inc()
	}
}

// cleanupLoop periodically sweeps expired entries out of the bookkeeping
// map and the memory tier, mirroring the teacher's ticker-driven
// compaction in manager.go.
func (c *Coordinator) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweepExpired()
		case <-c.cleanupStop:
			return
		}
	}
}

func (c *Coordinator) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	victims := c.eviction.SelectForEviction(c.entries)
	for _, key := range victims {
		entry, ok := c.entries[key]
		if !ok {
			continue
		}
		if !entry.IsExpired() {
			continue
		}
		c.mem.remove(key)
		delete(c.entries, key)
		c.eviction.OnRemove(entry)
		if c.metrics != nil {
			c.metrics.CacheEvictions.WithLabelValues("memory", "ttl").Inc()
		}
	}
}

// Close stops the background cleanup loop.
func (c *Coordinator) Close() {
	close(c.cleanupStop)
}
