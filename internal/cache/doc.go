// Package cache implements the tiered content-addressed cache: an L1
// in-memory LRU tier, an L2 disk content store, and a Bloom filter fast-miss
// gate in front of both, plus the eviction strategies (LRU, size, TTL,
// composite) that keep each tier bounded.
package cache
