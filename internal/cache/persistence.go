// Package cache provides a persistent result cache so that re-running
// the analyzer over an unchanged job set and option set skips the
// state-space exploration entirely. Grounded on the teacher's
// bbolt-backed WorkflowStore, repurposed from storing workflow
// definitions/executions to storing serialized per-partition
// analysis results keyed by a content hash.
package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ResultStore persists analysis results keyed by a hash of the job set
// and the options that produced them, with an in-memory hot cache in
// front of BoltDB.
type ResultStore struct {
	db       *bbolt.DB
	mu       sync.RWMutex
	memCache map[string][]byte
	maxCache int

	readLatency  metric.Float64Histogram
	writeLatency metric.Float64Histogram
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
}

var bucketResults = []byte("results")

// NewResultStore opens (creating if absent) a BoltDB-backed result
// cache under dbPath.
func NewResultStore(dbPath string, meter metric.Meter) (*ResultStore, error) {
	opts := &bbolt.Options{
		Timeout:      1 * time.Second,
		NoSync:       false,
		NoGrowSync:   false,
		FreelistType: bbolt.FreelistArrayType,
	}

	db, err := bbolt.Open(dbPath+"/results.db", 0600, opts)
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResults)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	readLatency, _ := meter.Float64Histogram("npdaa_cache_read_ms")
	writeLatency, _ := meter.Float64Histogram("npdaa_cache_write_ms")
	cacheHits, _ := meter.Int64Counter("npdaa_cache_hits_total")
	cacheMisses, _ := meter.Int64Counter("npdaa_cache_misses_total")

	return &ResultStore{
		db:           db,
		memCache:     make(map[string][]byte),
		maxCache:     1000,
		readLatency:  readLatency,
		writeLatency: writeLatency,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
	}, nil
}

// Close closes the underlying database.
func (rs *ResultStore) Close() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.db.Close()
}

// Put stores the serialized result under key, overwriting any prior
// entry for the same key.
func (rs *ResultStore) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	defer func() {
		rs.writeLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "put_result")))
	}()

	rs.mu.Lock()
	defer rs.mu.Unlock()

	err := rs.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketResults)
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	if len(rs.memCache) >= rs.maxCache {
		rs.evictOne()
	}
	rs.memCache[key] = data
	return nil
}

// Get retrieves a previously stored result, consulting the in-memory
// cache before falling back to BoltDB.
func (rs *ResultStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	defer func() {
		rs.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()),
			metric.WithAttributes(attribute.String("operation", "get_result")))
	}()

	rs.mu.RLock()
	if data, found := rs.memCache[key]; found {
		rs.mu.RUnlock()
		rs.cacheHits.Add(ctx, 1)
		return data, true, nil
	}
	rs.mu.RUnlock()
	rs.cacheMisses.Add(ctx, 1)

	var data []byte
	err := rs.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketResults)
		v := bucket.Get([]byte(key))
		if v == nil {
			return nil
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read result: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}

	rs.mu.Lock()
	rs.memCache[key] = data
	rs.mu.Unlock()
	return data, true, nil
}

// Invalidate drops a cached entry from both the hot cache and BoltDB.
func (rs *ResultStore) Invalidate(ctx context.Context, key string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.memCache, key)
	return rs.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketResults).Delete([]byte(key))
	})
}

// evictOne drops an arbitrary entry from the hot cache; BoltDB still
// holds it, so this only trims memory, never data.
func (rs *ResultStore) evictOne() {
	for k := range rs.memCache {
		delete(rs.memCache, k)
		return
	}
}

// HashKey combines a job-set fingerprint with a serialized option set
// into one cache key, using the same fnv-1a scheme as model.Job's
// content hash.
func HashKey(jobSetFingerprint uint64, optionsFingerprint uint64) string {
	h := fnv.New64a()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], jobSetFingerprint)
	binary.LittleEndian.PutUint64(buf[8:], optionsFingerprint)
	h.Write(buf[:])
	return fmt.Sprintf("%016x", h.Sum64())
}

// FingerprintStrings hashes an ordered list of strings (e.g. option
// flag values) into a single uint64, for use with HashKey.
func FingerprintStrings(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
