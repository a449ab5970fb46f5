// SignalDesk - PR Intelligence and Campaign Orchestration
// Copyright 2026 SignalDesk Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/signaldesk/signaldesk

package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/signaldesk/signaldesk/internal/cache"
	"github.com/signaldesk/signaldesk/internal/config"
)

// ResponseCache stores completions by CacheKey.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*Response, bool, error)
	Set(ctx context.Context, key string, resp *Response) error
	Close() error
}

const cacheKeyPrefix = "llm:"

// CacheKey hashes the inputs that determine a completion.
func CacheKey(provider, model, system, prompt string) string {
	h := sha256.New()
	for _, part := range []string{provider, model, system, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// NewCacheFromConfig builds the configured cache. Backend none returns nil.
func NewCacheFromConfig(cfg config.LLMCacheConfig) (ResponseCache, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(cfg.TTL), nil
	case "badger":
		return OpenBadgerCache(cfg.BadgerDir, cfg.TTL)
	case "redis":
		return NewRedisCache(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown llm cache backend %q", cfg.Backend)
	}
}

// MemoryCache keeps completions in the in-process TTL cache.
type MemoryCache struct {
	c *cache.Cache
}

// NewMemoryCache creates a process-local cache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: cache.New("llm", ttl, cache.WithMaxEntries(2048))}
}

func (m *MemoryCache) Get(_ context.Context, key string) (*Response, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	resp := *v.(*Response)
	return &resp, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, resp *Response) error {
	cp := *resp
	m.c.Set(key, &cp)
	return nil
}

func (m *MemoryCache) Close() error {
	m.c.Close()
	return nil
}

// BadgerCache persists completions in a badger database using entry TTLs.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerCache opens dir. An empty dir opens an in-memory database.
func OpenBadgerCache(dir string, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return NewBadgerCache(db, ttl), nil
}

// NewBadgerCache wraps an open database.
func NewBadgerCache(db *badger.DB, ttl time.Duration) *BadgerCache {
	return &BadgerCache{db: db, ttl: ttl}
}

func (b *BadgerCache) Get(_ context.Context, key string) (*Response, bool, error) {
	var resp Response
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &resp)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger cache get: %w", err)
	}
	return &resp, true, nil
}

func (b *BadgerCache) Set(_ context.Context, key string, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *BadgerCache) Close() error {
	return b.db.Close()
}

// RedisCache shares completions across replicas with SET EX.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects lazily; the first command dials.
func NewRedisCache(opts *redis.Options, ttl time.Duration) *RedisCache {
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (*Response, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache get: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
