package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encodable metadata (version lists, search results) with a
// bounded staleness window.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ByteCache stores raw downloaded asset payloads keyed by URL. Entries expire
// after the configured TTL so a re-run of a failed build skips refetching
// unchanged assets without serving arbitrarily stale ones.
type ByteCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config holds cache configuration
type Config struct {
	RedisURL string
	TTL      time.Duration
}

// DefaultConfig returns default cache configuration from environment
func DefaultConfig() Config {
	ttl := 600 // 10 minutes default
	if ttlStr := os.Getenv("CACHE_TTL"); ttlStr != "" {
		if parsed, err := strconv.Atoi(ttlStr); err == nil {
			ttl = parsed
		}
	}

	return Config{
		RedisURL: os.Getenv("REDIS_URL"),
		TTL:      time.Duration(ttl) * time.Second,
	}
}

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = fmt.Errorf("cache miss")

// RedisCache implements Cache and ByteCache using Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg Config) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.GetBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshaling cached data: %w", err)
	}
	return nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}
	return c.SetBytes(ctx, key, data)
}

func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (c *RedisCache) SetBytes(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache implements Cache and ByteCache using in-memory storage
// (fallback). A janitor goroutine evicts expired entries so large asset
// payloads do not linger past their TTL.
type MemoryCache struct {
	data map[string]cacheEntry
	ttl  time.Duration
	mu   sync.RWMutex
	stop chan struct{}
	once sync.Once
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *MemoryCache) janitor() {
	interval := c.ttl
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.data {
				if now.After(entry.expiresAt) {
					delete(c.data, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.GetBytes(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshaling cached data: %w", err)
	}
	return nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}
	return c.SetBytes(ctx, key, data)
}

func (c *MemoryCache) GetBytes(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}

	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	return entry.data, nil
}

func (c *MemoryCache) SetBytes(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.data[key] = cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// New creates a new cache based on configuration
// Returns Redis if configured, otherwise falls back to memory cache
func New(cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(cfg)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to Redis (%v), using memory cache\n", err)
			return NewMemoryCache(cfg.TTL), nil
		}
		fmt.Println("Using Redis cache")
		return cache, nil
	}

	fmt.Println("Using memory cache")
	return NewMemoryCache(cfg.TTL), nil
}

// NewBytes creates the asset byte cache with the same fallback selection.
func NewBytes(cfg Config) (ByteCache, error) {
	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(cfg)
		if err == nil {
			return cache, nil
		}
		fmt.Printf("Warning: Failed to connect to Redis (%v), using memory cache\n", err)
	}
	return NewMemoryCache(cfg.TTL), nil
}
