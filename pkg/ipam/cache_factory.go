package ipam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fivetwenty-io/ipam-client/internal/constants"
)

// CacheType names a response cache backend.
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeNATS   CacheType = "nats"
	// CacheTypeTiered keeps a memory cache in front of the NATS bucket.
	CacheTypeTiered CacheType = "tiered"
	CacheTypeNone   CacheType = "none"
)

var (
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
)

// CacheConfig configures the GET response cache.
type CacheConfig struct {
	Type CacheType

	// Memory configures the memory backend and the front tier of a tiered cache.
	Memory *MemoryCacheConfig

	// NATS configures the NATS backend and the back tier of a tiered cache.
	NATS *NATSKVConfig

	// Common options applied to any backend. If nil, DefaultCacheOptions() is used.
	Options *CacheOptions

	// Policy decides what is cached. If nil, DefaultCachingPolicy() is used.
	Policy *CachingPolicy
}

// MemoryCacheConfig configures the memory backend.
type MemoryCacheConfig struct {
	MaxSize int

	// CleanupInterval is a duration such as "1m"; empty disables the sweep.
	CleanupInterval string
}

// DefaultCacheConfig returns default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: constants.DefaultCleanupInterval.String(),
		},
		Options: DefaultCacheOptions(),
		Policy:  DefaultCachingPolicy(),
	}
}

// ParseCacheType maps a configuration string to a CacheType.
func ParseCacheType(value string) (CacheType, error) {
	switch CacheType(value) {
	case CacheTypeMemory, CacheTypeNATS, CacheTypeTiered, CacheTypeNone:
		return CacheType(value), nil
	case "":
		return CacheTypeNone, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCacheType, value)
	}
}

// NewCacheFromConfig opens the backend named by config.Type. A nil config
// selects the default memory cache.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory:
		return NewMemoryCacheFromConfig(config.Memory)
	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)
	case CacheTypeTiered:
		return newTieredCache(config)
	case CacheTypeNone:
		return NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

func newTieredCache(config *CacheConfig) (Cache, error) {
	if config.NATS == nil {
		return nil, ErrNATSConfigRequired
	}

	front, err := NewMemoryCacheFromConfig(config.Memory)
	if err != nil {
		return nil, err
	}

	back, err := NewNATSKVCache(config.NATS)
	if err != nil {
		if closer, ok := front.(io.Closer); ok {
			_ = closer.Close()
		}

		return nil, fmt.Errorf("opening NATS tier: %w", err)
	}

	return NewCacheChain(front, back), nil
}

// NewMemoryCacheFromConfig creates a memory cache from configuration and
// starts its background cleanup.
func NewMemoryCacheFromConfig(config *MemoryCacheConfig) (Cache, error) {
	if config == nil {
		config = &MemoryCacheConfig{MaxSize: constants.DefaultCacheSize}
	}

	cache := NewMemoryCache(config.MaxSize)

	if config.CleanupInterval != "" {
		interval, err := time.ParseDuration(config.CleanupInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing cleanup interval: %w", err)
		}

		cache.StartCleanup(context.Background(), interval)
	}

	return cache, nil
}

// NoOpCache is a cache that does nothing (no caching).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns an error (nothing cached).
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// CacheChain consults its caches in order, fastest first.
type CacheChain struct {
	caches []Cache
}

// NewCacheChain chains caches; the first one is consulted first.
func NewCacheChain(caches ...Cache) *CacheChain {
	return &CacheChain{
		caches: caches,
	}
}

// Get retrieves an item from the first cache holding it and back-fills the
// caches in front of it.
func (c *CacheChain) Get(ctx context.Context, key string) (*CacheEntry, error) {
	for i, cache := range c.caches {
		entry, err := cache.Get(ctx, key)
		if err == nil {
			for j := range i {
				_ = c.caches[j].Set(ctx, key, entry)
			}

			return entry, nil
		}
	}

	return nil, ErrKeyNotFoundInAnyCache
}

// Set writes through to every cache.
func (c *CacheChain) Set(ctx context.Context, key string, entry *CacheEntry) error {
	var errs []error

	for _, cache := range c.caches {
		err := cache.Set(ctx, key, entry)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Delete removes an item from all caches.
func (c *CacheChain) Delete(ctx context.Context, key string) error {
	var errs []error

	for _, cache := range c.caches {
		err := cache.Delete(ctx, key)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Clear removes all items from all caches.
func (c *CacheChain) Clear(ctx context.Context) error {
	var errs []error

	for _, cache := range c.caches {
		err := cache.Clear(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Has reports whether any cache holds key.
func (c *CacheChain) Has(ctx context.Context, key string) bool {
	for _, cache := range c.caches {
		if cache.Has(ctx, key) {
			return true
		}
	}

	return false
}

// Close closes the caches that hold resources.
func (c *CacheChain) Close() error {
	var errs []error

	for _, cache := range c.caches {
		closer, ok := cache.(io.Closer)
		if !ok {
			continue
		}

		err := closer.Close()
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
