/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultMaxEntries  = 100000
	defaultBufferItems = 64
)

// Cache maps string keys to values of T.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Add(key string, value T)
	Delete(key string)
	// GetOrLoad returns the cached value or loads it, collapsing concurrent
	// loads of the same key. The boolean reports a cache hit.
	GetOrLoad(key string, loader func() (T, error)) (T, bool, error)
}

type Config struct {
	// MaxEntries bounds the number of cached values. Zero disables the cache.
	MaxEntries int64         `mapstructure:"maxEntries" yaml:"maxEntries"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// New returns a ristretto-backed cache, or a pass-through one when c.MaxEntries is zero.
func New[T any](c Config) (Cache[T], error) {
	if c.MaxEntries <= 0 {
		return NewNoCache[T](), nil
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, T]{
		// ristretto recommends ten counters per cached entry
		NumCounters: 10 * c.MaxEntries,
		MaxCost:     c.MaxEntries,
		BufferItems: defaultBufferItems,
		Cost:        func(T) int64 { return 1 },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed creating cache")
	}
	return &ristrettoCache[T]{cache: rc, ttl: c.TTL}, nil
}

type ristrettoCache[T any] struct {
	cache *ristretto.Cache[string, T]
	ttl   time.Duration
	sfg   singleflight.Group
}

func (c *ristrettoCache[T]) Get(key string) (T, bool) {
	return c.cache.Get(key)
}

func (c *ristrettoCache[T]) Add(key string, value T) {
	c.cache.SetWithTTL(key, value, 0, c.ttl)
	c.cache.Wait()
}

func (c *ristrettoCache[T]) Delete(key string) {
	c.cache.Del(key)
	c.cache.Wait()
}

func (c *ristrettoCache[T]) GetOrLoad(key string, loader func() (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	res, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		v, err := loader()
		if err != nil {
			return nil, err
		}
		c.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

// NoCache loads on every call.
type NoCache[T any] struct{}

func NewNoCache[T any]() *NoCache[T] { return &NoCache[T]{} }

func (*NoCache[T]) Get(string) (T, bool) {
	var zero T
	return zero, false
}

func (*NoCache[T]) Add(string, T) {}

func (*NoCache[T]) Delete(string) {}

func (*NoCache[T]) GetOrLoad(_ string, loader func() (T, error)) (T, bool, error) {
	v, err := loader()
	return v, false, err
}
