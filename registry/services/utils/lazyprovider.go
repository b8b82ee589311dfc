/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"sync"
)

// LazyProvider creates values on first access and caches them by key.
type LazyProvider[K comparable, V any] interface {
	Get(K) (V, error)
	Peek(K) (V, bool)
	Delete(K) (V, bool)
	Length() int
	// Range visits a snapshot of the cached values.
	Range(func(K, V))
}

func NewLazyProvider[K comparable, V any](provider func(K) (V, error)) *lazyProvider[K, V] {
	return &lazyProvider[K, V]{
		cache:    make(map[K]V),
		provider: provider,
	}
}

type lazyProvider[K comparable, V any] struct {
	cache     map[K]V
	cacheLock sync.RWMutex
	provider  func(K) (V, error)
}

func (v *lazyProvider[K, V]) Get(key K) (V, error) {
	if res, ok := v.Peek(key); ok {
		return res, nil
	}

	v.cacheLock.Lock()
	defer v.cacheLock.Unlock()

	// check cache again
	if res, ok := v.cache[key]; ok {
		return res, nil
	}

	res, err := v.provider(key)
	if err != nil {
		var zero V
		return zero, err
	}
	v.cache[key] = res
	return res, nil
}

func (v *lazyProvider[K, V]) Peek(key K) (V, bool) {
	v.cacheLock.RLock()
	defer v.cacheLock.RUnlock()
	res, ok := v.cache[key]
	return res, ok
}

func (v *lazyProvider[K, V]) Delete(key K) (V, bool) {
	v.cacheLock.Lock()
	defer v.cacheLock.Unlock()
	res, ok := v.cache[key]
	if ok {
		delete(v.cache, key)
	}
	return res, ok
}

func (v *lazyProvider[K, V]) Length() int {
	v.cacheLock.RLock()
	defer v.cacheLock.RUnlock()
	return len(v.cache)
}

func (v *lazyProvider[K, V]) Range(f func(K, V)) {
	v.cacheLock.RLock()
	snapshot := make(map[K]V, len(v.cache))
	for k, val := range v.cache {
		snapshot[k] = val
	}
	v.cacheLock.RUnlock()
	for k, val := range snapshot {
		f(k, val)
	}
}
