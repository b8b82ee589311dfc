/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anchor

import (
	"sync"
	"time"
)

// dedupCache remembers recently submitted calls for a fixed window.
// Expired entries are swept on access.
type dedupCache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newDedupCache(window time.Duration) *dedupCache {
	return &dedupCache{
		window:  window,
		entries: map[string]time.Time{},
		now:     time.Now,
	}
}

// Acquire registers all keys, or none if any of them is still within the window.
func (c *dedupCache) Acquire(keys ...string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.sweep(now)
	for _, k := range keys {
		if _, ok := c.entries[k]; ok {
			return false
		}
	}
	for _, k := range keys {
		c.entries[k] = now.Add(c.window)
	}
	return true
}

func (c *dedupCache) Release(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
}

func (c *dedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep(c.now())
	return len(c.entries)
}

func (c *dedupCache) sweep(now time.Time) {
	for k, exp := range c.entries {
		if !now.Before(exp) {
			delete(c.entries, k)
		}
	}
}
