/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package utils

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyProvider(t *testing.T) {
	var calls atomic.Int32
	p := NewLazyProvider(func(k string) (string, error) {
		calls.Add(1)
		if k == "bad" {
			return "", errors.New("bad key")
		}
		return "v-" + k, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := p.Get("a")
			assert.NoError(t, err)
			assert.Equal(t, "v-a", v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, p.Length())

	_, err := p.Get("bad")
	assert.Error(t, err)
	assert.Equal(t, 1, p.Length())

	seen := map[string]string{}
	p.Range(func(k, v string) { seen[k] = v })
	assert.Equal(t, map[string]string{"a": "v-a"}, seen)

	v, ok := p.Delete("a")
	assert.True(t, ok)
	assert.Equal(t, "v-a", v)
	_, ok = p.Peek("a")
	assert.False(t, ok)
}

func TestNewID(t *testing.T) {
	a, err := NewID()
	require.NoError(t, err)
	b, err := NewID()
	require.NoError(t, err)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
