// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package cache // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/cache"

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/metadata"
)

// pre compute attributes for performance
var (
	trueAttr  = metric.WithAttributeSet(attribute.NewSet(attribute.Bool("hit", true)))
	falseAttr = metric.WithAttributeSet(attribute.NewSet(attribute.Bool("hit", false)))
)

// lruCache implements Cache on top of a fixed size LRU.
// Reads use Peek, so only writes refresh an entry and eviction follows write order.
type lruCache[V any] struct {
	cache     *lru.Cache[int64, V]
	telemetry *metadata.TelemetryBuilder
	size      int

	cacheNameAttr metric.MeasurementOption
}

var _ Cache[any] = (*lruCache[any])(nil)

// NewLRUCache returns a new lruCache.
// The size parameter indicates the amount of keys the cache will hold before it
// starts evicting the least recently written key.
func NewLRUCache[V any](size int, onEvicted func(int64, V), telemetry *metadata.TelemetryBuilder, name string) (Cache[V], error) {
	c, err := lru.NewWithEvict[int64, V](size, onEvicted)
	if err != nil {
		return nil, err
	}
	return &lruCache[V]{cache: c, size: size, telemetry: telemetry,
		cacheNameAttr: metric.WithAttributeSet(attribute.NewSet(attribute.String("cache", name)))}, nil
}

func (c *lruCache[V]) Get(id int64) (V, bool) {
	v, ok := c.cache.Peek(id)
	if ok {
		c.telemetry.DynamicSamplingCacheReads.
			Add(context.Background(), 1, trueAttr, c.cacheNameAttr)
	} else {
		c.telemetry.DynamicSamplingCacheReads.
			Add(context.Background(), 1, falseAttr, c.cacheNameAttr)
	}
	return v, ok
}

func (c *lruCache[V]) Put(id int64, v V) {
	_ = c.cache.Add(id, v)
}

func (c *lruCache[V]) Delete(id int64) {
	c.cache.Remove(id)
}

func (c *lruCache[V]) Len() int {
	return c.cache.Len()
}

// Size returns the capacity of the LRU cache
func (c *lruCache[V]) Size() int {
	return c.size
}
