// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package cache // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/cache"

// nopCache never holds anything, every Get misses.
type nopCache[V any] struct{}

var _ Cache[any] = (*nopCache[any])(nil)

func NewNopCache[V any]() Cache[V] {
	return &nopCache[V]{}
}

func (n *nopCache[V]) Get(_ int64) (V, bool) {
	var v V
	return v, false
}

func (n *nopCache[V]) Put(_ int64, _ V) {}

func (n *nopCache[V]) Delete(_ int64) {}

func (n *nopCache[V]) Len() int { return 0 }

func (n *nopCache[V]) Size() int { return 0 }
