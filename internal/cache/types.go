// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package cache // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/cache"

// Cache is a bounded cache using a project id as the key and any generic type as the value.
type Cache[V any] interface {
	// Get returns the value for the given id, and a boolean to indicate whether the key was found.
	// If the key is not present, the zero value is returned.
	Get(id int64) (V, bool)
	// Put sets the value for a given id, evicting the oldest entry if the cache is full.
	Put(id int64, v V)
	// Delete deletes the value for the given id
	Delete(id int64)
	// Len returns the number of entries currently held.
	Len() int
	// Size returns the maximum number of entries the cache holds.
	Size() int
}
