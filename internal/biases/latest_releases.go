// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package biases // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

const (
	latestReleaseBoostFactor = 1.5
	latestReleaseDecayedTo   = 1.0
	linearDecay              = "linear"
)

// ReleaseGetter returns the releases of a project that are candidates for boosting.
type ReleaseGetter interface {
	GetBoostedReleases(ctx context.Context, project tenant.Project) ([]tenant.BoostedRelease, error)
}

type latestReleasesBias struct {
	releases ReleaseGetter
	limit    int
	now      func() time.Time
}

var _ Bias = (*latestReleasesBias)(nil)

// NewBoostLatestReleases returns a bias that boosts the most recent releases of a project
// until they are expected to be adopted. At most limit rules are emitted, and never more
// than the reserved id range allows. A nil now defaults to time.Now.
func NewBoostLatestReleases(releases ReleaseGetter, limit int, now func() time.Time) Bias {
	ids, _ := rules.BoostLatestReleases.ReservedIDs()
	if limit <= 0 || limit > ids.Size() {
		limit = ids.Size()
	}
	if now == nil {
		now = time.Now
	}
	return &latestReleasesBias{
		releases: releases,
		limit:    limit,
		now:      now,
	}
}

func (b *latestReleasesBias) GenerateRules(ctx context.Context, project tenant.Project, _ float64) ([]rules.Rule, error) {
	boosted, err := b.releases.GetBoostedReleases(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("error fetching boosted releases: %w", err)
	}
	if len(boosted) == 0 {
		return nil, nil
	}

	// Newest first so the limit keeps the most recent releases.
	sorted := make([]tenant.BoostedRelease, len(boosted))
	copy(sorted, boosted)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	ids, _ := rules.BoostLatestReleases.ReservedIDs()
	now := b.now()
	out := make([]rules.Rule, 0, min(len(sorted), b.limit))
	for _, release := range sorted {
		if len(out) >= b.limit {
			break
		}
		if release.Version == "" {
			continue
		}
		start, end := release.Window(project.Platform)
		if !now.Before(end) {
			continue
		}

		environment := rules.Eq(traceEnvironment)
		if release.Environment != "" {
			environment = rules.Eq(traceEnvironment, release.Environment)
		}
		rule := rules.NewFactorRule(
			rules.BoostLatestReleases,
			ids.First+uint32(len(out)),
			latestReleaseBoostFactor,
			rules.And(rules.Eq(traceRelease, release.Version), environment),
		)
		rule.TimeRange = &rules.TimeRange{Start: start, End: end}
		rule.DecayingFn = &rules.DecayingFn{Type: linearDecay, DecayedValue: latestReleaseDecayedTo}
		out = append(out, rule)
	}
	return out, nil
}
