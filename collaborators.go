// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package dynamicsampling // import "github.com/atlassian-labs/atlassian-dynamic-sampling"

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

// ErrSampleRateNotSet is returned by a QuotaResolver when the organization has no blended sample rate.
var ErrSampleRateNotSet = errors.New("blended sample rate is not set")

// QuotaResolver supplies the sample rate an organization's quota allows.
type QuotaResolver interface {
	// GetBlendedSampleRate returns a rate in (0, 1], or ErrSampleRateNotSet.
	GetBlendedSampleRate(ctx context.Context, orgID int64) (float64, error)
}

// SlidingWindowRates adapts a project's rate to its recent traffic.
type SlidingWindowRates interface {
	GetSlidingWindowSampleRate(ctx context.Context, orgID, projectID int64, fallback float64) (float64, error)
}

// ProjectPriorityRates rebalances an organization's rate across its projects.
type ProjectPriorityRates interface {
	GetPrioritiseByProjectSampleRate(ctx context.Context, project tenant.Project, defaultRate float64) (float64, error)
}

// FeatureChecker reports whether a feature flag is enabled for an organization.
type FeatureChecker interface {
	Has(ctx context.Context, flag string, org tenant.Organization) bool
}

// TransactionResamplingRates supplies per-transaction target rates and the implicit rate for
// every other transaction of a project.
type TransactionResamplingRates interface {
	GetTransactionsResamplingRates(ctx context.Context, orgID, projectID int64, defaultRate float64) (map[string]float64, float64, error)
}

// ReleaseBoosts lists the recently observed releases of a project.
type ReleaseBoosts interface {
	GetBoostedReleases(ctx context.Context, project tenant.Project) ([]tenant.BoostedRelease, error)
}

// RecalibrationFactors supplies the factor correcting an organization's effective sample rate.
// A factor of 0 means none is available.
type RecalibrationFactors interface {
	GetAdjustedFactor(ctx context.Context, orgID int64) (float64, error)
}

// ErrorReporter receives errors that are handled without being returned to the caller.
type ErrorReporter interface {
	CaptureException(ctx context.Context, err error)
}

// Collaborators are the external services the Generator reads from.
// Only Quota is required. An unset collaborator disables what depends on it.
type Collaborators struct {
	Quota QuotaResolver

	SlidingWindow   SlidingWindowRates
	ProjectPriority ProjectPriorityRates
	Features        FeatureChecker

	TransactionRates     TransactionResamplingRates
	Releases             ReleaseBoosts
	RecalibrationFactors RecalibrationFactors

	// Reporter defaults to logging the error.
	Reporter ErrorReporter
	// Now defaults to time.Now.
	Now func() time.Time
}

var errMissingQuotaResolver = errors.New("a quota resolver is required")

type logErrorReporter struct {
	logger *zap.Logger
}

var _ ErrorReporter = (*logErrorReporter)(nil)

func (r *logErrorReporter) CaptureException(_ context.Context, err error) {
	r.logger.Error("dynamic sampling error", zap.Error(err))
}

func hasFeature(ctx context.Context, features FeatureChecker, flag string, org tenant.Organization) bool {
	if features == nil {
		return false
	}
	return features.Has(ctx, flag, org)
}
