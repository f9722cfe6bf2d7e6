// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

// Package changelog logs generated rule sets, but only when a project's rules differ from the
// ones last logged for it by this process.
package changelog // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/changelog"

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/cache"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/metadata"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
)

// GeneratedRulesMessage is the message of the record emitted for a changed rule set.
const GeneratedRulesMessage = "rules_generator.generate_rules"

const cacheName = "logged_projects"

// ErrorReporter receives failures that are swallowed rather than returned.
type ErrorReporter interface {
	CaptureException(ctx context.Context, err error)
}

// Logger remembers the fingerprint of the last rule set logged per project.
// The memory is bounded and local to the process, so other instances, or this one after an
// eviction, will log the same rule set again.
type Logger struct {
	mu        sync.Mutex
	seen      cache.Cache[Fingerprint]
	logger    *zap.Logger
	reporter  ErrorReporter
	telemetry *metadata.TelemetryBuilder
	now       func() time.Time
}

// NewLogger creates a Logger remembering up to size projects. A size of 0 disables the
// memory and every rule set is logged. now stamps the records and defaults to time.Now.
func NewLogger(
	size int,
	logger *zap.Logger,
	reporter ErrorReporter,
	telemetry *metadata.TelemetryBuilder,
	now func() time.Time,
) (*Logger, error) {
	if now == nil {
		now = time.Now
	}
	var seen cache.Cache[Fingerprint]
	if size == 0 {
		seen = cache.NewNopCache[Fingerprint]()
	} else {
		var err error
		if seen, err = cache.NewLRUCache[Fingerprint](size, nil, telemetry, cacheName); err != nil {
			return nil, fmt.Errorf("error creating logged projects cache: %w", err)
		}
	}
	return &Logger{
		seen:      seen,
		logger:    logger,
		reporter:  reporter,
		telemetry: telemetry,
		now:       now,
	}, nil
}

// MaybeLog logs rs when it differs from the rule set last logged for the project and reports
// whether it did. It never panics and never returns an error; failures go to the ErrorReporter.
func (l *Logger) MaybeLog(ctx context.Context, orgID, projectID int64, rs []rules.Rule) (logged bool) {
	defer func() {
		if r := recover(); r != nil {
			logged = false
			l.reporter.CaptureException(ctx, fmt.Errorf("panic while logging rules of project %d: %v", projectID, r))
		}
	}()

	fp, err := NewFingerprint(rs)
	if err != nil {
		l.reporter.CaptureException(ctx, fmt.Errorf("error fingerprinting rules of project %d: %w", projectID, err))
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.seen.Get(projectID); ok && prev.Equal(fp) {
		return false
	}

	l.logger.Info(GeneratedRulesMessage,
		zap.Int64("org_id", orgID),
		zap.Int64("project_id", projectID),
		zap.Time("creation_date", l.now()),
		zap.Array("rules", ruleEntries(rs)),
	)
	l.seen.Put(projectID, fp)
	l.telemetry.DynamicSamplingRuleSetsLogged.Add(ctx, 1)
	return true
}

// Forget drops the remembered fingerprint of a project so its next rule set is logged.
func (l *Logger) Forget(projectID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen.Delete(projectID)
}
