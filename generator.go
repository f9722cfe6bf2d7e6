// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

// Package dynamicsampling generates the ordered sampling rules an edge proxy uses to decide
// which traces of a project to keep, so that ingestion stays within the organization's quota.
package dynamicsampling // import "github.com/atlassian-labs/atlassian-dynamic-sampling"

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/changelog"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/metadata"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

const (
	emptyReasonSampleRate = "sample_rate"
	emptyReasonPanic      = "panic"
)

// Generator computes the sampling rules of projects.
// It is safe for concurrent use.
type Generator struct {
	cfg        *Config
	resolver   *sampleRateResolver
	combinator *biasCombinator
	changes    *changelog.Logger
	reporter   ErrorReporter

	log       *zap.Logger
	telemetry *metadata.TelemetryBuilder
	tracer    trace.Tracer
}

func NewGenerator(cfg *Config, set component.TelemetrySettings, c Collaborators) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.Quota == nil {
		return nil, errMissingQuotaResolver
	}

	telemetry, err := metadata.NewTelemetryBuilder(set)
	if err != nil {
		return nil, err
	}

	reporter := c.Reporter
	if reporter == nil {
		reporter = &logErrorReporter{logger: set.Logger}
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	changes, err := changelog.NewLogger(cfg.LoggedProjectsCacheSize, set.Logger, reporter, telemetry, now)
	if err != nil {
		return nil, err
	}

	return &Generator{
		cfg:        cfg,
		resolver:   newSampleRateResolver(c, cfg.Features, set.Logger, telemetry),
		combinator: newBiasCombinator(c, cfg, now),
		changes:    changes,
		reporter:   reporter,
		log:        set.Logger,
		telemetry:  telemetry,
		tracer:     metadata.Tracer(set),
	}, nil
}

// GenerateRules returns the ordered rules for the project. It never fails: when the
// organization's sample rate cannot be resolved, or generation panics, the error is reported
// and an empty list is returned so the proxy falls back to its own defaults.
// A bias that fails is skipped and the rules of the other biases are still returned.
func (g *Generator) GenerateRules(ctx context.Context, project tenant.Project) (out []rules.Rule) {
	ctx, span := g.tracer.Start(ctx, "GenerateRules", trace.WithAttributes(
		attribute.Int64("org_id", project.Organization.ID),
		attribute.Int64("project_id", project.ID),
	))
	start := time.Now()
	defer func() {
		g.telemetry.DynamicSamplingGenerationTime.Record(ctx, time.Since(start).Nanoseconds())
		span.SetAttributes(attribute.Int("rules", len(out)))
		span.End()
	}()
	defer func() {
		if r := recover(); r != nil {
			g.fail(ctx, span, emptyReasonPanic, fmt.Errorf("panic while generating rules of project %d: %v", project.ID, r))
			out = []rules.Rule{}
		}
	}()

	baseSampleRate, err := g.resolver.resolve(ctx, project)
	if err != nil {
		g.fail(ctx, span, emptyReasonSampleRate, err)
		return []rules.Rule{}
	}
	span.SetAttributes(attribute.Float64("sample_rate", baseSampleRate))

	enabled := enabledBiases(project.Biases, g.cfg.DefaultBiases)
	boostable := baseSampleRate > 0 && baseSampleRate < 1

	out = []rules.Rule{}
	ids := make(map[uint32]bool)
	for _, cb := range g.combinator.combinedBiases(ctx, project.Organization) {
		if !alwaysAllowed[cb.ruleType] && !(enabled[cb.ruleType.String()] && boostable) {
			continue
		}
		rs, err := g.runBias(ctx, cb, project, baseSampleRate, ids)
		if err != nil {
			g.log.Warn("bias failed to generate rules",
				zap.String("rule_type", cb.ruleType.String()),
				zap.Int64("project_id", project.ID),
				zap.Error(err),
			)
			g.telemetry.DynamicSamplingBiasFailures.Add(ctx, 1, ruleTypeAttr(cb.ruleType))
			continue
		}
		for _, r := range rs {
			ids[r.ID] = true
		}
		if len(rs) > 0 {
			g.telemetry.DynamicSamplingRulesGenerated.Add(ctx, int64(len(rs)), ruleTypeAttr(cb.ruleType))
		}
		out = append(out, rs...)
	}

	g.changes.MaybeLog(ctx, project.Organization.ID, project.ID, out)
	return out
}

// runBias invokes a single bias and checks its rules before they join the set.
// taken holds the ids already used by earlier biases.
func (g *Generator) runBias(
	ctx context.Context,
	cb combinedBias,
	project tenant.Project,
	baseSampleRate float64,
	taken map[uint32]bool,
) (rs []rules.Rule, err error) {
	defer func() {
		if r := recover(); r != nil {
			rs, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	rs, err = cb.bias.GenerateRules(ctx, project, baseSampleRate)
	if err != nil {
		return nil, err
	}
	for _, r := range rs {
		if r.Type != cb.ruleType {
			return nil, fmt.Errorf("bias produced a rule of type %q", r.Type)
		}
		if taken[r.ID] {
			return nil, fmt.Errorf("rule id %d already in use", r.ID)
		}
	}
	if err = rules.Validate(rs); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return rs, nil
}

func (g *Generator) fail(ctx context.Context, span trace.Span, reason string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	g.reporter.CaptureException(ctx, err)
	g.telemetry.DynamicSamplingEmptyRuleSets.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// GenerateRulesForProjects generates the rules of every project, working on up to
// Config.Concurrency projects at once. The result is keyed by project id.
func (g *Generator) GenerateRulesForProjects(ctx context.Context, projects []tenant.Project) map[int64][]rules.Rule {
	results := make([][]rules.Rule, len(projects))

	var eg errgroup.Group
	eg.SetLimit(g.cfg.Concurrency)
	for i, project := range projects {
		eg.Go(func() error {
			results[i] = g.GenerateRules(ctx, project)
			return nil
		})
	}
	_ = eg.Wait()

	out := make(map[int64][]rules.Rule, len(projects))
	for i, project := range projects {
		out[project.ID] = results[i]
	}
	return out
}

func ruleTypeAttr(t rules.RuleType) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("rule_type", t.String()))
}
