// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package metadata // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/metadata"

import (
	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

// ScopeName is the instrumentation scope of all metrics and spans emitted by the module.
const ScopeName = "github.com/atlassian-labs/atlassian-dynamic-sampling"

func Meter(settings component.TelemetrySettings) metric.Meter {
	return settings.MeterProvider.Meter(ScopeName)
}

func Tracer(settings component.TelemetrySettings) trace.Tracer {
	return settings.TracerProvider.Tracer(ScopeName)
}

// TelemetryBuilder provides an interface for components to report telemetry.
type TelemetryBuilder struct {
	meter                              metric.Meter
	DynamicSamplingBiasFailures        metric.Int64Counter
	DynamicSamplingCacheReads          metric.Int64Counter
	DynamicSamplingEmptyRuleSets       metric.Int64Counter
	DynamicSamplingGenerationTime      metric.Int64Histogram
	DynamicSamplingRuleSetsLogged      metric.Int64Counter
	DynamicSamplingRulesGenerated      metric.Int64Counter
	DynamicSamplingSampleRateFallbacks metric.Int64Counter
}

// NewTelemetryBuilder builds all instruments from the settings' MeterProvider.
func NewTelemetryBuilder(settings component.TelemetrySettings) (*TelemetryBuilder, error) {
	builder := TelemetryBuilder{meter: Meter(settings)}
	var err, errs error
	builder.DynamicSamplingBiasFailures, err = builder.meter.Int64Counter(
		"dynamic_sampling_bias_failures",
		metric.WithDescription("Number of bias invocations that failed and contributed no rules."),
		metric.WithUnit("1"),
	)
	errs = multierr.Append(errs, err)
	builder.DynamicSamplingCacheReads, err = builder.meter.Int64Counter(
		"dynamic_sampling_cache_reads",
		metric.WithDescription("Number of reads from a cache, labelled by hit."),
		metric.WithUnit("1"),
	)
	errs = multierr.Append(errs, err)
	builder.DynamicSamplingEmptyRuleSets, err = builder.meter.Int64Counter(
		"dynamic_sampling_empty_rule_sets",
		metric.WithDescription("Number of rule generations that returned no rules because of an error."),
		metric.WithUnit("1"),
	)
	errs = multierr.Append(errs, err)
	builder.DynamicSamplingGenerationTime, err = builder.meter.Int64Histogram(
		"dynamic_sampling_generation_time",
		metric.WithDescription("Time taken to generate the rules of one project."),
		metric.WithUnit("ns"),
	)
	errs = multierr.Append(errs, err)
	builder.DynamicSamplingRuleSetsLogged, err = builder.meter.Int64Counter(
		"dynamic_sampling_rule_sets_logged",
		metric.WithDescription("Number of rule set changes written to the log."),
		metric.WithUnit("1"),
	)
	errs = multierr.Append(errs, err)
	builder.DynamicSamplingRulesGenerated, err = builder.meter.Int64Counter(
		"dynamic_sampling_rules_generated",
		metric.WithDescription("Number of rules generated, labelled by rule type."),
		metric.WithUnit("1"),
	)
	errs = multierr.Append(errs, err)
	builder.DynamicSamplingSampleRateFallbacks, err = builder.meter.Int64Counter(
		"dynamic_sampling_sample_rate_fallbacks",
		metric.WithDescription("Number of times an adaptive overlay failed and the quota rate was used instead."),
		metric.WithUnit("1"),
	)
	errs = multierr.Append(errs, err)
	return &builder, errs
}
