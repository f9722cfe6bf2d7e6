// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package biases // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"

import (
	"context"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

// Trace attributes matched by the generated conditions.
const (
	traceEnvironment = "trace.environment"
	traceRelease     = "trace.release"
	traceTransaction = "trace.transaction"
)

// Bias produces the sampling rules of one kind for a project.
type Bias interface {
	// GenerateRules returns the rules for the project given its base sample rate.
	// The order of the returned rules is kept by the caller and matters for factor rules.
	// Biases do not log; errors are returned to the caller which decides how to report them.
	GenerateRules(ctx context.Context, project tenant.Project, baseSampleRate float64) ([]rules.Rule, error)
}

// Func adapts an ordinary function to the Bias interface.
type Func func(ctx context.Context, project tenant.Project, baseSampleRate float64) ([]rules.Rule, error)

func (f Func) GenerateRules(ctx context.Context, project tenant.Project, baseSampleRate float64) ([]rules.Rule, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, project, baseSampleRate)
}
