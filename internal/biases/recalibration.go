// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package biases // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"

import (
	"context"
	"fmt"
	"math"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

// FactorGetter returns the factor that corrects an organization's effective rate towards its target.
// A factor of 0 means none has been computed yet.
type FactorGetter interface {
	GetAdjustedFactor(ctx context.Context, orgID int64) (float64, error)
}

type recalibrationBias struct {
	factors FactorGetter
}

var _ Bias = (*recalibrationBias)(nil)

func NewRecalibration(factors FactorGetter) Bias {
	return &recalibrationBias{factors: factors}
}

// GenerateRules emits a single catch-all factor rule, or nothing when there is no correction to apply.
func (b *recalibrationBias) GenerateRules(ctx context.Context, project tenant.Project, _ float64) ([]rules.Rule, error) {
	factor, err := b.factors.GetAdjustedFactor(ctx, project.Organization.ID)
	if err != nil {
		return nil, fmt.Errorf("error fetching recalibration factor: %w", err)
	}
	if factor == 0 || factor == 1.0 {
		return nil, nil
	}
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor < 0 {
		return nil, fmt.Errorf("recalibration factor is invalid: %f", factor)
	}
	return []rules.Rule{
		rules.NewFactorRule(rules.Recalibration, rules.Recalibration.BaseID(), factor, rules.Always()),
	}, nil
}
