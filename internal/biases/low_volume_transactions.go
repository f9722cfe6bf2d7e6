// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package biases // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

var errImplicitRateNotPositive = errors.New("implicit resampling rate must be positive")

// ResamplingRatesGetter returns per-transaction target rates for a project, and the implicit
// rate that applies to every transaction not in the map.
type ResamplingRatesGetter interface {
	GetTransactionsResamplingRates(ctx context.Context, orgID, projectID int64, defaultRate float64) (map[string]float64, float64, error)
}

type lowVolumeTransactionsBias struct {
	rates ResamplingRatesGetter
}

var _ Bias = (*lowVolumeTransactionsBias)(nil)

func NewBoostLowVolumeTransactions(rates ResamplingRatesGetter) Bias {
	return &lowVolumeTransactionsBias{rates: rates}
}

// GenerateRules emits one factor rule per named transaction followed by a catch-all factor rule.
// With s the base rate, i the implicit rate and t a transaction's target rate, a named
// transaction is scaled by t/i and the catch-all by i/s, so the proxy computes s*(i/s)*(t/i) = t
// for a named transaction and s*(i/s) = i for everything else. Factors of exactly 1 are omitted.
//
// Rules take ids sequentially from the start of the reserved range, named transactions in name
// order and then the catch-all. One id is always left for the catch-all; transactions that do
// not fit are left to it.
func (b *lowVolumeTransactionsBias) GenerateRules(ctx context.Context, project tenant.Project, baseSampleRate float64) ([]rules.Rule, error) {
	if baseSampleRate == 0 {
		return nil, nil
	}

	named, implicit, err := b.rates.GetTransactionsResamplingRates(ctx, project.Organization.ID, project.ID, baseSampleRate)
	if err != nil {
		return nil, fmt.Errorf("error fetching transaction resampling rates: %w", err)
	}
	if len(named) == 0 {
		return nil, nil
	}
	if math.IsNaN(implicit) || implicit <= 0 {
		return nil, fmt.Errorf("%w: %f", errImplicitRateNotPositive, implicit)
	}

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	ids, _ := rules.BoostLowVolumeTransactions.ReservedIDs()
	maxNamed := ids.Size() - 1
	if len(names) > maxNamed {
		names = names[:maxNamed]
	}

	out := make([]rules.Rule, 0, len(names)+1)
	for _, name := range names {
		rate := named[name]
		if math.IsNaN(rate) || rate < 0 || rate > 1 {
			return nil, fmt.Errorf("resampling rate for transaction %q outside [0, 1]: %f", name, rate)
		}
		id := ids.First + uint32(len(out))
		cond := rules.Or(rules.EqIgnoreCase(traceTransaction, name))
		if rate == 0 {
			out = append(out, rules.NewSampleRateRule(rules.BoostLowVolumeTransactions, id, 0, cond))
			continue
		}
		if factor := rate / implicit; factor != 1.0 {
			out = append(out, rules.NewFactorRule(rules.BoostLowVolumeTransactions, id, factor, cond))
		}
	}

	if factor := implicit / baseSampleRate; factor != 1.0 {
		out = append(out, rules.NewFactorRule(rules.BoostLowVolumeTransactions, ids.First+uint32(len(out)), factor, rules.Always()))
	}
	return out, nil
}
