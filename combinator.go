package dynamicsampling // import "github.com/atlassian-labs/atlassian-dynamic-sampling"

import (
	"context"
	"time"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

// alwaysAllowed biases run whatever the project configuration and base sample rate.
var alwaysAllowed = map[rules.RuleType]bool{
	rules.Uniform:       true,
	rules.Recalibration: true,
}

// combinedBias wraps a Bias with the rule type it produces.
type combinedBias struct {
	ruleType rules.RuleType
	bias     biases.Bias
}

// biasCombinator orders the biases that apply to an organization.
// The order is fixed: factor rules must come before the sample rate rules they scale, and the
// uniform rule must come last. Recalibration comes first so that its factor reaches every trace,
// including the ones matched by the environment and health check rules.
type biasCombinator struct {
	features FeatureChecker
	flags    FeatureFlags

	environments   combinedBias
	healthChecks   combinedBias
	recalibration  *combinedBias
	latestReleases *combinedBias
	lowVolume      *combinedBias
	uniform        combinedBias
}

func newBiasCombinator(c Collaborators, cfg *Config, now func() time.Time) *biasCombinator {
	bc := &biasCombinator{
		features:     c.Features,
		flags:        cfg.Features,
		environments: combinedBias{ruleType: rules.BoostEnvironments, bias: biases.NewBoostEnvironments()},
		healthChecks: combinedBias{ruleType: rules.IgnoreHealthChecks, bias: biases.NewIgnoreHealthChecks()},
		uniform:      combinedBias{ruleType: rules.Uniform, bias: biases.NewUniform()},
	}
	if c.RecalibrationFactors != nil {
		bc.recalibration = &combinedBias{ruleType: rules.Recalibration, bias: biases.NewRecalibration(c.RecalibrationFactors)}
	}
	if c.Releases != nil {
		bc.latestReleases = &combinedBias{
			ruleType: rules.BoostLatestReleases,
			bias:     biases.NewBoostLatestReleases(c.Releases, cfg.BoostedReleasesLimit, now),
		}
	}
	if c.TransactionRates != nil {
		bc.lowVolume = &combinedBias{ruleType: rules.BoostLowVolumeTransactions, bias: biases.NewBoostLowVolumeTransactions(c.TransactionRates)}
	}
	return bc
}

// combinedBiases returns the biases to consider for org in evaluation order.
// Biases that do not apply to the organization are left out.
func (bc *biasCombinator) combinedBiases(ctx context.Context, org tenant.Organization) []combinedBias {
	out := make([]combinedBias, 0, 6)
	if bc.recalibration != nil && hasFeature(ctx, bc.features, bc.flags.Recalibration, org) {
		out = append(out, *bc.recalibration)
	}
	out = append(out, bc.environments, bc.healthChecks)
	if bc.latestReleases != nil {
		out = append(out, *bc.latestReleases)
	}
	if bc.lowVolume != nil {
		out = append(out, *bc.lowVolume)
	}
	return append(out, bc.uniform)
}

// enabledBiases returns the ids of the biases enabled for a project. Only ids in defaults are
// considered; the project's own setting wins over the default one.
func enabledBiases(projectBiases, defaults []tenant.BiasOption) map[string]bool {
	overrides := make(map[string]bool, len(projectBiases))
	for _, b := range projectBiases {
		overrides[b.ID] = b.Active
	}
	enabled := make(map[string]bool, len(defaults))
	for _, d := range defaults {
		active := d.Active
		if o, ok := overrides[d.ID]; ok {
			active = o
		}
		if active {
			enabled[d.ID] = true
		}
	}
	return enabled
}
