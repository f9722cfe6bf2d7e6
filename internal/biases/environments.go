package biases // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"

import (
	"context"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

// DevelopmentEnvironmentGlobs match environment names that are kept in full.
var DevelopmentEnvironmentGlobs = []string{
	"*debug*",
	"*dev*",
	"*local*",
	"*qa*",
	"*test*",
}

type boostEnvironmentsBias struct{}

var _ Bias = (*boostEnvironmentsBias)(nil)

func NewBoostEnvironments() Bias {
	return &boostEnvironmentsBias{}
}

// GenerateRules samples every trace from a development environment.
func (b *boostEnvironmentsBias) GenerateRules(_ context.Context, _ tenant.Project, _ float64) ([]rules.Rule, error) {
	return []rules.Rule{
		rules.NewSampleRateRule(
			rules.BoostEnvironments,
			rules.BoostEnvironments.BaseID(),
			1.0,
			rules.Or(rules.Glob(traceEnvironment, DevelopmentEnvironmentGlobs...)),
		),
	}, nil
}
