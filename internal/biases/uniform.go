package biases // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"

import (
	"context"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

type uniformBias struct{}

var _ Bias = (*uniformBias)(nil)

// NewUniform returns the bias emitting the trailing catch-all rule that applies the base rate.
func NewUniform() Bias {
	return &uniformBias{}
}

func (u *uniformBias) GenerateRules(_ context.Context, _ tenant.Project, baseSampleRate float64) ([]rules.Rule, error) {
	return []rules.Rule{
		rules.NewSampleRateRule(rules.Uniform, rules.Uniform.BaseID(), baseSampleRate, rules.Always()),
	}, nil
}
