package biases // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/biases"

import (
	"context"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

// healthCheckDroppingFactor divides the base rate for health check transactions.
const healthCheckDroppingFactor = 5

// HealthCheckGlobs match transaction names of health and readiness probes.
var HealthCheckGlobs = []string{
	"*healthcheck*",
	"*healthy*",
	"*live*",
	"*ready*",
	"*heartbeat*",
	"*/health",
	"*/healthz",
	"*/ping",
}

type ignoreHealthChecksBias struct{}

var _ Bias = (*ignoreHealthChecksBias)(nil)

func NewIgnoreHealthChecks() Bias {
	return &ignoreHealthChecksBias{}
}

func (b *ignoreHealthChecksBias) GenerateRules(_ context.Context, _ tenant.Project, baseSampleRate float64) ([]rules.Rule, error) {
	return []rules.Rule{
		rules.NewSampleRateRule(
			rules.IgnoreHealthChecks,
			rules.IgnoreHealthChecks.BaseID(),
			baseSampleRate/healthCheckDroppingFactor,
			rules.Or(rules.Glob(traceTransaction, HealthCheckGlobs...)),
		),
	}, nil
}
