package biases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/tenant"
)

var testProject = tenant.Project{
	ID:           42,
	Slug:         "web",
	Platform:     "python",
	Organization: tenant.Organization{ID: 7, Slug: "acme"},
}

func TestUniform(t *testing.T) {
	for _, rate := range []float64{0, 0.2, 1.0} {
		rs, err := NewUniform().GenerateRules(context.Background(), testProject, rate)
		require.NoError(t, err)
		require.Len(t, rs, 1)
		assert.Equal(t, uint32(0), rs[0].ID)
		assert.Equal(t, rules.Uniform, rs[0].Type)
		assert.Equal(t, rules.SamplingValue{Type: rules.SampleRate, Value: rate}, rs[0].SamplingValue)
		assert.True(t, rs[0].Condition.IsAlwaysTrue())
		assert.True(t, rs[0].Active)
		assert.NoError(t, rs[0].Validate())
	}
}

func TestBoostEnvironments(t *testing.T) {
	rs, err := NewBoostEnvironments().GenerateRules(context.Background(), testProject, 0.1)
	require.NoError(t, err)
	require.Len(t, rs, 1)

	r := rs[0]
	assert.Equal(t, uint32(1001), r.ID)
	assert.Equal(t, rules.SamplingValue{Type: rules.SampleRate, Value: 1.0}, r.SamplingValue)
	assert.Equal(t, rules.Or(rules.Glob("trace.environment", "*debug*", "*dev*", "*local*", "*qa*", "*test*")), r.Condition)
	assert.NoError(t, r.Validate())
}

func TestIgnoreHealthChecks(t *testing.T) {
	rs, err := NewIgnoreHealthChecks().GenerateRules(context.Background(), testProject, 0.5)
	require.NoError(t, err)
	require.Len(t, rs, 1)

	r := rs[0]
	assert.Equal(t, uint32(1002), r.ID)
	assert.Equal(t, rules.SampleRate, r.SamplingValue.Type)
	assert.InDelta(t, 0.1, r.SamplingValue.Value, 1e-12)
	require.Len(t, r.Condition.Inner, 1)
	assert.Equal(t, "trace.transaction", r.Condition.Inner[0].Name)
	assert.Contains(t, r.Condition.Inner[0].Value, "*/healthz")
	assert.NoError(t, r.Validate())
}

func TestFunc(t *testing.T) {
	called := false
	var b Bias = Func(func(_ context.Context, p tenant.Project, rate float64) ([]rules.Rule, error) {
		called = true
		assert.Equal(t, testProject.ID, p.ID)
		assert.Equal(t, 0.3, rate)
		return nil, nil
	})
	_, err := b.GenerateRules(context.Background(), testProject, 0.3)
	assert.NoError(t, err)
	assert.True(t, called)

	rs, err := Func(nil).GenerateRules(context.Background(), testProject, 0.3)
	assert.NoError(t, err)
	assert.Nil(t, rs)
}
