package changelog // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/changelog"

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"
)

type ruleEntries []rules.Rule

func (rs ruleEntries) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, r := range rs {
		if err := enc.AppendObject(ruleEntry(r)); err != nil {
			return err
		}
	}
	return nil
}

// ruleEntry flattens a rule into the fields an operator looks for when reading the log.
type ruleEntry rules.Rule

func (r ruleEntry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", string(r.Type))
	enc.AddUint32("id", r.ID)
	enc.AddString("samplingValueType", string(r.SamplingValue.Type))
	enc.AddFloat64("samplingValue", r.SamplingValue.Value)

	switch r.Type {
	case rules.BoostEnvironments:
		zap.Strings("environments", values(r.Condition, "trace.environment")).AddTo(enc)
	case rules.IgnoreHealthChecks:
		zap.Strings("healthChecks", values(r.Condition, "trace.transaction")).AddTo(enc)
	case rules.BoostLatestReleases:
		if release := values(r.Condition, "trace.release"); len(release) > 0 {
			enc.AddString("release", release[0])
		}
		if env := values(r.Condition, "trace.environment"); len(env) > 0 {
			enc.AddString("environment", env[0])
		}
		if r.TimeRange != nil {
			enc.AddTime("timeRangeStart", r.TimeRange.Start)
			enc.AddTime("timeRangeEnd", r.TimeRange.End)
		}
	case rules.BoostLowVolumeTransactions:
		if txs := values(r.Condition, "trace.transaction"); len(txs) > 0 {
			zap.Strings("transactions", txs).AddTo(enc)
		}
	}
	return nil
}

// values collects the values every leaf of the condition tree matches name against.
func values(c rules.Condition, name string) []string {
	if c.Op == rules.OpAnd || c.Op == rules.OpOr {
		var out []string
		for _, inner := range c.Inner {
			out = append(out, values(inner, name)...)
		}
		return out
	}
	if c.Name == name {
		return c.Value
	}
	return nil
}
