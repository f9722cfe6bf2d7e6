// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

// Package rules holds the sampling rule model shared with the proxy that evaluates it.
package rules // import "github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/multierr"
)

// SamplingValueType tells the proxy whether a rule sets the rate or scales it.
type SamplingValueType string

const (
	// SampleRate sets the absolute rate and ends evaluation for a matching trace.
	SampleRate SamplingValueType = "sampleRate"
	// Factor multiplies the rate produced by the rules evaluated after it.
	Factor SamplingValueType = "factor"
)

// traceRuleType is the only wire rule type produced here.
const traceRuleType = "trace"

// timeFormat is the ISO-8601 layout the proxy parses for time ranges.
const timeFormat = "2006-01-02T15:04:05Z"

type SamplingValue struct {
	Type  SamplingValueType `json:"type"`
	Value float64           `json:"value"`
}

// TimeRange bounds when a rule is in effect.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

type timeRangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (tr TimeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeRangeJSON{
		Start: tr.Start.UTC().Format(timeFormat),
		End:   tr.End.UTC().Format(timeFormat),
	})
}

func (tr *TimeRange) UnmarshalJSON(data []byte) error {
	var raw timeRangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.Parse(timeFormat, raw.Start)
	if err != nil {
		return fmt.Errorf("invalid time range start: %w", err)
	}
	end, err := time.Parse(timeFormat, raw.End)
	if err != nil {
		return fmt.Errorf("invalid time range end: %w", err)
	}
	tr.Start, tr.End = start, end
	return nil
}

// DecayingFn asks the proxy to decay the sampling value over the time range.
type DecayingFn struct {
	Type         string  `json:"type"`
	DecayedValue float64 `json:"decayedValue"`
}

// Rule is one sampling decision unit consumed by the proxy.
type Rule struct {
	ID            uint32
	Type          RuleType
	SamplingValue SamplingValue
	Condition     Condition
	Active        bool
	TimeRange     *TimeRange
	DecayingFn    *DecayingFn
}

// NewSampleRateRule returns an active rule setting the absolute rate for matching traces.
func NewSampleRateRule(t RuleType, id uint32, rate float64, cond Condition) Rule {
	return Rule{
		ID:            id,
		Type:          t,
		SamplingValue: SamplingValue{Type: SampleRate, Value: rate},
		Condition:     cond,
		Active:        true,
	}
}

// NewFactorRule returns an active rule scaling the rate of matching traces.
func NewFactorRule(t RuleType, id uint32, factor float64, cond Condition) Rule {
	return Rule{
		ID:            id,
		Type:          t,
		SamplingValue: SamplingValue{Type: Factor, Value: factor},
		Condition:     cond,
		Active:        true,
	}
}

type ruleJSON struct {
	ID            uint32        `json:"id"`
	SamplingValue SamplingValue `json:"samplingValue"`
	Type          string        `json:"type"`
	Condition     Condition     `json:"condition"`
	Active        bool          `json:"active"`
	TimeRange     *TimeRange    `json:"timeRange,omitempty"`
	DecayingFn    *DecayingFn   `json:"decayingFn,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(ruleJSON{
		ID:            r.ID,
		SamplingValue: r.SamplingValue,
		Type:          traceRuleType,
		Condition:     r.Condition,
		Active:        r.Active,
		TimeRange:     r.TimeRange,
		DecayingFn:    r.DecayingFn,
	})
}

// UnmarshalJSON decodes a wire rule, attributing it to a RuleType by its id.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, _ := TypeFromID(raw.ID)
	*r = Rule{
		ID:            raw.ID,
		Type:          t,
		SamplingValue: raw.SamplingValue,
		Condition:     raw.Condition,
		Active:        raw.Active,
		TimeRange:     raw.TimeRange,
		DecayingFn:    raw.DecayingFn,
	}
	return nil
}

// Validate checks the rule's id lies in the range reserved for its type,
// that its sampling value is usable, and that its condition is well-formed.
func (r Rule) Validate() (errs error) {
	if ids, ok := r.Type.ReservedIDs(); !ok {
		errs = multierr.Append(errs, fmt.Errorf("unknown rule type %q", r.Type))
	} else if !ids.Contains(r.ID) {
		errs = multierr.Append(errs, fmt.Errorf("rule id %d outside range [%d, %d] reserved for %s", r.ID, ids.First, ids.Last, r.Type))
	}

	v := r.SamplingValue.Value
	switch r.SamplingValue.Type {
	case SampleRate:
		if math.IsNaN(v) || v < 0 || v > 1 {
			errs = multierr.Append(errs, fmt.Errorf("sample rate %v outside [0, 1]", v))
		}
	case Factor:
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("factor %v must be positive and finite", v))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown sampling value type %q", r.SamplingValue.Type))
	}

	if r.TimeRange != nil && !r.TimeRange.End.After(r.TimeRange.Start) {
		errs = multierr.Append(errs, fmt.Errorf("time range end %s is not after start %s", r.TimeRange.End, r.TimeRange.Start))
	}

	if err := r.Condition.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalid condition: %w", err))
	}
	return errs
}

// Validate checks every rule and that no id is used twice.
func Validate(rs []Rule) (errs error) {
	seen := make(map[uint32]bool, len(rs))
	for _, r := range rs {
		if seen[r.ID] {
			errs = multierr.Append(errs, fmt.Errorf("duplicate rule id %d", r.ID))
		}
		seen[r.ID] = true
		if err := r.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w", r.ID, err))
		}
	}
	return errs
}
