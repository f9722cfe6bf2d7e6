// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package rules // import "github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"

import "fmt"

// RuleType identifies the bias that produced a rule.
// The string value is the bias id used in project bias configuration.
type RuleType string

const (
	// Uniform is the trailing catch-all rule applying the base sample rate.
	Uniform RuleType = "uniformRule"
	// BoostEnvironments keeps all traffic from development-like environments.
	BoostEnvironments RuleType = "boostEnvironments"
	// IgnoreHealthChecks lowers the rate of health check transactions.
	IgnoreHealthChecks RuleType = "ignoreHealthChecks"
	// Recalibration corrects the organization's effective rate towards its target.
	Recalibration RuleType = "recalibrationRule"
	// BoostLowVolumeTransactions rebalances rates across transactions of a project.
	BoostLowVolumeTransactions RuleType = "boostLowVolumeTransactions"
	// BoostLatestReleases boosts traffic of recently adopted releases.
	BoostLatestReleases RuleType = "boostLatestRelease"
)

// IDRange is the inclusive band of rule ids reserved for one RuleType.
type IDRange struct {
	First uint32
	Last  uint32
}

// Contains reports whether id falls inside the range.
func (r IDRange) Contains(id uint32) bool {
	return id >= r.First && id <= r.Last
}

// Size is the number of ids available in the range.
func (r IDRange) Size() int {
	return int(r.Last-r.First) + 1
}

// reservedIDs is shared with the proxy, which attributes rules to their bias by id.
// Changing a range requires a coordinated rollout on both sides.
var reservedIDs = map[RuleType]IDRange{
	Uniform:                    {First: 0, Last: 0},
	BoostEnvironments:          {First: 1001, Last: 1001},
	IgnoreHealthChecks:         {First: 1002, Last: 1002},
	Recalibration:              {First: 1004, Last: 1004},
	BoostLowVolumeTransactions: {First: 1400, Last: 1499},
	BoostLatestReleases:        {First: 1500, Last: 1599},
}

// AllTypes lists every known RuleType.
var AllTypes = []RuleType{
	Uniform,
	BoostEnvironments,
	IgnoreHealthChecks,
	Recalibration,
	BoostLowVolumeTransactions,
	BoostLatestReleases,
}

func (t RuleType) String() string {
	return string(t)
}

// ReservedIDs returns the id range owned by the type.
func (t RuleType) ReservedIDs() (IDRange, bool) {
	r, ok := reservedIDs[t]
	return r, ok
}

// BaseID returns the first id reserved for the type.
// It panics for unknown types, which is a programming error.
func (t RuleType) BaseID() uint32 {
	r, ok := reservedIDs[t]
	if !ok {
		panic(fmt.Sprintf("no reserved ids for rule type %q", t))
	}
	return r.First
}

// TypeFromID returns the RuleType that owns id.
func TypeFromID(id uint32) (RuleType, bool) {
	for _, t := range AllTypes {
		if reservedIDs[t].Contains(id) {
			return t, true
		}
	}
	return "", false
}

// ParseRuleType converts a bias id into a RuleType.
func ParseRuleType(s string) (RuleType, error) {
	for _, t := range AllTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("expected valid rule type, got: %s", s)
}
