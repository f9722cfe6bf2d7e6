// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0
// Modifications made by Atlassian Pty Ltd.
// Copyright © 2024 Atlassian US, Inc.
// Copyright © 2024 Atlassian Pty Ltd.

package rules // import "github.com/atlassian-labs/atlassian-dynamic-sampling/pkg/rules"

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"
	"github.com/goccy/go-json"
	"go.uber.org/multierr"
)

// Op is the operator of a condition node.
type Op string

const (
	OpAnd  Op = "and"
	OpOr   Op = "or"
	OpEq   Op = "eq"
	OpGlob Op = "glob"
)

var (
	errMissingName     = errors.New("condition is missing an attribute name")
	errMissingPatterns = errors.New("glob condition needs at least one pattern")
)

// Condition is a node of the boolean expression the proxy matches against trace attributes.
// Logical nodes (and, or) only use Inner, leaf nodes (eq, glob) use Name and Value.
type Condition struct {
	Op   Op
	Name string
	// Value holds the accepted values of an eq node or the patterns of a glob node.
	// A nil Value on an eq node matches traces where the attribute is missing.
	Value      []string
	IgnoreCase bool
	Inner      []Condition
}

// Always returns the empty and, which matches every trace.
func Always() Condition {
	return And()
}

func And(inner ...Condition) Condition {
	return Condition{Op: OpAnd, Inner: nonNil(inner)}
}

func Or(inner ...Condition) Condition {
	return Condition{Op: OpOr, Inner: nonNil(inner)}
}

// Eq matches when the attribute equals one of values.
func Eq(name string, values ...string) Condition {
	return Condition{Op: OpEq, Name: name, Value: values}
}

// EqIgnoreCase is Eq with case-insensitive comparison.
func EqIgnoreCase(name string, values ...string) Condition {
	return Condition{Op: OpEq, Name: name, Value: values, IgnoreCase: true}
}

// Glob matches when the attribute matches one of patterns.
func Glob(name string, patterns ...string) Condition {
	return Condition{Op: OpGlob, Name: name, Value: patterns}
}

// IsAlwaysTrue reports whether the condition is the empty and.
func (c Condition) IsAlwaysTrue() bool {
	return c.Op == OpAnd && len(c.Inner) == 0
}

// Validate checks the condition tree is well-formed and that all glob patterns compile.
func (c Condition) Validate() error {
	switch c.Op {
	case OpAnd, OpOr:
		var errs error
		for i, inner := range c.Inner {
			if err := inner.Validate(); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s[%d]: %w", c.Op, i, err))
			}
		}
		return errs
	case OpEq:
		if c.Name == "" {
			return errMissingName
		}
		return nil
	case OpGlob:
		if c.Name == "" {
			return errMissingName
		}
		if len(c.Value) == 0 {
			return errMissingPatterns
		}
		var errs error
		for _, pattern := range c.Value {
			if _, err := glob.Compile(pattern); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("invalid glob pattern %q: %w", pattern, err))
			}
		}
		return errs
	default:
		return fmt.Errorf("unknown condition operator %q", c.Op)
	}
}

type logicalJSON struct {
	Op    Op          `json:"op"`
	Inner []Condition `json:"inner"`
}

type eqOptions struct {
	IgnoreCase bool `json:"ignoreCase"`
}

type eqJSON struct {
	Op      Op         `json:"op"`
	Name    string     `json:"name"`
	Value   []string   `json:"value"`
	Options *eqOptions `json:"options,omitempty"`
}

type globJSON struct {
	Op    Op       `json:"op"`
	Name  string   `json:"name"`
	Value []string `json:"value"`
}

// MarshalJSON encodes the node in the shape the proxy expects for its operator.
func (c Condition) MarshalJSON() ([]byte, error) {
	switch c.Op {
	case OpAnd, OpOr:
		return json.Marshal(logicalJSON{Op: c.Op, Inner: nonNil(c.Inner)})
	case OpEq:
		eq := eqJSON{Op: c.Op, Name: c.Name, Value: c.Value}
		if c.IgnoreCase {
			eq.Options = &eqOptions{IgnoreCase: true}
		}
		return json.Marshal(eq)
	case OpGlob:
		return json.Marshal(globJSON{Op: c.Op, Name: c.Name, Value: c.Value})
	default:
		return nil, fmt.Errorf("unknown condition operator %q", c.Op)
	}
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op      Op          `json:"op"`
		Name    string      `json:"name"`
		Value   []string    `json:"value"`
		Options *eqOptions  `json:"options"`
		Inner   []Condition `json:"inner"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Condition{Op: raw.Op, Name: raw.Name, Value: raw.Value, Inner: raw.Inner}
	if raw.Options != nil {
		c.IgnoreCase = raw.Options.IgnoreCase
	}
	if c.Op == OpAnd || c.Op == OpOr {
		c.Inner = nonNil(c.Inner)
	}
	return nil
}

func nonNil(inner []Condition) []Condition {
	if inner == nil {
		return []Condition{}
	}
	return inner
}
