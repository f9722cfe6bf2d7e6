//go:build tools
// +build tools

package tools // import "github.com/atlassian-labs/atlassian-dynamic-sampling/internal/tools"

// Pins the tool dependencies of the module so every checkout runs the same versions.
// porto keeps the vanity import comments on package clauses in sync with the module path.

import (
	_ "github.com/jcchavezs/porto/cmd/porto"
)
