// Package conflict evaluates a fixed rule table over a registry snapshot
// and reports known-hazardous backend combinations.
//
// Detection is a pure function of its inputs: identical registries and
// environments always produce the identical ordered finding sequence.
// Findings are emitted in rule declaration order, never reordered by
// severity, and the detector only reports; it never applies remediation.
package conflict

import (
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// Rule identifiers, one per entry in the rule table.
const (
	RuleDualOpenMP         = "DualOpenMP"
	RuleIntelLLVMClash     = "IntelLLVMClash"
	RuleForkUnsafeDeclared = "ForkUnsafeDeclared"
	RuleDualBLAS           = "DualBLAS"
)

// Environment carries caller-declared facts the rules may consult.
// Nothing in it is inferred from process state.
type Environment struct {
	// ForkDeclared is set when the embedding application has explicitly
	// declared an impending fork.
	ForkDeclared bool
}

// Rule is one stateless conflict predicate.
type Rule struct {
	// ID identifies the rule in findings.
	ID string

	// Severity is attached to every finding the rule produces.
	Severity types.Severity

	// Evaluate returns the rule's findings for a registry. It must be a
	// pure function of (registry, environment).
	Evaluate func(reg *types.Registry, env Environment) []types.Finding
}

// rules is the process-wide constant rule table. Declaration order is
// output order.
var rules = []Rule{
	{
		ID:       RuleDualOpenMP,
		Severity: types.SeverityWarning,
		Evaluate: dualOpenMP,
	},
	{
		ID:       RuleIntelLLVMClash,
		Severity: types.SeverityError,
		Evaluate: intelLLVMClash,
	},
	{
		ID:       RuleForkUnsafeDeclared,
		Severity: types.SeverityWarning,
		Evaluate: forkUnsafeDeclared,
	},
	{
		ID:       RuleDualBLAS,
		Severity: types.SeverityWarning,
		Evaluate: dualBLAS,
	},
}

// Rules returns a copy of the rule table in declaration order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Detect evaluates every rule against the registry in declaration order.
// It never errors; an empty registry simply yields no findings.
func Detect(reg *types.Registry, env Environment) []types.Finding {
	var findings []types.Finding
	for _, rule := range rules {
		findings = append(findings, rule.Evaluate(reg, env)...)
	}
	return findings
}
