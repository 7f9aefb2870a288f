package main

import "github.com/daniacca/achem-ssa/internal/ssa"

// suspicionToAlertReaction escalates a cluster of Suspicion into an Alert:
// three outstanding Suspicion combine into one high-severity Alert. The
// stoichiometry-3 reactant edge lets the mass-action propensity express
// the same "three strikes" threshold the original pattern-matching rule
// enforced per source IP, without tracking IPs individually.
func suspicionToAlertReaction() ssa.ReactionConfig {
	return ssa.ReactionConfig{
		ID:        "suspicion_to_alert",
		Name:      "Promote suspicion clusters to alerts",
		Reactants: []ssa.StoichEdgeConfig{{Species: "Suspicion", Stoichiometry: 3}},
		Products:  []ssa.StoichEdgeConfig{{Species: "Alert", Stoichiometry: 1}},
		RateLaw:   ssa.RateLawConfig{Kind: "mass_action", K: 0.8},
	}
}
