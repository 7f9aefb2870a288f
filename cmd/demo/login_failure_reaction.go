package main

import "github.com/daniacca/achem-ssa/internal/ssa"

// loginFailureToSuspicionReaction promotes raw login-failure events into
// Suspicion population: one LoginFailure converts to one Suspicion.
func loginFailureToSuspicionReaction() ssa.ReactionConfig {
	return ssa.ReactionConfig{
		ID:        "login_failure_to_suspicion",
		Name:      "Promote login failures to suspicion",
		Reactants: []ssa.StoichEdgeConfig{{Species: "LoginFailure", Stoichiometry: 1}},
		Products:  []ssa.StoichEdgeConfig{{Species: "Suspicion", Stoichiometry: 1}},
		RateLaw:   ssa.RateLawConfig{Kind: "mass_action", K: 1.0},
	}
}
