package main

import "github.com/daniacca/achem-ssa/internal/ssa"

// decayReactions returns the natural decay of Suspicion and Alert back to
// baseline, mirroring an alert triage process that ages stale signals out.
// Alert decay uses an interpreted expression rather than a mass-action
// rate law; its rate, k * Alert, grows in proportion to the backlog.
func decayReactions() []ssa.ReactionConfig {
	return []ssa.ReactionConfig{
		{
			ID:        "suspicion_decay",
			Name:      "Natural decay of suspicion",
			Reactants: []ssa.StoichEdgeConfig{{Species: "Suspicion", Stoichiometry: 1}},
			RateLaw:   ssa.RateLawConfig{Kind: "mass_action", K: 0.1},
		},
		{
			ID:        "alert_decay",
			Name:      "Natural decay of alerts",
			Reactants: []ssa.StoichEdgeConfig{{Species: "Alert", Stoichiometry: 1}},
			Params:    map[string]float64{"k": 0.05},
			RateLaw:   ssa.RateLawConfig{Kind: "interpreted_expression", Formula: "k * Alert"},
		},
	}
}
