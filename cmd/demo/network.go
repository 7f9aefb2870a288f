package main

import "github.com/daniacca/achem-ssa/internal/ssa"

// securityMonitoringNetwork builds the login-failure-escalation network:
// a stream of LoginFailure events promotes to Suspicion, clusters of
// Suspicion escalate to Alert, and both Suspicion and Alert decay away
// when nothing keeps reinforcing them.
func securityMonitoringNetwork() ssa.NetworkConfig {
	cfg := ssa.NetworkConfig{
		Name: "security-monitoring",
		Species: []ssa.SpeciesConfig{
			{Name: "LoginFailure", Description: "unprocessed failed-login events", Count: 200},
			{Name: "Suspicion", Description: "per-source suspicion accrued from failures"},
			{Name: "Alert", Description: "escalated, analyst-facing alerts"},
		},
		Reactions: []ssa.ReactionConfig{
			loginFailureToSuspicionReaction(),
			suspicionToAlertReaction(),
		},
	}
	cfg.Reactions = append(cfg.Reactions, decayReactions()...)
	return cfg
}
