package client_test

import (
	"context"
	"fmt"

	"github.com/daniacca/achem-ssa/pkg/client"
)

func ExampleNetworkBuilder() {
	network := client.NewNetwork("security-alerts").
		Species("LoginFailure", "Raw failed-login events", 200, 0).
		Species("Suspicion", "Suspicious clusters", 0, 0).
		Species("Alert", "Escalated alerts", 0, 0).
		Reaction(client.NewReaction("login_failure_to_suspicion").
			Reactant("LoginFailure", 1).
			Product("Suspicion", 1).
			MassAction(1.0),
		).
		Reaction(client.NewReaction("suspicion_to_alert").
			Reactant("Suspicion", 3).
			Product("Alert", 1).
			MassAction(0.8),
		)

	cfg := network.Build()
	fmt.Printf("Network: %s\n", cfg.Name)
	fmt.Printf("Species: %d\n", len(cfg.Species))
	fmt.Printf("Reactions: %d\n", len(cfg.Reactions))

	// Output:
	// Network: security-alerts
	// Species: 3
	// Reactions: 2
}

func ExampleClient_CreateNetwork() {
	ctx := context.Background()
	network := client.NewNetwork("test").
		Species("A", "Test species", 10, 0)

	c := client.NewClient("http://localhost:8080")

	// This would send the network to a running achem-ssa-server and create
	// a run for it (Run starts it). Uncomment against a live server to
	// actually send:
	// runID, err := c.CreateNetwork(ctx, network.Build(), 0, 10_000, ssa.UnboundedTime)
	// if err != nil {
	// 	log.Fatal(err)
	// }

	_ = ctx
	_ = c
	_ = network
}

func ExampleReactionBuilder_CompiledFormula() {
	network := client.NewNetwork("security-alerts").
		Species("LoginFailure", "Raw failed-login events", 200, 0).
		Species("Alert", "Escalated alerts", 0, 0).
		Reaction(client.NewReaction("login_failure_to_alert").
			Reactant("LoginFailure", 1).
			Product("Alert", 1).
			Param("k", 0.02).
			CompiledFormula("k * LoginFailure"),
		)

	_ = network
}
