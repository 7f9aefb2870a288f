package ssa

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues so a caller sees
// every problem with a network description in one pass, rather than
// fixing them one at a time.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid network: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "network validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

var validRateLawKinds = map[string]bool{
	"mass_action":            true,
	"compiled_formula":       true,
	"interpreted_expression": true,
}

// ValidateNetworkConfig performs comprehensive validation of a
// NetworkConfig: every reactant/product/modifier must reference a
// declared species, IDs must be unique, and stoichiometries must not be
// negative (0 is accepted; the builder treats it as 1). Formula sources
// are not scanned for the symbols they reference.
func ValidateNetworkConfig(cfg NetworkConfig) error {
	verr := &ValidationError{}

	if cfg.Name == "" {
		verr.Add("network name is required")
	}

	speciesSeen := make(map[string]bool, len(cfg.Species))
	for _, sp := range cfg.Species {
		if sp.Name == "" {
			verr.Add("species name is required")
			continue
		}
		if speciesSeen[sp.Name] {
			verr.Add("duplicate species name: " + sp.Name)
			continue
		}
		speciesSeen[sp.Name] = true
		if sp.Count < 0 {
			verr.Add(fmt.Sprintf("species %q: count must be non-negative, got %d", sp.Name, sp.Count))
		}
	}

	reactionIDs := make(map[string]bool, len(cfg.Reactions))
	for i, rc := range cfg.Reactions {
		prefix := fmt.Sprintf("reaction at index %d", i)
		if rc.ID != "" {
			prefix = fmt.Sprintf("reaction %q", rc.ID)
		}

		if rc.ID == "" {
			verr.Add(prefix + ": reaction ID is required")
		} else if reactionIDs[rc.ID] {
			verr.Add("duplicate reaction ID: " + rc.ID)
		} else {
			reactionIDs[rc.ID] = true
		}

		if len(rc.Reactants) == 0 && len(rc.Products) == 0 {
			verr.Add(prefix + ": must have at least one reactant or product")
		}

		validateEdges(rc.Reactants, prefix+" reactants", speciesSeen, verr)
		validateEdges(rc.Products, prefix+" products", speciesSeen, verr)

		for _, mod := range rc.Modifiers {
			if !speciesSeen[mod] {
				verr.Add(fmt.Sprintf("%s: modifier species %q does not exist", prefix, mod))
			}
		}

		validateRateLaw(rc.RateLaw, prefix, verr)
	}

	if verr.HasIssues() {
		return verr
	}
	return nil
}

func validateEdges(edges []StoichEdgeConfig, prefix string, speciesSeen map[string]bool, verr *ValidationError) {
	for j, e := range edges {
		edgePrefix := fmt.Sprintf("%s[%d]", prefix, j)
		if e.Species == "" {
			verr.Add(edgePrefix + ": species is required")
			continue
		}
		if !speciesSeen[e.Species] {
			verr.Add(fmt.Sprintf("%s: species %q does not exist", edgePrefix, e.Species))
		}
		if e.Stoichiometry < 0 {
			verr.Add(fmt.Sprintf("%s: stoichiometry must not be negative, got %d", edgePrefix, e.Stoichiometry))
		}
	}
}

func validateRateLaw(rl RateLawConfig, prefix string, verr *ValidationError) {
	if rl.Kind == "" {
		verr.Add(prefix + ": rate_law.kind is required")
		return
	}
	if !validRateLawKinds[rl.Kind] {
		verr.Add(fmt.Sprintf("%s: rate_law.kind %q is not one of mass_action, compiled_formula, interpreted_expression", prefix, rl.Kind))
		return
	}
	switch rl.Kind {
	case "mass_action":
		if rl.K < 0 {
			verr.Add(fmt.Sprintf("%s: rate_law.k must be non-negative", prefix))
		}
	case "compiled_formula", "interpreted_expression":
		if rl.Formula == "" {
			verr.Add(fmt.Sprintf("%s: rate_law.formula is required for kind %q", prefix, rl.Kind))
		}
	}
}
