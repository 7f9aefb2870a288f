package ssa

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadNetworkConfig reads a NetworkConfig from path, detecting JSON vs.
// YAML by extension (.json vs .yml/.yaml). SBML/GraphML detection and
// parsing remain an external collaborator's concern.
func LoadNetworkConfig(path string) (NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NetworkConfig{}, fmt.Errorf("reading network file: %w", err)
	}

	var cfg NetworkConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return NetworkConfig{}, fmt.Errorf("%w: parsing YAML network file: %v", ErrInvalidFormat, err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return NetworkConfig{}, fmt.Errorf("%w: parsing JSON network file: %v", ErrInvalidFormat, err)
		}
	default:
		return NetworkConfig{}, fmt.Errorf("%w: unrecognized network file extension %q", ErrInvalidFormat, ext)
	}
	return cfg, nil
}

// BuildNetworkFromConfig validates cfg and converts it into an
// initialized Network, ready for a scheduler. reuse controls whether
// compiled_formula rate laws may reuse a previously compiled goja program
// for identical source text.
func BuildNetworkFromConfig(cfg NetworkConfig, reuse bool) (*Network, error) {
	if err := ValidateNetworkConfig(cfg); err != nil {
		return nil, err
	}

	n := NewNetwork()

	for _, sp := range cfg.Species {
		if err := n.AddSpecies(Species{
			Name:        SpeciesName(sp.Name),
			Description: sp.Description,
			Count:       sp.Count,
			Volume:      sp.Volume,
		}); err != nil {
			return nil, err
		}
	}

	for _, rc := range cfg.Reactions {
		evaluator, err := buildEvaluator(rc.RateLaw, rc.Reactants, reuse)
		if err != nil {
			return nil, fmt.Errorf("reaction %q: %w", rc.ID, err)
		}

		r := &Reaction{
			ID:        ReactionID(rc.ID),
			Name:      rc.Name,
			Reactants: toStoichEdges(rc.Reactants),
			Products:  toStoichEdges(rc.Products),
			Params:    rc.Params,
			Evaluator: evaluator,
		}
		for _, m := range rc.Modifiers {
			r.Modifiers = append(r.Modifiers, SpeciesName(m))
		}
		if err := n.AddReaction(r); err != nil {
			return nil, err
		}
	}

	if err := n.Init(); err != nil {
		return nil, err
	}
	return n, nil
}

func toStoichEdges(cfgs []StoichEdgeConfig) []StoichEdge {
	out := make([]StoichEdge, 0, len(cfgs))
	for _, c := range cfgs {
		stoich := c.Stoichiometry
		if stoich <= 0 {
			stoich = 1
		}
		out = append(out, StoichEdge{Species: SpeciesName(c.Species), Stoichiometry: stoich})
	}
	return out
}

func buildEvaluator(rl RateLawConfig, reactants []StoichEdgeConfig, reuse bool) (RateEvaluator, error) {
	switch rl.Kind {
	case "mass_action":
		return MassAction{K: rl.K, Reactants: toStoichEdges(reactants)}, nil
	case "compiled_formula":
		return NewCompiledFormula(rl.Formula, reuse)
	case "interpreted_expression":
		return InterpretedExpression{Source: rl.Formula}, nil
	default:
		return nil, fmt.Errorf("%w: unknown rate law kind %q", ErrInvalidFormat, rl.Kind)
	}
}
