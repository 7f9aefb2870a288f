package ssa

// SpeciesConfig describes one species node for NetworkConfig. Count is the
// initial population; Volume, if set, enables the concentration view.
type SpeciesConfig struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Count       int64   `json:"count,omitempty" yaml:"count,omitempty"`
	Volume      float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// StoichEdgeConfig describes one stoichiometric edge (reactant or product).
type StoichEdgeConfig struct {
	Species       string `json:"species" yaml:"species"`
	Stoichiometry int    `json:"stoichiometry,omitempty" yaml:"stoichiometry,omitempty"`
}

// RateLawConfig describes a reaction's rate law. K applies to mass_action
// and Formula to the two formula kinds; Kind selects which evaluator variant
// BuildNetworkFromConfig constructs.
type RateLawConfig struct {
	Kind string `json:"kind" yaml:"kind"` // "mass_action" | "compiled_formula" | "interpreted_expression"

	// mass_action
	K float64 `json:"k,omitempty" yaml:"k,omitempty"`

	// compiled_formula / interpreted_expression: an ECMAScript expression
	// evaluated against species counts and Params as bound globals.
	Formula string `json:"formula,omitempty" yaml:"formula,omitempty"`
}

// ReactionConfig describes one reaction node for NetworkConfig.
type ReactionConfig struct {
	ID        string             `json:"id" yaml:"id"`
	Name      string             `json:"name,omitempty" yaml:"name,omitempty"`
	Reactants []StoichEdgeConfig `json:"reactants,omitempty" yaml:"reactants,omitempty"`
	Products  []StoichEdgeConfig `json:"products,omitempty" yaml:"products,omitempty"`
	Modifiers []string           `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Params    map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
	RateLaw   RateLawConfig      `json:"rate_law" yaml:"rate_law"`
}

// NetworkConfig is the on-disk (JSON or YAML) description of a reaction
// network. This is the concrete loader format the core ships with;
// SBML/GraphML parsing proper remains an external collaborator.
type NetworkConfig struct {
	Name      string           `json:"name" yaml:"name"`
	Species   []SpeciesConfig  `json:"species" yaml:"species"`
	Reactions []ReactionConfig `json:"reactions" yaml:"reactions"`
}
