package ssa

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// MassAction computes rate = k * combinatorial(reactant counts, stoichiometry),
// the standard Gillespie propensity for an elementary mass-action reaction.
type MassAction struct {
	K         float64
	Reactants []StoichEdge
}

func (m MassAction) Evaluate(counts map[SpeciesName]int64, _ map[string]float64) (float64, error) {
	rate := m.K
	for _, edge := range m.Reactants {
		n := counts[edge.Species]
		combo := combinations(n, edge.Stoichiometry)
		if combo == 0 {
			return 0, nil
		}
		rate *= combo
	}
	return rate, nil
}

// combinations returns n! / ((n-k)! * k!) * k! == n*(n-1)*...*(n-k+1), the
// number of ways to draw k molecules (without replacement) out of n,
// which is the combinatorial correction mass-action propensities use in
// place of count^stoichiometry.
func combinations(n int64, k int) float64 {
	if k <= 0 {
		return 1
	}
	if n < int64(k) {
		return 0
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= float64(n - int64(i))
	}
	return result
}

// programCache memoizes compiled goja programs by source text so that
// BuildNetworkFromConfig with reuse=true can avoid recompiling a rate law
// already seen in this process.
type programCache struct {
	mu    sync.Mutex
	byKey map[string]*goja.Program
}

var globalProgramCache = &programCache{byKey: make(map[string]*goja.Program)}

func compileRateFormula(source string, reuse bool) (*goja.Program, error) {
	if reuse {
		globalProgramCache.mu.Lock()
		if p, ok := globalProgramCache.byKey[source]; ok {
			globalProgramCache.mu.Unlock()
			return p, nil
		}
		globalProgramCache.mu.Unlock()
	}

	p, err := goja.Compile("rate", source, true)
	if err != nil {
		return nil, fmt.Errorf("compiling rate formula: %w", err)
	}

	if reuse {
		globalProgramCache.mu.Lock()
		globalProgramCache.byKey[source] = p
		globalProgramCache.mu.Unlock()
	}
	return p, nil
}

// CompiledFormula evaluates a pre-compiled goja program against species
// counts and declared parameters exposed as bound globals. Grounded on
// Comcast-sheens's interpreters/goja/goja.go compile/bind/run pattern.
type CompiledFormula struct {
	Source  string
	program *goja.Program
}

// NewCompiledFormula compiles source once (honoring the process-wide
// program cache when reuse is true) and returns an evaluator bound to it.
func NewCompiledFormula(source string, reuse bool) (*CompiledFormula, error) {
	p, err := compileRateFormula(source, reuse)
	if err != nil {
		return nil, err
	}
	return &CompiledFormula{Source: source, program: p}, nil
}

func (f *CompiledFormula) Evaluate(counts map[SpeciesName]int64, params map[string]float64) (float64, error) {
	return runRateProgram(f.program, counts, params)
}

// InterpretedExpression compiles its source on every call; intended for
// rarely-fired reactions where recompilation cost doesn't matter.
type InterpretedExpression struct {
	Source string
}

func (e InterpretedExpression) Evaluate(counts map[SpeciesName]int64, params map[string]float64) (float64, error) {
	p, err := compileRateFormula(e.Source, false)
	if err != nil {
		return 0, err
	}
	return runRateProgram(p, counts, params)
}

func runRateProgram(p *goja.Program, counts map[SpeciesName]int64, params map[string]float64) (rate float64, err error) {
	vm := goja.New()
	for name, count := range counts {
		vm.Set(string(name), count)
	}
	for name, value := range params {
		vm.Set(name, value)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rate formula panicked: %v", r)
		}
	}()

	v, runErr := vm.RunProgram(p)
	if runErr != nil {
		return 0, fmt.Errorf("evaluating rate formula: %w", runErr)
	}

	rate = v.ToFloat()
	if rate < 0 {
		return 0, fmt.Errorf("rate formula produced negative rate %g", rate)
	}
	return rate, nil
}
