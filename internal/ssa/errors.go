package ssa

import "errors"

// Setup-time errors (ErrInvalidNetwork,
// ErrInvalidFormat, ErrUnknownMethod, ErrInvalidFragmentSize) abort
// initialization and bubble to the caller. Run-time exhaustion conditions
// (Empty, Inactive — see scheduler.go's Status) are not errors. ErrNoEligibleReaction
// during a run indicates an invariant violation and is fatal. ErrIOFailure
// during recording triggers a final flush attempt and a diagnostic.
var (
	ErrInvalidNetwork         = errors.New("ssa: invalid network")
	ErrInvalidFormat          = errors.New("ssa: invalid format")
	ErrNoEligibleReaction     = errors.New("ssa: no eligible reaction")
	ErrNoPriorEvent           = errors.New("ssa: no prior event to roll back")
	ErrInvalidFragmentSize    = errors.New("ssa: invalid fragment size")
	ErrIOFailure              = errors.New("ssa: recorder I/O failure")
	ErrUnknownMethod          = errors.New("ssa: unknown method")
	ErrStoichiometryUnderflow = errors.New("ssa: stoichiometry underflow")
)
