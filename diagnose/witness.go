// Package diagnose turns a non-convergent run into a typed explanation:
// a witness naming the concrete evidence, a classification of the
// paradox's shape, and a minimal repair proposal.
package diagnose

import "github.com/averagestudentdontfail/Ourochronos/causal"

// WitnessKind identifies which rung of the witness hierarchy fired.
type WitnessKind uint8

const (
	WitnessNone WitnessKind = iota
	WitnessCycle
	WitnessDivergence
	WitnessNegativeLoop
	WitnessConflictCore
	WitnessUnknown
)

func (k WitnessKind) String() string {
	switch k {
	case WitnessCycle:
		return "Cycle"
	case WitnessDivergence:
		return "Divergence"
	case WitnessNegativeLoop:
		return "NegativeLoop"
	case WitnessConflictCore:
		return "ConflictCore"
	case WitnessUnknown:
		return "Unknown"
	default:
		return "None"
	}
}

// CycleWitness names a repeated trajectory state, the highest-ranked
// kind of evidence the diagnoser can find.
type CycleWitness struct {
	Period           int
	States           []uint64
	OscillatingCells []uint16
}

// DivergenceWitness names a cell whose value trends monotonically over
// the trajectory window (rung 2).
type DivergenceWitness struct {
	Cell      uint16
	Direction string // "ascending" or "descending"
	Rate      uint64 // mean absolute per-epoch delta over the window
}

// NegativeLoopWitness names a causal cycle with an odd count of
// negating edges: no fixed point exists in its basin (rung 3).
type NegativeLoopWitness struct {
	Cells     []uint16
	EdgeChain []causal.Edge
}

// ConflictCoreWitness names the cells implicated in an SMT UNSAT core
// (rung 4).
type ConflictCoreWitness struct {
	Cells         []uint16
	ProofFragment string
}

// UnknownWitness carries the trailing trajectory for manual inspection
// when no rung produced a witness (rung 5).
type UnknownWitness struct {
	TrajectoryTail []uint64
}

// Witness is a closed variant over the five rungs, following the
// small-struct-with-Kind-field convention used throughout this codebase
// for representing a closed set of alternatives without an interface
// hierarchy. Exactly one of the pointer fields matching Kind is non-nil.
type Witness struct {
	Kind         WitnessKind
	Cycle        *CycleWitness
	Divergence   *DivergenceWitness
	NegativeLoop *NegativeLoopWitness
	ConflictCore *ConflictCoreWitness
	Unknown      *UnknownWitness
}
