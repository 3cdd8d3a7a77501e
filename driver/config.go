// Package driver implements the outer fixed-point loop: it drives the
// epoch interpreter across repeated epochs to convergence, cycle,
// divergence, paradox, or timeout, in one of three modes, and fans a
// Diagnostic-mode multi-seed search across a worker pool.
package driver

import (
	"context"

	"github.com/averagestudentdontfail/Ourochronos/causal"
	"github.com/averagestudentdontfail/Ourochronos/diagnose"
	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/smtenc"
	"github.com/averagestudentdontfail/Ourochronos/trajectory"
)

// Mode selects one of the three driver strategies.
type Mode uint8

const (
	ModePure Mode = iota
	ModeBounded
	ModeDiagnostic
)

func (m Mode) String() string {
	switch m {
	case ModePure:
		return "Pure"
	case ModeBounded:
		return "Bounded"
	case ModeDiagnostic:
		return "Diagnostic"
	}
	return "Unknown"
}

// AnamnesisSeed selects how a run's initial anamnesis is constructed.
type AnamnesisSeed uint8

const (
	AnamnesisZero AnamnesisSeed = iota
	AnamnesisRandom
	AnamnesisSeeded
	AnamnesisGuided
)

// RunConfig is the driver's runtime interface config: it parameterizes
// a single `execute(program, input, config) -> RunResult` call.
type RunConfig struct {
	Mode Mode

	MaxEpochs        int
	MaxEpochSteps    int
	MaxPerturbations int

	Seed uint64

	Initial          AnamnesisSeed
	InitialSeedValue uint64
	GuidedAnamnesis  *memory.Memory

	CaptureTrace bool
	Workers      int

	// Solver, when non-nil, makes the conflict-core rung of the witness
	// hierarchy reachable: giveUp encodes the program once with smtenc
	// and asks Solver for a verdict before falling through to Unknown.
	// A nil Solver (the default) skips this entirely, matching
	// NullSolver's own "never depends on a binary being installed"
	// stance without needing a driver caller to wire a no-op explicitly.
	Solver      smtenc.Solver
	UnrollBound int
}

// DefaultRunConfig returns Bounded mode with the epoch package's own
// default step budget, a generous epoch and perturbation ceiling, and
// a single worker.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Mode:             ModeBounded,
		MaxEpochs:        10_000,
		MaxEpochSteps:    epoch.DefaultStepBudget,
		MaxPerturbations: 1_000,
		Initial:          AnamnesisZero,
		Workers:          1,
	}
}

// ResultKind discriminates the RunResult variants.
type ResultKind uint8

const (
	ResultConsistent ResultKind = iota
	ResultMultipleConsistent
	ResultCyclic
	ResultDivergent
	ResultParadox
	ResultTimeout
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultConsistent:
		return "Consistent"
	case ResultMultipleConsistent:
		return "MultipleConsistent"
	case ResultCyclic:
		return "Cyclic"
	case ResultDivergent:
		return "Divergent"
	case ResultParadox:
		return "Paradox"
	case ResultTimeout:
		return "Timeout"
	case ResultError:
		return "Error"
	}
	return "Unknown"
}

// ExitCode maps k to the host CLI's process exit codes.
func (k ResultKind) ExitCode() int {
	switch k {
	case ResultConsistent, ResultMultipleConsistent:
		return 0
	case ResultParadox:
		return 1
	case ResultCyclic, ResultDivergent, ResultTimeout:
		return 2
	default:
		return 3
	}
}

// RunResult is a tagged union; only the fields relevant to Kind are
// populated, following the same Kind-plus-pointer-fields convention
// diagnose.Witness uses.
type RunResult struct {
	Kind ResultKind

	Output     []uint64
	FixedPoint *memory.Memory
	Epochs     int

	Outputs     [][]uint64
	FixedPoints []*memory.Memory

	Cycle []*epoch.EpochRecord

	Pattern *diagnose.DivergenceWitness

	Diagnosis *diagnose.Diagnosis
	Repairs   []diagnose.Repair

	PartialTrajectory *trajectory.Trajectory

	ErrKind epoch.ErrorKind
	Message string
}

// diagnoseTrajectory runs the paradox diagnoser over t, building a
// causal graph from the last recorded epoch's trace when one was
// captured. cycleStart is -1 when the caller has no repeated-hash
// evidence to hand it. When cfg carries a Solver, prog is additionally
// encoded and queried so an Unsat verdict can populate the
// conflict-core rung ahead of falling through to Unknown.
func diagnoseTrajectory(prog *program.Program, cfg RunConfig, t *trajectory.Trajectory, cycleStart int) *diagnose.Diagnosis {
	var g *causal.Graph
	if last := t.Last(); last != nil && len(last.Trace) > 0 {
		g = causal.BuildGraph(last.Trace)
	}
	in := diagnose.Input{Trajectory: t, CycleStart: cycleStart, Graph: g}
	if cfg.Solver != nil {
		if cells, proof, ok := runConflictSolver(prog, cfg); ok {
			in.ConflictCells = cells
			in.ProofFragment = proof
		}
	}
	return diagnose.Diagnose(in)
}

// runConflictSolver encodes prog and asks cfg.Solver for a verdict,
// reporting the conflict cells from an Unsat core. It returns ok=false
// on any encoding error, solver error, or non-Unsat verdict, leaving
// diagnoseTrajectory's Input untouched so the witness hierarchy falls
// through to whatever rung comes next.
func runConflictSolver(prog *program.Program, cfg RunConfig) (cells []uint16, proof string, ok bool) {
	script, err := smtenc.Encode(prog, cfg.UnrollBound)
	if err != nil {
		return nil, "", false
	}
	res, err := cfg.Solver.Solve(context.Background(), script)
	if err != nil || res.Verdict != smtenc.Unsat {
		return nil, "", false
	}
	return res.ConflictCells, res.Raw, true
}
