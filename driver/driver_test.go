package driver

import (
	"context"
	"testing"

	"github.com/averagestudentdontfail/Ourochronos/diagnose"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/smtenc"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

func TestRunTrivialConsistency(t *testing.T) {
	prog := program.New(
		program.Push(10), program.Push(20), program.Op(program.ADD), program.Op(program.OUTPUT),
	)
	res := Run(prog, nil, DefaultRunConfig())
	if res.Kind != ResultConsistent {
		t.Fatalf("expected Consistent, got %v (%s)", res.Kind, res.Message)
	}
	if res.Epochs != 1 {
		t.Fatalf("expected 1 epoch, got %d", res.Epochs)
	}
	if len(res.Output) != 1 || res.Output[0] != 30 {
		t.Fatalf("expected output [30], got %v", res.Output)
	}
	if res.FixedPoint == nil || res.FixedPoint.ReadAddr(0).Val != 0 {
		t.Fatalf("expected the all-zero fixed point, got %+v", res.FixedPoint)
	}
}

func TestRunSelfFulfillingProphecy(t *testing.T) {
	prog := program.New(
		program.Push(0), program.Op(program.ORACLE),
		program.Push(0), program.Op(program.PROPHECY),
	)
	res := Run(prog, nil, DefaultRunConfig())
	if res.Kind != ResultConsistent {
		t.Fatalf("expected Consistent, got %v", res.Kind)
	}
	if res.FixedPoint.ReadAddr(0).Val != 0 {
		t.Fatalf("expected fixed point cell 0 = 0 under the default Zero seed, got %v", res.FixedPoint.ReadAddr(0).Val)
	}
}

func TestRunGrandfatherParadoxExhaustsToParadox(t *testing.T) {
	prog := program.New(
		program.Push(0), program.Op(program.ORACLE), program.Op(program.NOT),
		program.Push(0), program.Op(program.PROPHECY),
	)
	cfg := DefaultRunConfig()
	cfg.MaxPerturbations = 3
	cfg.Seed = 42
	res := Run(prog, nil, cfg)
	if res.Kind != ResultParadox {
		t.Fatalf("expected Paradox for a self-negating loop, got %v", res.Kind)
	}
	if res.Diagnosis == nil {
		t.Fatal("expected a diagnosis on give-up")
	}
	if res.Diagnosis.Witness.Kind != diagnose.WitnessNegativeLoop {
		t.Fatalf("expected a NegativeLoop witness, got %v", res.Diagnosis.Witness.Kind)
	}
	if res.Diagnosis.Class != diagnose.ClassI {
		t.Fatalf("expected ClassI, got %v", res.Diagnosis.Class)
	}
}

// primalityProgram reads a candidate factor from anamnesis cell 1 and
// propagates it back unchanged whenever it witnesses 15's compositeness:
// 1 < f < 15 and 15 mod f = 0.
func primalityProgram() *program.Program {
	return program.New(
		program.Push(1), program.Op(program.ORACLE), program.Push(1), program.Op(program.GT),
		program.If([]program.Statement{
			program.Push(1), program.Op(program.ORACLE), program.Push(15), program.Op(program.LT),
			program.If([]program.Statement{
				program.Push(15), program.Push(1), program.Op(program.ORACLE), program.Op(program.MOD), program.Push(0), program.Op(program.EQ),
				program.If([]program.Statement{
					program.Push(1), program.Op(program.ORACLE), program.Push(1), program.Op(program.PROPHECY),
				}),
			}),
		}),
	)
}

func TestRunPrimalityWitnessAtThreeAndFive(t *testing.T) {
	prog := primalityProgram()
	for _, f := range []uint64{3, 5} {
		seed := memory.New()
		seed.WriteAddr(1, value.Lit(f))
		cfg := DefaultRunConfig()
		cfg.Initial = AnamnesisGuided
		cfg.GuidedAnamnesis = seed
		res := Run(prog, nil, cfg)
		if res.Kind != ResultConsistent {
			t.Fatalf("f=%d: expected Consistent, got %v", f, res.Kind)
		}
		if res.FixedPoint.ReadAddr(1).Val != f {
			t.Fatalf("f=%d: expected fixed point cell 1 = %d, got %d", f, f, res.FixedPoint.ReadAddr(1).Val)
		}
	}
}

func TestRunPrimalityRejectsNonFactor(t *testing.T) {
	seed := memory.New()
	seed.WriteAddr(1, value.Lit(4))
	cfg := DefaultRunConfig()
	cfg.Initial = AnamnesisGuided
	cfg.GuidedAnamnesis = seed
	res := Run(primalityProgram(), nil, cfg)
	if res.Kind == ResultConsistent && res.FixedPoint.ReadAddr(1).Val == 4 {
		t.Fatal("4 does not witness 15's compositeness and must not be reported as a fixed point")
	}
}

// fakeUnsatSolver stubs smtenc.Solver to always report the given cells
// as an unsat core, without shelling out to a real binary.
type fakeUnsatSolver struct {
	cells []uint16
}

func (f fakeUnsatSolver) Solve(ctx context.Context, script *smtenc.Script) (*smtenc.Result, error) {
	return &smtenc.Result{Verdict: smtenc.Unsat, ConflictCells: f.cells, Raw: "unsat (stub core)"}, nil
}

func TestRunParadoxWiresConflictCoreSolver(t *testing.T) {
	prog := program.New(program.Op(program.PARADOX))
	cfg := DefaultRunConfig()
	cfg.MaxPerturbations = 1
	cfg.Solver = fakeUnsatSolver{cells: []uint16{9}}
	res := Run(prog, nil, cfg)
	if res.Kind != ResultParadox {
		t.Fatalf("expected Paradox, got %v", res.Kind)
	}
	if res.Diagnosis == nil || res.Diagnosis.Witness.Kind != diagnose.WitnessConflictCore {
		t.Fatalf("expected a ConflictCore witness from the wired solver, got %+v", res.Diagnosis)
	}
	if len(res.Diagnosis.Witness.ConflictCore.Cells) != 1 || res.Diagnosis.Witness.ConflictCore.Cells[0] != 9 {
		t.Fatalf("expected conflict cell 9, got %+v", res.Diagnosis.Witness.ConflictCore.Cells)
	}
}

func TestRunDivergenceTimesOutWithDivergentKind(t *testing.T) {
	prog := program.New(
		program.Push(0), program.Op(program.ORACLE),
		program.Push(1), program.Op(program.ADD),
		program.Push(0), program.Op(program.PROPHECY),
	)
	cfg := DefaultRunConfig()
	cfg.MaxEpochs = 20
	res := Run(prog, nil, cfg)
	if res.Kind != ResultDivergent && res.Kind != ResultTimeout {
		t.Fatalf("expected Divergent or Timeout, got %v", res.Kind)
	}
	if res.Kind == ResultDivergent {
		if res.Pattern == nil || res.Pattern.Cell != 0 || res.Pattern.Direction != "ascending" {
			t.Fatalf("unexpected divergence pattern %+v", res.Pattern)
		}
	}
}

func TestRunDiagnosticFindsTrivialFixedPoint(t *testing.T) {
	prog := program.New(
		program.Push(10), program.Push(20), program.Op(program.ADD), program.Op(program.OUTPUT),
	)
	cfg := DefaultRunConfig()
	cfg.Mode = ModeDiagnostic
	cfg.Workers = 4
	cfg.Seed = 7
	res := Run(prog, nil, cfg)
	if res.Kind != ResultConsistent && res.Kind != ResultMultipleConsistent {
		t.Fatalf("expected a consistent result from the diagnostic sweep, got %v (%s)", res.Kind, res.Message)
	}
}

func TestResultKindExitCodes(t *testing.T) {
	cases := map[ResultKind]int{
		ResultConsistent:         0,
		ResultMultipleConsistent: 0,
		ResultParadox:            1,
		ResultCyclic:             2,
		ResultDivergent:          2,
		ResultTimeout:            2,
		ResultError:              3,
	}
	for kind, want := range cases {
		if got := kind.ExitCode(); got != want {
			t.Fatalf("%v.ExitCode() = %d, want %d", kind, got, want)
		}
	}
}
