package bytecode

import (
	"testing"

	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
)

// runOutputs executes p and returns its output sequence, for comparing
// a program tree against its compile/decompile round trip.
func runOutputs(t *testing.T, p *program.Program) []uint64 {
	t.Helper()
	e := epoch.New(p, memory.New(), nil, epoch.DefaultConfig())
	rec := e.Execute()
	if rec.Status != epoch.StatusHalted {
		t.Fatalf("expected Halted, got %v", rec.Status)
	}
	return rec.Output
}

func roundTrip(t *testing.T, p *program.Program) *program.Program {
	t.Helper()
	code, err := Compile(p)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	decoded, err := Decompile(code)
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}
	return decoded
}

func TestRoundTripArithmetic(t *testing.T) {
	p := program.New(
		program.Push(10), program.Push(20), program.Op(program.ADD), program.Op(program.OUTPUT),
	)
	decoded := roundTrip(t, p)
	got := runOutputs(t, decoded)
	if len(got) != 1 || got[0] != 30 {
		t.Fatalf("expected [30], got %v", got)
	}
}

func TestRoundTripIfElse(t *testing.T) {
	p := program.New(
		program.Push(0),
		program.If(
			[]program.Statement{program.Push(1), program.Op(program.OUTPUT)},
			[]program.Statement{program.Push(2), program.Op(program.OUTPUT)},
		),
	)
	decoded := roundTrip(t, p)
	got := runOutputs(t, decoded)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected else-branch output [2], got %v", got)
	}
}

func TestRoundTripIfNoElse(t *testing.T) {
	p := program.New(
		program.Push(1),
		program.If([]program.Statement{program.Push(99), program.Op(program.OUTPUT)}),
		program.Push(7), program.Op(program.OUTPUT),
	)
	decoded := roundTrip(t, p)
	got := runOutputs(t, decoded)
	if len(got) != 2 || got[0] != 99 || got[1] != 7 {
		t.Fatalf("expected [99 7], got %v", got)
	}
}

func TestRoundTripWhile(t *testing.T) {
	// present[0] counts from anamnesis-independent zero up to 5, then output it.
	p := program.New(
		program.Push(0), program.Push(0), program.Op(program.PROPHECY), // present[0] = 0
		program.While(
			[]program.Statement{
				program.Push(0), program.Op(program.PRESENT),
				program.Push(5), program.Op(program.LT),
			},
			[]program.Statement{
				program.Push(0), program.Op(program.PRESENT),
				program.Push(1), program.Op(program.ADD),
				program.Push(0), program.Op(program.PROPHECY),
			},
		),
		program.Push(0), program.Op(program.PRESENT), program.Op(program.OUTPUT),
	)
	decoded := roundTrip(t, p)
	got := runOutputs(t, decoded)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("expected [5], got %v", got)
	}
}

func TestRoundTripComparisonSugar(t *testing.T) {
	p := program.New(
		program.Push(3), program.Push(3), program.Op(program.NEQ), program.Op(program.OUTPUT),
		program.Push(5), program.Push(2), program.Op(program.LTE), program.Op(program.OUTPUT),
		program.Push(1), program.Push(2), program.Op(program.GTE), program.Op(program.OUTPUT),
	)
	decoded := roundTrip(t, p)
	got := runOutputs(t, decoded)
	if len(got) != 3 || got[0] != 0 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("expected [0 0 0], got %v", got)
	}
}

func TestDecompileRejectsUnclosedBranch(t *testing.T) {
	// A lone JZ with no matching close offset.
	code := []byte{byte(OpJZ), 0, 0, 0, 0xFF}
	if _, err := Decompile(code); err == nil {
		t.Fatalf("expected error for unresolved branch")
	}
}
