package diagnose

import (
	"testing"

	"github.com/averagestudentdontfail/Ourochronos/causal"
	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/trajectory"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

func mkRecord(cellVals map[uint16]uint64) *epoch.EpochRecord {
	m := memory.New()
	for addr, v := range cellVals {
		m.WriteAddr(addr, value.Lit(v))
	}
	return &epoch.EpochRecord{Status: epoch.StatusHalted, FinalPresent: m}
}

func TestDiagnoseCycleOutranksEverything(t *testing.T) {
	traj := trajectory.New()
	traj.Records = []*epoch.EpochRecord{
		mkRecord(map[uint16]uint64{0: 1}),
		mkRecord(map[uint16]uint64{0: 2}),
		mkRecord(map[uint16]uint64{0: 1}),
	}
	d := Diagnose(Input{Trajectory: traj, CycleStart: 0})
	if d.Witness.Kind != WitnessCycle {
		t.Fatalf("expected Cycle witness, got %v", d.Witness.Kind)
	}
	if d.Witness.Cycle.Period != 2 {
		t.Fatalf("expected period 2, got %d", d.Witness.Cycle.Period)
	}
	found := false
	for _, c := range d.Witness.Cycle.OscillatingCells {
		if c == 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cell 0 among oscillating cells, got %v", d.Witness.Cycle.OscillatingCells)
	}
}

func TestDiagnoseGrandfatherOscillationOutranksCycle(t *testing.T) {
	traj := trajectory.New()
	traj.Records = []*epoch.EpochRecord{
		mkRecord(map[uint16]uint64{0: 7}),
		mkRecord(map[uint16]uint64{0: ^uint64(7)}),
		mkRecord(map[uint16]uint64{0: 7}),
	}
	d := Diagnose(Input{Trajectory: traj, CycleStart: 0})
	if d.Witness.Kind != WitnessNegativeLoop {
		t.Fatalf("expected NegativeLoop witness for a self-negating oscillation, got %v", d.Witness.Kind)
	}
	if len(d.Witness.NegativeLoop.Cells) != 1 || d.Witness.NegativeLoop.Cells[0] != 0 {
		t.Fatalf("expected the negative loop to name cell 0, got %+v", d.Witness.NegativeLoop.Cells)
	}
	if d.Class != ClassI {
		t.Fatalf("expected ClassI, got %v", d.Class)
	}
	if len(d.Repairs) != 1 || d.Repairs[0].Cell != 0 {
		t.Fatalf("expected one repair on cell 0, got %+v", d.Repairs)
	}
}

func TestDiagnoseDivergenceClassifiedTypeII(t *testing.T) {
	traj := trajectory.New()
	for i := uint64(0); i < 6; i++ {
		traj.Records = append(traj.Records, mkRecord(map[uint16]uint64{5: i}))
	}
	d := Diagnose(Input{Trajectory: traj, CycleStart: -1})
	if d.Witness.Kind != WitnessDivergence {
		t.Fatalf("expected Divergence witness, got %v", d.Witness.Kind)
	}
	if d.Witness.Divergence.Cell != 5 || d.Witness.Divergence.Direction != "ascending" {
		t.Fatalf("unexpected divergence witness %+v", d.Witness.Divergence)
	}
	if d.Class != ClassII {
		t.Fatalf("expected ClassII, got %v", d.Class)
	}
}

func TestDiagnoseNegativeLoopClassifiedTypeI(t *testing.T) {
	prog := program.New(
		program.Push(0), program.Op(program.ORACLE), program.Op(program.NOT),
		program.Push(0), program.Op(program.PROPHECY),
	)
	cfg := epoch.DefaultConfig()
	cfg.CaptureTrace = true
	e := epoch.New(prog, memory.New(), nil, cfg)
	rec := e.Execute()
	g := causal.BuildGraph(rec.Trace)

	d := Diagnose(Input{CycleStart: -1, Graph: g})
	if d.Witness.Kind != WitnessNegativeLoop {
		t.Fatalf("expected NegativeLoop witness, got %v", d.Witness.Kind)
	}
	if d.Class != ClassI {
		t.Fatalf("expected ClassI, got %v", d.Class)
	}
	if len(d.Repairs) != 1 || d.Repairs[0].Cell != 0 {
		t.Fatalf("expected one repair on cell 0, got %+v", d.Repairs)
	}
}

func TestDiagnoseConflictCoreFallback(t *testing.T) {
	d := Diagnose(Input{CycleStart: -1, ConflictCells: []uint16{7}, ProofFragment: "core"})
	if d.Witness.Kind != WitnessConflictCore {
		t.Fatalf("expected ConflictCore witness, got %v", d.Witness.Kind)
	}
	if d.Class != ClassIV {
		t.Fatalf("expected ClassIV for a single conflict cell, got %v", d.Class)
	}

	d2 := Diagnose(Input{CycleStart: -1, ConflictCells: []uint16{7, 8}})
	if d2.Class != ClassV {
		t.Fatalf("expected ClassV for a multi-cell conflict core, got %v", d2.Class)
	}
}

func TestDiagnoseUnknownWhenNoEvidence(t *testing.T) {
	d := Diagnose(Input{CycleStart: -1})
	if d.Witness.Kind != WitnessUnknown {
		t.Fatalf("expected Unknown witness, got %v", d.Witness.Kind)
	}
	if d.Class != ClassUnknown {
		t.Fatalf("expected ClassUnknown, got %v", d.Class)
	}
}
