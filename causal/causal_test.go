package causal

import (
	"testing"

	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

func memValue(v uint64) value.Value {
	return value.Lit(v)
}

func traceFor(t *testing.T, p *program.Program, anamnesis *memory.Memory) []epoch.TraceEntry {
	t.Helper()
	cfg := epoch.DefaultConfig()
	cfg.CaptureTrace = true
	e := epoch.New(p, anamnesis, nil, cfg)
	rec := e.Execute()
	if rec.Status != epoch.StatusHalted {
		t.Fatalf("expected Halted, got %v", rec.Status)
	}
	return rec.Trace
}

func TestBuildGraphSimpleDependency(t *testing.T) {
	// present[1] = anamnesis[0]
	p := program.New(
		program.Push(0), program.Op(program.ORACLE),
		program.Push(1), program.Op(program.PROPHECY),
	)
	trace := traceFor(t, p, memory.New())
	g := BuildGraph(trace)
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}
	e := g.Edges[0]
	if e.From != 0 || e.To != 1 || e.Negating {
		t.Fatalf("unexpected edge %+v", e)
	}
}

func TestBuildGraphNegatingEdge(t *testing.T) {
	// present[0] = NOT anamnesis[0] -- a grandfather-shaped write.
	p := program.New(
		program.Push(0), program.Op(program.ORACLE), program.Op(program.NOT),
		program.Push(0), program.Op(program.PROPHECY),
	)
	trace := traceFor(t, p, memory.New())
	g := BuildGraph(trace)
	if len(g.Edges) != 1 || !g.Edges[0].Negating {
		t.Fatalf("expected one negating self-edge, got %+v", g.Edges)
	}
}

func TestBuildGraphDoubleNotIsNonNegating(t *testing.T) {
	p := program.New(
		program.Push(0), program.Op(program.ORACLE), program.Op(program.NOT), program.Op(program.NOT),
		program.Push(0), program.Op(program.PROPHECY),
	)
	trace := traceFor(t, p, memory.New())
	g := BuildGraph(trace)
	if len(g.Edges) != 1 || g.Edges[0].Negating {
		t.Fatalf("expected non-negating self-edge after double negation, got %+v", g.Edges)
	}
}

func TestFindNegativeLoopsDetectsGrandfatherSelfLoop(t *testing.T) {
	p := program.New(
		program.Push(0), program.Op(program.ORACLE), program.Op(program.NOT),
		program.Push(0), program.Op(program.PROPHECY),
	)
	trace := traceFor(t, p, memory.New())
	g := BuildGraph(trace)
	sccs := TarjanSCC(g)
	core := TemporalCore(g, sccs)
	if len(core) != 1 {
		t.Fatalf("expected 1 temporal-core component, got %d", len(core))
	}
	loops := FindNegativeLoops(g, core)
	if len(loops) != 1 {
		t.Fatalf("expected 1 negative loop, got %d", len(loops))
	}
}

func TestTarjanFindsMultiNodeCycle(t *testing.T) {
	g := NewGraph()
	g.addEdge(0, 1, false)
	g.addEdge(1, 2, false)
	g.addEdge(2, 0, false)
	g.addEdge(3, 4, false) // unrelated non-cyclic edge

	sccs := TarjanSCC(g)
	var found bool
	for _, s := range sccs {
		if len(s.Nodes) == 3 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a 3-node SCC among %v", sccs)
	}
}

func TestClassifyCellStable(t *testing.T) {
	snapshots := make([]*memory.Memory, 4)
	for i := range snapshots {
		m := memory.New()
		m.Write(0, memValue(7))
		snapshots[i] = m
	}
	if got := ClassifyCell(0, snapshots, true); got != Stable {
		t.Fatalf("expected Stable, got %v", got)
	}
}

func TestClassifyCellUnused(t *testing.T) {
	snapshots := []*memory.Memory{memory.New(), memory.New()}
	if got := ClassifyCell(0, snapshots, false); got != Unused {
		t.Fatalf("expected Unused, got %v", got)
	}
}

func TestClassifyCellOscillating(t *testing.T) {
	seq := []uint64{1, 2, 1, 2, 1, 2}
	snapshots := make([]*memory.Memory, len(seq))
	for i, v := range seq {
		m := memory.New()
		m.Write(0, memValue(v))
		snapshots[i] = m
	}
	if got := ClassifyCell(0, snapshots, true); got != Oscillating {
		t.Fatalf("expected Oscillating, got %v", got)
	}
}

func TestClassifyCellDiverging(t *testing.T) {
	seq := []uint64{1, 2, 3, 4, 5, 6}
	snapshots := make([]*memory.Memory, len(seq))
	for i, v := range seq {
		m := memory.New()
		m.Write(0, memValue(v))
		snapshots[i] = m
	}
	if got := ClassifyCell(0, snapshots, true); got != Diverging {
		t.Fatalf("expected Diverging, got %v", got)
	}
}
