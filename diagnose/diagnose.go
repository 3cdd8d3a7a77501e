package diagnose

import (
	"github.com/averagestudentdontfail/Ourochronos/causal"
	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/trajectory"
)

// Input bundles every piece of evidence a driver run can hand the
// diagnoser. Not every field is populated on every call: CycleStart is
// -1 when trajectory.Append never reported a repeat (0 is a legitimate
// trajectory index, so callers must set this explicitly rather than
// relying on the int zero value); Graph is nil when no trace was
// captured; ConflictCells is nil when the SMT encoder was never
// consulted or returned Sat.
type Input struct {
	Trajectory    *trajectory.Trajectory
	CycleStart    int
	Graph         *causal.Graph
	ConflictCells []uint16
	ProofFragment string
}

// Diagnosis is the typed, renderable result of applying the witness
// hierarchy to one Input.
type Diagnosis struct {
	Witness Witness
	Class   Class
	Repairs []Repair
}

// Diagnose walks the witness hierarchy in a fixed rank order: a
// repeated trajectory state outranks a divergence trend, which
// outranks a static negative loop, which outranks an SMT conflict core,
// which outranks giving up with Unknown. A repeated state that is
// itself the grandfather paradox's negation shape is reported as a
// negative loop rather than a plain cycle, since that shape already
// names its own witness without a causal graph.
func Diagnose(in Input) *Diagnosis {
	var w Witness

	switch {
	case in.CycleStart >= 0 && in.Trajectory != nil:
		if nl, ok := grandfatherOscillation(in.Trajectory, in.CycleStart); ok {
			w = Witness{Kind: WitnessNegativeLoop, NegativeLoop: nl}
		} else {
			w = cycleWitness(in.Trajectory, in.CycleStart)
		}

	case in.Trajectory != nil && hasDivergenceWitness(in, &w):
		// w already populated by hasDivergenceWitness.

	case in.Graph != nil && hasNegativeLoopWitness(in, &w):
		// w already populated by hasNegativeLoopWitness.

	case len(in.ConflictCells) > 0:
		w = Witness{Kind: WitnessConflictCore, ConflictCore: &ConflictCoreWitness{
			Cells:         in.ConflictCells,
			ProofFragment: in.ProofFragment,
		}}

	default:
		w = Witness{Kind: WitnessUnknown, Unknown: &UnknownWitness{TrajectoryTail: tailHashes(in.Trajectory)}}
	}

	class := classify(w)
	return &Diagnosis{Witness: w, Class: class, Repairs: suggestRepairs(w, class)}
}

func hasDivergenceWitness(in Input, w *Witness) bool {
	dw, ok := findDivergence(in.Trajectory.Records)
	if !ok {
		return false
	}
	*w = Witness{Kind: WitnessDivergence, Divergence: dw}
	return true
}

func hasNegativeLoopWitness(in Input, w *Witness) bool {
	loops := negativeLoops(in.Graph)
	if len(loops) == 0 {
		return false
	}
	*w = Witness{Kind: WitnessNegativeLoop, NegativeLoop: &NegativeLoopWitness{Cells: loops[0].Cells, EdgeChain: loops[0].Edges}}
	return true
}

func negativeLoops(g *causal.Graph) []causal.NegativeLoop {
	sccs := causal.TarjanSCC(g)
	core := causal.TemporalCore(g, sccs)
	return causal.FindNegativeLoops(g, core)
}

// grandfatherOscillation recognizes the canonical negation loop directly
// from the repeated trajectory states, ahead of the generic cycle
// witness: a period-2 cycle confined to a single memory cell whose
// second value is the bitwise complement of its first. That shape is
// the grandfather paradox's signature (an epoch's present feeds next
// epoch's anamnesis through a NOT), and it names a negative loop on its
// own without walking a causal graph.
func grandfatherOscillation(t *trajectory.Trajectory, start int) (*NegativeLoopWitness, bool) {
	segment := t.Cycle(start)
	// Only the first period is examined: records the driver appends after
	// perturbing a repeated state need not keep alternating.
	if len(segment) < 3 || trajectory.Hash(segment[2].FinalPresent) != trajectory.Hash(segment[0].FinalPresent) {
		return nil, false
	}
	segment = segment[:3]
	cells := oscillatingCells(segment)
	if len(cells) != 1 {
		return nil, false
	}
	cell := cells[0]
	first := segment[0].FinalPresent.ReadAddr(cell).Val
	second := segment[1].FinalPresent.ReadAddr(cell).Val
	if second != ^first {
		return nil, false
	}
	for i, rec := range segment {
		want := first
		if i%2 == 1 {
			want = second
		}
		if rec.FinalPresent.ReadAddr(cell).Val != want {
			return nil, false
		}
	}
	return &NegativeLoopWitness{Cells: []uint16{cell}}, true
}

// cycleWitness builds a CycleWitness from the trajectory segment
// starting at start, the repeating window trajectory.Append identified.
func cycleWitness(t *trajectory.Trajectory, start int) Witness {
	segment := t.Cycle(start)
	period := 0
	if n := len(segment); n > 0 {
		period = n - 1
	}
	states := make([]uint64, len(segment))
	for i, rec := range segment {
		states[i] = trajectory.Hash(rec.FinalPresent)
	}
	return Witness{Kind: WitnessCycle, Cycle: &CycleWitness{
		Period:           period,
		States:           states,
		OscillatingCells: oscillatingCells(segment),
	}}
}

func oscillatingCells(segment []*epoch.EpochRecord) []uint16 {
	if len(segment) < 2 {
		return nil
	}
	var cells []uint16
	for addr := 0; addr < memory.Size; addr++ {
		a := uint16(addr)
		first := segment[0].FinalPresent.ReadAddr(a).Val
		for _, rec := range segment[1:] {
			if rec.FinalPresent.ReadAddr(a).Val != first {
				cells = append(cells, a)
				break
			}
		}
	}
	return cells
}

// findDivergence scans every cell for a strictly monotonic trend over
// the trailing causal.DivergeWindow epochs, mirroring
// causal.ClassifyCell's own window but reporting direction and rate
// rather than a bare classification.
func findDivergence(records []*epoch.EpochRecord) (*DivergenceWitness, bool) {
	if len(records) < causal.DivergeWindow {
		return nil, false
	}
	for addr := 0; addr < memory.Size; addr++ {
		a := uint16(addr)
		vals := make([]uint64, len(records))
		for i, rec := range records {
			vals[i] = rec.FinalPresent.ReadAddr(a).Val
		}
		if dir, rate, ok := monotonicTrend(vals); ok {
			return &DivergenceWitness{Cell: a, Direction: dir, Rate: rate}, true
		}
	}
	return nil, false
}

func monotonicTrend(vals []uint64) (direction string, rate uint64, ok bool) {
	n := len(vals)
	if n < causal.DivergeWindow {
		return "", 0, false
	}
	window := vals[n-causal.DivergeWindow:]
	increasing, decreasing := true, true
	var totalDelta uint64
	for i := 1; i < len(window); i++ {
		if window[i] <= window[i-1] {
			increasing = false
		} else {
			totalDelta += window[i] - window[i-1]
		}
		if window[i] >= window[i-1] {
			decreasing = false
		} else {
			totalDelta += window[i-1] - window[i]
		}
	}
	steps := uint64(len(window) - 1)
	switch {
	case increasing:
		return "ascending", totalDelta / steps, true
	case decreasing:
		return "descending", totalDelta / steps, true
	default:
		return "", 0, false
	}
}

func tailHashes(t *trajectory.Trajectory) []uint64 {
	if t == nil {
		return nil
	}
	n := t.Len()
	start := 0
	if n > causal.DivergeWindow {
		start = n - causal.DivergeWindow
	}
	tail := make([]uint64, 0, n-start)
	for _, rec := range t.Records[start:] {
		tail = append(tail, trajectory.Hash(rec.FinalPresent))
	}
	return tail
}
