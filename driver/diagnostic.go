package driver

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/averagestudentdontfail/Ourochronos/causal"
	"github.com/averagestudentdontfail/Ourochronos/diagnose"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/syncs"
	"github.com/averagestudentdontfail/Ourochronos/trajectory"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

// diagnosticSingleCellSamples bounds how many of the 65536 possible
// single-cell-perturbed-from-zero seeds are actually explored; running
// all of them is not the point of a sampling sweep, so seeds are spread
// evenly across the address space instead of exhaustively enumerated.
const diagnosticSingleCellSamples = 64

// diagnosticRandomSeeds is the count of fully-random seeds added to the
// structured set, drawn from a PCG keyed on RunConfig.Seed so the
// exploration order is reproducible run to run.
const diagnosticRandomSeeds = 16

// generateSeeds builds Diagnostic mode's fixed seed set: the zero
// memory, a spread of single-cell variants, two structured patterns
// (all-ones, alternating), and a batch of PCG-derived random seeds.
func generateSeeds(cfg RunConfig) []*memory.Memory {
	seeds := make([]*memory.Memory, 0, diagnosticSingleCellSamples+diagnosticRandomSeeds+3)
	seeds = append(seeds, memory.New())

	step := memory.Size / diagnosticSingleCellSamples
	if step == 0 {
		step = 1
	}
	for a := 0; a < memory.Size; a += step {
		m := memory.New()
		m.WriteAddr(uint16(a), value.Lit(1))
		seeds = append(seeds, m)
	}

	allOnes := memory.New()
	alternating := memory.New()
	for a := 0; a < memory.Size; a++ {
		allOnes.WriteAddr(uint16(a), value.Lit(^uint64(0)))
		if a%2 == 0 {
			alternating.WriteAddr(uint16(a), value.Lit(^uint64(0)))
		}
	}
	seeds = append(seeds, allOnes, alternating)

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	for i := 0; i < diagnosticRandomSeeds; i++ {
		m := memory.New()
		for a := 0; a < memory.Size; a++ {
			m.WriteAddr(uint16(a), value.Lit(rng.Uint64()))
		}
		seeds = append(seeds, m)
	}
	return seeds
}

// seedOutcome is one worker's report against generateSeeds, aggregated
// by RunDiagnostic once every worker has returned.
type seedOutcome struct {
	seedIndex int
	result    *RunResult
	abandoned bool // deduplicated against another worker's seen hash, or canceled after a Consistent elsewhere
	graph     *causal.Graph
}

// RunDiagnostic explores every seed in generateSeeds(cfg) across
// cfg.Workers goroutines, sharing only a seen-hash set used to prune
// redundant trajectories and a cancellation flag flipped on the first
// Consistent result; the only shared mutable state across workers is
// that hash set and the flag itself. Cancellation is cooperative:
// epochStep checks the flag between epochs, never mid-epoch.
func RunDiagnostic(prog *program.Program, input []uint64, cfg RunConfig) *RunResult {
	seeds := generateSeeds(cfg)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	sem := syncs.NewSemaphore(workers)
	seen := &sync.Map{}
	var canceled atomic.Bool
	outcomes := make([]seedOutcome, len(seeds))

	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		sem.Acquire()
		go func(i int, seed *memory.Memory) {
			defer wg.Done()
			defer sem.Release()
			outcomes[i] = runDiagnosticSeed(prog, input, cfg, seed, i, seen, &canceled)
		}(i, seed)
	}
	wg.Wait()

	return aggregateDiagnostic(outcomes)
}

func runDiagnosticSeed(prog *program.Program, input []uint64, cfg RunConfig, seed *memory.Memory, index int, seen *sync.Map, canceled *atomic.Bool) seedOutcome {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(index)+1))
	traj := trajectory.New()
	st := &runState{
		prog:      prog,
		input:     input,
		cfg:       cfg,
		perturber: UniformPerturber{},
		rng:       rng,
		anamnesis: seed,
		traj:      traj,
		cancel:    canceled,
		seen:      seen,
	}
	res := drive(st)
	if res == nil {
		return seedOutcome{seedIndex: index, abandoned: true}
	}
	if res.Kind == resultAbandoned {
		return seedOutcome{seedIndex: index, abandoned: true}
	}
	if res.Kind == ResultConsistent {
		canceled.Store(true)
	}
	var g *causal.Graph
	if last := traj.Last(); last != nil && len(last.Trace) > 0 {
		g = causal.BuildGraph(last.Trace)
	}
	return seedOutcome{seedIndex: index, result: res, graph: g}
}

func aggregateDiagnostic(outcomes []seedOutcome) *RunResult {
	var outputs [][]uint64
	var fixedPoints []*memory.Memory
	var diagnoses []*diagnose.Diagnosis

	for _, o := range outcomes {
		if o.abandoned || o.result == nil {
			continue
		}
		switch o.result.Kind {
		case ResultConsistent:
			outputs = append(outputs, o.result.Output)
			fixedPoints = append(fixedPoints, o.result.FixedPoint)
		default:
			if o.result.Diagnosis != nil {
				diagnoses = append(diagnoses, o.result.Diagnosis)
			}
		}
	}

	if len(fixedPoints) == 0 {
		if len(diagnoses) == 0 {
			return &RunResult{Kind: ResultError, Message: "diagnostic sweep found no consistent seed and no diagnosable evidence"}
		}
		return &RunResult{Kind: ResultParadox, Diagnosis: diagnoses[0], Repairs: diagnoses[0].Repairs}
	}
	if len(fixedPoints) == 1 {
		return &RunResult{Kind: ResultConsistent, Output: outputs[0], FixedPoint: fixedPoints[0], Epochs: 1}
	}
	return &RunResult{Kind: ResultMultipleConsistent, Outputs: outputs, FixedPoints: fixedPoints}
}
