package driver

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/averagestudentdontfail/Ourochronos/diagnose"
	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/procs"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/trajectory"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

// resultAbandoned marks a Diagnostic-mode worker's trajectory as
// dropped rather than concluded: canceled after another worker already
// reported Consistent, or pruned because its present-memory hash was
// already claimed by another worker's trajectory. It never escapes the
// driver package; RunDiagnostic filters it out of the aggregate.
const resultAbandoned ResultKind = 255

// runState is the mutable context one drive() call threads through the
// epochStep trampoline: the procs.Proc[C] "ctx" for this driver.
// cancel and seen are non-nil only for a Diagnostic-mode worker; a
// single-trajectory Pure/Bounded run leaves both nil.
type runState struct {
	prog      *program.Program
	input     []uint64
	cfg       RunConfig
	perturber Perturber
	rng       *rand.Rand

	anamnesis     *memory.Memory
	traj          *trajectory.Trajectory
	perturbations int

	cancel *atomic.Bool
	seen   *sync.Map

	result *RunResult
}

func buildInitialAnamnesis(cfg RunConfig, rng *rand.Rand) *memory.Memory {
	switch cfg.Initial {
	case AnamnesisZero:
		return memory.New()
	case AnamnesisRandom:
		m := memory.New()
		for a := 0; a < memory.Size; a++ {
			m.WriteAddr(uint16(a), value.Lit(rng.Uint64()))
		}
		return m
	case AnamnesisSeeded:
		seeded := rand.New(rand.NewPCG(cfg.InitialSeedValue, cfg.InitialSeedValue))
		m := memory.New()
		for a := 0; a < memory.Size; a++ {
			m.WriteAddr(uint16(a), value.Lit(seeded.Uint64()))
		}
		return m
	case AnamnesisGuided:
		if cfg.GuidedAnamnesis != nil {
			return cfg.GuidedAnamnesis.Snapshot()
		}
		return memory.New()
	}
	return memory.New()
}

// Run executes prog under cfg and returns its RunResult. Diagnostic
// mode is handled separately by RunDiagnostic; Pure and Bounded share
// the same single-trajectory drive loop and differ only in perturbation
// budget and give-up behavior, both read off cfg.Mode inside epochStep.
func Run(prog *program.Program, input []uint64, cfg RunConfig) *RunResult {
	if cfg.Mode == ModeDiagnostic {
		return RunDiagnostic(prog, input, cfg)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	st := &runState{
		prog:      prog,
		input:     input,
		cfg:       cfg,
		perturber: UniformPerturber{},
		rng:       rng,
		anamnesis: buildInitialAnamnesis(cfg, rng),
		traj:      trajectory.New(),
	}
	return drive(st)
}

func drive(st *runState) *RunResult {
	var p procs.Proc[*runState] = epochStep{}
	for p != nil {
		next, err := p.Run(st)
		if err != nil {
			return &RunResult{Kind: ResultError, Message: err.Error()}
		}
		p = next
	}
	return st.result
}

// epochStep runs exactly one epoch against the current anamnesis and
// decides the next Proc: itself again to continue the trajectory, or
// nil once st.result is set.
type epochStep struct{}

var _ procs.Proc[*runState] = epochStep{}

func (epochStep) Run(st *runState) (procs.Proc[*runState], error) {
	if st.cancel != nil && st.cancel.Load() {
		st.result = &RunResult{Kind: resultAbandoned}
		return nil, nil
	}
	if st.cfg.MaxEpochs > 0 && st.traj.Len() >= st.cfg.MaxEpochs {
		return st.giveUpOnTimeout()
	}

	ecfg := epoch.DefaultConfig()
	if st.cfg.MaxEpochSteps > 0 {
		ecfg.StepBudget = st.cfg.MaxEpochSteps
	}
	ecfg.CaptureTrace = st.cfg.CaptureTrace

	e := epoch.New(st.prog, st.anamnesis, st.input, ecfg)
	rec := e.Execute()
	cycleStart := st.traj.Append(rec)

	// Cross-worker pruning only applies to a state genuinely new to this
	// trajectory: a hash this trajectory has already visited is this
	// worker's own cycle, which its local cycleStart handling below must
	// still get to diagnose, not a duplicate of another worker's work.
	if st.seen != nil && cycleStart < 0 {
		h := trajectory.Hash(rec.FinalPresent)
		if _, dup := st.seen.LoadOrStore(h, struct{}{}); dup {
			st.result = &RunResult{Kind: resultAbandoned}
			return nil, nil
		}
	}

	switch rec.Status {
	case epoch.StatusHalted:
		if rec.FinalPresent.EqualValues(st.anamnesis) {
			st.result = &RunResult{
				Kind:       ResultConsistent,
				Output:     rec.Output,
				FixedPoint: rec.FinalPresent,
				Epochs:     st.traj.Len(),
			}
			return nil, nil
		}
		if cycleStart >= 0 {
			return st.tryPerturb(ResultCyclic, cycleStart)
		}
		st.anamnesis = rec.FinalPresent
		return epochStep{}, nil

	case epoch.StatusParadox:
		return st.tryPerturb(ResultParadox, -1)

	case epoch.StatusTimeout:
		st.result = &RunResult{Kind: ResultTimeout, PartialTrajectory: st.traj}
		return nil, nil

	case epoch.StatusError:
		st.result = &RunResult{Kind: ResultError, ErrKind: rec.ErrKind, Message: rec.ErrKind.String()}
		return nil, nil
	}
	return nil, nil
}

// perturbBudgetLeft reports whether another perturbation is allowed.
// Pure mode never surrenders; its termination is not guaranteed, by
// design. Bounded mode stops at MaxPerturbations, a non-positive value
// there meaning unlimited.
func (st *runState) perturbBudgetLeft() bool {
	if st.cfg.Mode == ModePure {
		return true
	}
	return st.cfg.MaxPerturbations <= 0 || st.perturbations < st.cfg.MaxPerturbations
}

func (st *runState) tryPerturb(onGiveUp ResultKind, cycleStart int) (procs.Proc[*runState], error) {
	if !st.perturbBudgetLeft() {
		return st.giveUp(onGiveUp, cycleStart)
	}
	st.anamnesis = st.perturber.Perturb(st.anamnesis, st.rng)
	st.perturbations++
	return epochStep{}, nil
}

// giveUp reports Cyclic only when the diagnoser actually found a plain
// repeated-state witness; a cycle path whose diagnosis resolves to a
// negative loop (the grandfather paradox's self-negation shape) is a
// paradox regardless of which code path noticed the repeat first.
func (st *runState) giveUp(kind ResultKind, cycleStart int) (procs.Proc[*runState], error) {
	d := diagnoseTrajectory(st.prog, st.cfg, st.traj, cycleStart)
	if kind == ResultCyclic && d.Witness.Kind == diagnose.WitnessCycle {
		start := cycleStart
		if start < 0 {
			start = 0
		}
		st.result = &RunResult{Kind: ResultCyclic, Cycle: st.traj.Cycle(start), Diagnosis: d}
		return nil, nil
	}
	st.result = &RunResult{Kind: ResultParadox, Diagnosis: d, Repairs: d.Repairs}
	return nil, nil
}

// giveUpOnTimeout is reached once MaxEpochs is exhausted without
// convergence, paradox, or a perturbation-exhausted cycle. It
// distinguishes a genuine Divergent trend from a plain Timeout by
// consulting the same diagnoser used elsewhere.
func (st *runState) giveUpOnTimeout() (procs.Proc[*runState], error) {
	d := diagnoseTrajectory(st.prog, st.cfg, st.traj, -1)
	if d.Witness.Kind == diagnose.WitnessDivergence {
		st.result = &RunResult{Kind: ResultDivergent, Diagnosis: d, Pattern: d.Witness.Divergence}
		return nil, nil
	}
	st.result = &RunResult{Kind: ResultTimeout, PartialTrajectory: st.traj, Diagnosis: d}
	return nil, nil
}
