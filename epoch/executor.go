// Package epoch implements the Interpreter (Epoch Executor): a stack
// machine that evaluates one program tree for a single epoch against a
// read-only anamnesis and a mutable present memory.
package epoch

import (
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/value"
	"github.com/google/uuid"
)

// DefaultStepBudget is the default per-epoch instruction budget.
const DefaultStepBudget = 10_000_000

// DefaultTraceCap bounds how many trace entries a single epoch retains,
// so a long-running diagnostic capture can't grow the trajectory without
// bound.
const DefaultTraceCap = 1 << 20

// Config controls one Executor run.
type Config struct {
	StepBudget   int
	CaptureTrace bool
	TraceCap     int
}

// DefaultConfig returns the spec's default step budget with trace
// capture disabled, matching Bounded/Pure mode's "trace capture is
// disabled for performance."
func DefaultConfig() Config {
	return Config{StepBudget: DefaultStepBudget, TraceCap: DefaultTraceCap}
}

// Executor holds the state of one epoch: stack, present memory,
// borrowed anamnesis, output buffer, pc (tracked implicitly by the
// frame stack), input cursor, and step counter.
type Executor struct {
	prog      *program.Program
	anamnesis *memory.Memory
	present   *memory.Memory
	stack     []value.Value
	input     []uint64
	inputPos  int
	cfg       Config
	steps     int
}

// New builds an Executor for one epoch. anamnesis is borrowed
// read-only; present starts as a fresh all-zero, all-⊥ memory.
func New(prog *program.Program, anamnesis *memory.Memory, input []uint64, cfg Config) *Executor {
	return &Executor{
		prog:      prog,
		anamnesis: anamnesis,
		present:   memory.New(),
		stack:     make([]value.Value, 0, 64),
		input:     input,
		cfg:       cfg,
	}
}

func (e *Executor) push(v value.Value) {
	e.stack = append(e.stack, v)
}

func (e *Executor) pop() (value.Value, bool) {
	if len(e.stack) == 0 {
		return value.Value{}, false
	}
	v := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return v, true
}

func (e *Executor) top() (value.Value, bool) {
	if len(e.stack) == 0 {
		return value.Value{}, false
	}
	return e.stack[len(e.stack)-1], true
}

func (e *Executor) stackSnapshot() []value.Value {
	return append([]value.Value(nil), e.stack...)
}

// Execute runs the program to completion for one epoch and returns its
// EpochRecord. Determinism: for fixed anamnesis and input the result is
// bit-exact identical.
func (e *Executor) Execute() *EpochRecord {
	rec := &EpochRecord{
		ID:               uuid.New(),
		InitialAnamnesis: e.anamnesis.Snapshot(),
		OpCounts:         make(map[program.Opcode]int),
	}
	traceCap := e.cfg.TraceCap
	if traceCap <= 0 {
		traceCap = DefaultTraceCap
	}
	for it := range e.Run {
		switch it.Kind {
		case InterruptStep:
			rec.Steps++
			if it.Trace != nil {
				rec.OpCounts[it.Trace.Op]++
				if len(rec.Trace) < traceCap {
					rec.Trace = append(rec.Trace, *it.Trace)
				}
			}
		case InterruptOutput:
			rec.Output = append(rec.Output, it.Output)
		case InterruptHalted:
			rec.Status = StatusHalted
		case InterruptParadox:
			rec.Status = StatusParadox
		case InterruptTimeout:
			rec.Status = StatusTimeout
		case InterruptError:
			rec.Status = StatusError
			rec.ErrKind = it.ErrKind
		}
	}
	rec.FinalPresent = e.present.Snapshot()
	return rec
}
