package epoch

import (
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/value"
	"github.com/google/uuid"
)

// Status is the terminal state of a single epoch.
type Status uint8

const (
	StatusHalted Status = iota
	StatusParadox
	StatusTimeout
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusHalted:
		return "Halted"
	case StatusParadox:
		return "Paradox"
	case StatusTimeout:
		return "Timeout"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrorKind classifies a StatusError epoch.
type ErrorKind uint8

const (
	ErrorNone ErrorKind = iota
	ErrorStackUnderflow
	ErrorInputExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorStackUnderflow:
		return "StackUnderflow"
	case ErrorInputExhausted:
		return "InputExhausted"
	default:
		return "None"
	}
}

// MemoryEvent records one read or write against anamnesis or present,
// captured only when trace capture is enabled.
type MemoryEvent struct {
	Anamnesis bool
	Write     bool
	Addr      uint16
	Value     value.Value
}

// TraceEntry is one instruction-level trace record: pc (the statement's
// index within its enclosing block), opcode, the stack before/after, and
// any memory reads/writes it performed.
type TraceEntry struct {
	PC          int
	Op          program.Opcode
	IsPush      bool
	Imm         uint64
	StackBefore []value.Value
	StackAfter  []value.Value
	MemoryOps   []MemoryEvent
}

// EpochRecord is the full record of one epoch execution.
type EpochRecord struct {
	ID               uuid.UUID
	InitialAnamnesis *memory.Memory
	FinalPresent     *memory.Memory
	Output           []uint64
	Status           Status
	ErrKind          ErrorKind
	Steps            int
	OpCounts         map[program.Opcode]int
	Trace            []TraceEntry
}
