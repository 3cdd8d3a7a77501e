package epoch

import (
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/program"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

// Run drives one epoch, yielding an Interrupt for every executed leaf
// instruction and for the terminal status, using the range-over-func
// Run(yield) convention instead of a returned slice.
func (e *Executor) Run(yield func(Interrupt) bool) {
	frames := []frame{{kind: frameBlock, stmts: e.prog.Statements}}

	for len(frames) > 0 {
		top := &frames[len(frames)-1]

		if top.done() {
			switch top.kind {
			case frameWhileCond:
				v, ok := e.pop()
				if !ok {
					yield(Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow})
					return
				}
				if v.Truthy() {
					*top = frame{kind: frameWhileBody, stmts: top.body, cond: top.cond, body: top.body}
				} else {
					frames = frames[:len(frames)-1]
				}
			case frameWhileBody:
				*top = frame{kind: frameWhileCond, stmts: top.cond, cond: top.cond, body: top.body}
			default:
				frames = frames[:len(frames)-1]
			}
			continue
		}

		stmt := top.next()
		pc := top.idx - 1

		switch stmt.Kind {

		case program.StmtBlock:
			frames = append(frames, frame{kind: frameBlock, stmts: stmt.Stmts})

		case program.StmtIf:
			v, ok := e.pop()
			if !ok {
				yield(Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow})
				return
			}
			if v.Truthy() {
				frames = append(frames, frame{kind: frameBlock, stmts: stmt.Then})
			} else {
				frames = append(frames, frame{kind: frameBlock, stmts: stmt.Else})
			}

		case program.StmtWhile:
			frames = append(frames, frame{kind: frameWhileCond, stmts: stmt.Cond, cond: stmt.Cond, body: stmt.Body})

		case program.StmtPush:
			before := e.stackSnapshot()
			e.push(value.Lit(stmt.Imm))
			entry := TraceEntry{PC: pc, IsPush: true, Imm: stmt.Imm, StackBefore: before, StackAfter: e.stackSnapshot()}
			if !e.recordStep(yield, entry) {
				return
			}

		case program.StmtOp:
			before := e.stackSnapshot()
			var mem []MemoryEvent
			var output *uint64
			term, ok := e.dispatch(stmt.Op, &mem, &output)
			if !ok {
				entry := TraceEntry{PC: pc, Op: stmt.Op, StackBefore: before, StackAfter: e.stackSnapshot(), MemoryOps: mem}
				e.recordStep(yield, entry)
				yield(term)
				return
			}
			entry := TraceEntry{PC: pc, Op: stmt.Op, StackBefore: before, StackAfter: e.stackSnapshot(), MemoryOps: mem}
			if !e.recordStep(yield, entry) {
				return
			}
			if output != nil {
				if !yield(Interrupt{Kind: InterruptOutput, Output: *output}) {
					return
				}
			}
		}
	}

	yield(Interrupt{Kind: InterruptHalted})
}

// recordStep counts one executed leaf instruction, optionally attaches
// its trace, and enforces the step budget. It returns false when the
// caller must stop iterating.
func (e *Executor) recordStep(yield func(Interrupt) bool, entry TraceEntry) bool {
	e.steps++
	var it Interrupt
	if e.cfg.CaptureTrace {
		it = Interrupt{Kind: InterruptStep, Trace: &entry}
	} else {
		it = Interrupt{Kind: InterruptStep}
	}
	if !yield(it) {
		return false
	}
	if e.steps >= e.cfg.StepBudget {
		yield(Interrupt{Kind: InterruptTimeout})
		return false
	}
	return true
}

// dispatch executes a single opcode. ok is false when execution must
// stop immediately (stack underflow, input exhaustion, explicit Halt,
// explicit Paradox); term is then the terminal signal to report.
// output is set for OUTPUT so the caller can emit InterruptOutput
// without threading a value through the terminal-signal path.
func (e *Executor) dispatch(op program.Opcode, mem *[]MemoryEvent, output **uint64) (Interrupt, bool) {
	switch op {

	case program.NOP:
		return Interrupt{}, true

	case program.POP:
		if _, ok := e.pop(); !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		return Interrupt{}, true

	case program.DUP:
		v, ok := e.top()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		e.push(v)
		return Interrupt{}, true

	case program.SWAP:
		if len(e.stack) < 2 {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		n := len(e.stack)
		e.stack[n-1], e.stack[n-2] = e.stack[n-2], e.stack[n-1]
		return Interrupt{}, true

	case program.OVER:
		if len(e.stack) < 2 {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		e.push(e.stack[len(e.stack)-2])
		return Interrupt{}, true

	case program.ROT:
		if len(e.stack) < 3 {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		n := len(e.stack)
		e.stack[n-3], e.stack[n-2], e.stack[n-1] = e.stack[n-2], e.stack[n-1], e.stack[n-3]
		return Interrupt{}, true

	case program.DEPTH:
		e.push(value.Lit(uint64(len(e.stack))))
		return Interrupt{}, true

	case program.ADD, program.SUB, program.MUL, program.DIV, program.MOD,
		program.AND, program.OR, program.XOR,
		program.EQ, program.NEQ, program.LT, program.GT, program.LTE, program.GTE:
		b, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		a, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		e.push(binaryOp(op, a, b))
		return Interrupt{}, true

	case program.NOT, program.BNOT, program.NEG:
		a, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		e.push(unaryOp(op, a))
		return Interrupt{}, true

	case program.ORACLE:
		addrVal, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		addr := uint16(addrVal.Val % memory.Size)
		cell := e.anamnesis.ReadAddr(addr)
		result := value.Value{
			Val:  cell.Val,
			Prov: value.Oracle(addr).Join(addrVal.Prov),
		}
		e.push(result)
		*mem = append(*mem, MemoryEvent{Anamnesis: true, Addr: addr, Value: cell})
		return Interrupt{}, true

	case program.PROPHECY:
		addrVal, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		v, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		addr := uint16(addrVal.Val % memory.Size)
		e.present.WriteAddr(addr, v)
		*mem = append(*mem, MemoryEvent{Write: true, Addr: addr, Value: v})
		return Interrupt{}, true

	case program.PRESENT:
		addrVal, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		addr := uint16(addrVal.Val % memory.Size)
		cell := e.present.ReadAddr(addr)
		e.push(cell)
		*mem = append(*mem, MemoryEvent{Addr: addr, Value: cell})
		return Interrupt{}, true

	case program.PARADOX:
		return Interrupt{Kind: InterruptParadox}, false

	case program.INPUT:
		if e.inputPos >= len(e.input) {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorInputExhausted}, false
		}
		v := e.input[e.inputPos]
		e.inputPos++
		e.push(value.Lit(v))
		return Interrupt{}, true

	case program.OUTPUT:
		v, ok := e.pop()
		if !ok {
			return Interrupt{Kind: InterruptError, ErrKind: ErrorStackUnderflow}, false
		}
		val := v.Val
		*output = &val
		return Interrupt{}, true

	case program.HALT:
		return Interrupt{Kind: InterruptHalted}, false

	default:
		return Interrupt{}, true
	}
}

// unaryOp evaluates NOT/BNOT/NEG. NOT and BNOT are numerically identical
// bitwise complements; they are kept as separate opcodes because only NOT
// is a negating unary for causal-graph polarity (causal.BuildGraph flips
// parity through NOT but treats BNOT as a plain pass-through, matching a
// bitwise op that carries no special "grandfather" meaning in surface
// syntax, since BNOT has no keyword there to begin with).
func unaryOp(op program.Opcode, a value.Value) value.Value {
	switch op {
	case program.NOT, program.BNOT:
		return value.BitNot(a)
	case program.NEG:
		return value.Neg(a)
	}
	return value.Zero
}

func binaryOp(op program.Opcode, a, b value.Value) value.Value {
	switch op {
	case program.ADD:
		return value.Add(a, b)
	case program.SUB:
		return value.Sub(a, b)
	case program.MUL:
		return value.Mul(a, b)
	case program.DIV:
		return value.Div(a, b)
	case program.MOD:
		return value.Rem(a, b)
	case program.AND:
		return value.And(a, b)
	case program.OR:
		return value.Or(a, b)
	case program.XOR:
		return value.Xor(a, b)
	case program.EQ:
		return value.Eq(a, b)
	case program.NEQ:
		return value.Neq(a, b)
	case program.LT:
		return value.Lt(a, b)
	case program.GT:
		return value.Gt(a, b)
	case program.LTE:
		return value.Lte(a, b)
	case program.GTE:
		return value.Gte(a, b)
	}
	return value.Zero
}
