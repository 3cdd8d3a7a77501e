package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/averagestudentdontfail/Ourochronos/program"
)

// instr is one emitted bytecode instruction before jump targets are
// resolved to absolute byte offsets.
type instr struct {
	op    Op
	imm   uint64
	label int // >= 0 iff imm must be resolved to labelPos[label]
}

// asm accumulates instructions and label definitions during compilation.
type asm struct {
	instrs   []instr
	nextLbl  int
	labelIdx map[int]int // label -> index into instrs where it points
}

func newAsm() *asm {
	return &asm{labelIdx: make(map[int]int)}
}

func (a *asm) newLabel() int {
	a.nextLbl++
	return a.nextLbl - 1
}

func (a *asm) place(label int) {
	a.labelIdx[label] = len(a.instrs)
}

func (a *asm) emit(op Op, imm uint64) {
	a.instrs = append(a.instrs, instr{op: op, imm: imm, label: -1})
}

func (a *asm) emitJump(op Op, label int) {
	a.instrs = append(a.instrs, instr{op: op, label: label})
}

// Compile lowers a structured program tree into a flat instruction
// stream, with IF/WHILE compiled to JMP/JZ/JNZ.
func Compile(p *program.Program) ([]byte, error) {
	a := newAsm()
	if err := compileBlock(a, p.Statements); err != nil {
		return nil, err
	}
	a.emit(OpHALT, 0)
	return a.encode()
}

func compileBlock(a *asm, stmts []program.Statement) error {
	for _, s := range stmts {
		if err := compileStmt(a, s); err != nil {
			return err
		}
	}
	return nil
}

func compileStmt(a *asm, s program.Statement) error {
	switch s.Kind {

	case program.StmtPush:
		a.emit(OpPUSH_IMM, s.Imm)

	case program.StmtBlock:
		return compileBlock(a, s.Stmts)

	case program.StmtOp:
		return compileOp(a, s.Op)

	case program.StmtIf:
		if len(s.Else) == 0 {
			end := a.newLabel()
			a.emitJump(OpJZ, end)
			if err := compileBlock(a, s.Then); err != nil {
				return err
			}
			a.place(end)
			return nil
		}
		elseLbl := a.newLabel()
		endLbl := a.newLabel()
		a.emitJump(OpJZ, elseLbl)
		if err := compileBlock(a, s.Then); err != nil {
			return err
		}
		a.emitJump(OpJMP, endLbl)
		a.place(elseLbl)
		if err := compileBlock(a, s.Else); err != nil {
			return err
		}
		a.place(endLbl)

	case program.StmtWhile:
		condLbl := a.newLabel()
		endLbl := a.newLabel()
		a.place(condLbl)
		if err := compileBlock(a, s.Cond); err != nil {
			return err
		}
		a.emitJump(OpJZ, endLbl)
		if err := compileBlock(a, s.Body); err != nil {
			return err
		}
		a.emitJump(OpJMP, condLbl)
		a.place(endLbl)

	default:
		return fmt.Errorf("bytecode: unknown statement kind %d", s.Kind)
	}
	return nil
}

// EQ, LT and GT encode directly; NEQ, LTE and GTE are sugar lowered to a
// direct comparison followed by a flip of its 0/1 result, since the
// persistent form's opcode table has no dedicated byte for them. The
// flip uses PUSH_IMM 1 + XOR rather than NOT: NOT is the
// bitwise complement (~x), which does not invert a boolean 0/1 the way
// a comparison's result needs, whereas XOR 1 toggles exactly the low bit.
func compileOp(a *asm, op program.Opcode) error {
	switch op {
	case program.NEQ:
		a.emit(OpEQ, 0)
		a.emit(OpPUSH_IMM, 1)
		a.emit(OpXOR, 0)
		return nil
	case program.LTE:
		a.emit(OpGT, 0)
		a.emit(OpPUSH_IMM, 1)
		a.emit(OpXOR, 0)
		return nil
	case program.GTE:
		a.emit(OpLT, 0)
		a.emit(OpPUSH_IMM, 1)
		a.emit(OpXOR, 0)
		return nil
	}
	bop, ok := opFor[op]
	if !ok {
		return fmt.Errorf("bytecode: opcode %v has no bytecode encoding", op)
	}
	a.emit(bop, 0)
	return nil
}

// encode resolves label references to absolute byte offsets and
// serializes the instruction stream.
func (a *asm) encode() ([]byte, error) {
	offsets := make([]int, len(a.instrs)+1)
	off := 0
	for i, ins := range a.instrs {
		offsets[i] = off
		off += ins.op.size()
	}
	offsets[len(a.instrs)] = off

	var buf bytes.Buffer
	for _, ins := range a.instrs {
		imm := ins.imm
		if ins.label >= 0 {
			idx, ok := a.labelIdx[ins.label]
			if !ok {
				return nil, fmt.Errorf("bytecode: unresolved label %d", ins.label)
			}
			imm = uint64(offsets[idx])
		}
		if err := buf.WriteByte(byte(ins.op)); err != nil {
			return nil, err
		}
		switch {
		case ins.op.hasU64Imm():
			if err := binary.Write(&buf, binary.BigEndian, imm); err != nil {
				return nil, err
			}
		case ins.op.hasU32Imm():
			if err := binary.Write(&buf, binary.BigEndian, uint32(imm)); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}
