package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/averagestudentdontfail/Ourochronos/program"
)

// parsedInstr is one decoded instruction with its starting byte offset,
// used to resolve JMP/JZ/JNZ targets back to structural boundaries.
type parsedInstr struct {
	op  Op
	imm uint64
	off int
}

func parse(data []byte) ([]parsedInstr, error) {
	var out []parsedInstr
	off := 0
	for off < len(data) {
		op := Op(data[off])
		start := off
		off++
		var imm uint64
		switch {
		case op.hasU64Imm():
			if off+8 > len(data) {
				return nil, fmt.Errorf("bytecode: truncated u64 immediate at offset %d", start)
			}
			imm = binary.BigEndian.Uint64(data[off : off+8])
			off += 8
		case op.hasU32Imm():
			if off+4 > len(data) {
				return nil, fmt.Errorf("bytecode: truncated u32 immediate at offset %d", start)
			}
			imm = uint64(binary.BigEndian.Uint32(data[off : off+4]))
			off += 4
		}
		out = append(out, parsedInstr{op: op, imm: imm, off: start})
	}
	return out, nil
}

// entry is one reconstructed top-level statement paired with the byte
// offset of the instruction it came from, needed to split a block's
// trailing instructions off as a WHILE condition once a backward jump
// is discovered after the fact.
type entry struct {
	off  int
	stmt program.Statement
}

// frame is one open, not-yet-closed branch region: the instructions
// collected since the JZ/JNZ that opened it, waiting for either its
// close offset (a plain IF) or a forward JMP that turns it into
// IF/ELSE, or a backward JMP that turns it into WHILE.
type frame struct {
	start   int // offset of the JZ/JNZ that opened this frame
	target  int
	negated bool // opened by JNZ rather than JZ
	buf     []entry
	thenBuf []entry // populated once a forward JMP reclassifies this as IF/ELSE
	isElse  bool
}

func stmtsOf(es []entry) []program.Statement {
	out := make([]program.Statement, len(es))
	for i, e := range es {
		out[i] = e.stmt
	}
	return out
}

// Decompile reconstructs a structured program tree from a bytecode
// stream produced by Compile. It recognizes exactly the JMP/JZ/JNZ
// shapes Compile emits for IF, IF/ELSE and WHILE; bytecode built by
// hand with irreducible or overlapping jumps is rejected. NEQ, LTE and
// GTE do not round-trip as themselves; Compile lowers them to a
// comparison followed by PUSH_IMM 1 and XOR, and Decompile reconstructs
// that as three separate statements, which is behaviorally identical but not
// AST-identical. The HALT that Compile appends to every stream likewise
// comes back as a trailing HALT statement.
func Decompile(data []byte) (*program.Program, error) {
	instrs, err := parse(data)
	if err != nil {
		return nil, err
	}

	root := &frame{target: -1}
	stack := []*frame{root}

	for _, ins := range instrs {
		top := stack[len(stack)-1]

		for len(stack) > 1 && stack[len(stack)-1].target == ins.off {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			var stmt program.Statement
			if f.isElse {
				then, els := stmtsOf(f.thenBuf), stmtsOf(f.buf)
				if f.negated {
					then, els = els, then
				}
				stmt = program.If(then, els)
			} else {
				then := stmtsOf(f.buf)
				if f.negated {
					stmt = program.If(nil, then)
				} else {
					stmt = program.If(then)
				}
			}
			parent.buf = append(parent.buf, entry{off: f.start, stmt: stmt})
			top = parent
		}

		switch ins.op {
		case OpJZ, OpJNZ:
			stack = append(stack, &frame{start: ins.off, target: int(ins.imm), negated: ins.op == OpJNZ})

		case OpJMP:
			target := int(ins.imm)
			if target <= ins.off {
				f := top
				stack = stack[:len(stack)-1]
				parent := stack[len(stack)-1]
				splitIdx := len(parent.buf)
				for j, e := range parent.buf {
					if e.off >= target {
						splitIdx = j
						break
					}
				}
				condEntries := parent.buf[splitIdx:]
				parent.buf = parent.buf[:splitIdx]
				cond := stmtsOf(condEntries)
				body := stmtsOf(f.buf)
				if f.negated {
					// Undo a JNZ-guarded loop's implicit inversion: flip the
					// boolean low bit rather than bitwise-complementing it,
					// since NOT is the bitwise complement, not a 0/1 flip.
					cond = append(cond, program.Push(1), program.Op(program.XOR))
				}
				stmt := program.While(cond, body)
				parent.buf = append(parent.buf, entry{off: target, stmt: stmt})
			} else {
				top.isElse = true
				top.thenBuf = top.buf
				top.buf = nil
				top.target = target
			}

		default:
			st, err := decodeLeaf(ins)
			if err != nil {
				return nil, err
			}
			top.buf = append(top.buf, entry{off: ins.off, stmt: st})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("bytecode: %d unclosed branch region(s)", len(stack)-1)
	}
	return program.New(stmtsOf(root.buf)...), nil
}

func decodeLeaf(ins parsedInstr) (program.Statement, error) {
	if ins.op == OpPUSH_IMM {
		return program.Push(ins.imm), nil
	}
	op, ok := opTo[ins.op]
	if !ok {
		return program.Statement{}, fmt.Errorf("bytecode: unknown opcode 0x%02x at offset %d", byte(ins.op), ins.off)
	}
	return program.Op(op), nil
}
