package smtenc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/averagestudentdontfail/Ourochronos/program"
)

// Script is a self-contained SMT-LIB2 script and the bookkeeping the
// caller needs to interpret a solver's answer against it.
type Script struct {
	Text string
	// Incomplete is true when a While loop was unrolled to Bound rather
	// than proven to terminate; a Sat/Unsat answer over an incomplete
	// encoding only covers trajectories within the unrolled horizon.
	Incomplete bool
}

// DefaultUnrollBound is the number of iterations a While loop is
// unrolled to. Paths still looping after the last unrolled iteration
// continue with the state it left, and the Script is marked Incomplete.
const DefaultUnrollBound = 32

// state carries the symbolic execution context threaded through one
// program's statement tree. p is the current SMT term denoting the
// present array; halted is a boolean SMT term, true on exactly the
// symbolic paths that have already executed HALT or PARADOX. cellOrder
// collects, in first-reference order, every memory address the program
// touches through a compile-time-literal ORACLE/PRESENT/PROPHECY
// argument, so Encode can name a per-cell fixed-point assertion for
// each one and a returned unsat core can be read back to addresses.
type state struct {
	stack      []string
	p          string
	halted     string
	tmp        int
	inputs     int
	incomplete bool
	bound      int
	cellOrder  []uint16
}

func newState(bound int) *state {
	return &state{p: zeroArray(), halted: "false", bound: bound}
}

func (st *state) clone() *state {
	c := *st
	c.stack = append([]string(nil), st.stack...)
	c.cellOrder = append([]uint16(nil), st.cellOrder...)
	return &c
}

// literalAddrTerm matches the bvLit encoding of a compile-time-constant
// address, the shape a plain `program.Push(n)` immediately preceding an
// ORACLE/PRESENT/PROPHECY produces.
var literalAddrTerm = regexp.MustCompile(`^\(_ bv(\d+) 64\)$`)

// recordCell notes addrTerm's address in cellOrder when addrTerm is a
// literal, so Encode can later name a fixed-point assertion for it. A
// computed (non-literal) address contributes nothing here; it is still
// covered by the whole-array fixed_point assertion, which names no address.
func (st *state) recordCell(addrTerm string) {
	m := literalAddrTerm.FindStringSubmatch(addrTerm)
	if m == nil {
		return
	}
	v, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return
	}
	addr := uint16(v)
	for _, a := range st.cellOrder {
		if a == addr {
			return
		}
	}
	st.cellOrder = append(st.cellOrder, addr)
}

// unionCells merges b into a, preserving a's order and appending any of
// b's addresses a doesn't already carry.
func unionCells(a, b []uint16) []uint16 {
	seen := make(map[uint16]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	out := a
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (st *state) pop() (string, error) {
	if len(st.stack) == 0 {
		return "", fmt.Errorf("smtenc: stack underflow during symbolic execution")
	}
	v := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
	return v, nil
}

func (st *state) push(v string) {
	st.stack = append(st.stack, v)
}

func (st *state) top() (string, error) {
	if len(st.stack) == 0 {
		return "", fmt.Errorf("smtenc: stack underflow reading top")
	}
	return st.stack[len(st.stack)-1], nil
}

// eff is the effective guard for any state mutation reached under path:
// the enclosing path condition, minus any prefix of execution that has
// already halted.
func (st *state) eff(path string) string {
	return andBool(path, notBool(st.halted))
}

func (st *state) walk(stmts []program.Statement, path string) error {
	for _, s := range stmts {
		if err := st.walkOne(s, path); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) walkOne(s program.Statement, path string) error {
	switch s.Kind {
	case program.StmtPush:
		st.push(bvLit(s.Imm))
		return nil

	case program.StmtBlock:
		return st.walk(s.Stmts, path)

	case program.StmtOp:
		return st.walkOp(s.Op, path)

	case program.StmtIf:
		return st.walkIf(s, path)

	case program.StmtWhile:
		return st.walkWhile(s, path)
	}
	return fmt.Errorf("smtenc: unknown statement kind %d", s.Kind)
}

func (st *state) walkOp(op program.Opcode, path string) error {
	switch op {
	case program.NOP, program.HALT, program.PARADOX:
		if op != program.NOP {
			eff := st.eff(path)
			st.halted = iteBool(eff, "true", st.halted)
		}

	case program.POP, program.OUTPUT:
		if _, err := st.pop(); err != nil {
			return err
		}

	case program.DUP:
		v, err := st.top()
		if err != nil {
			return err
		}
		st.push(v)

	case program.SWAP:
		b, err := st.pop()
		if err != nil {
			return err
		}
		a, err := st.pop()
		if err != nil {
			return err
		}
		st.push(b)
		st.push(a)

	case program.OVER:
		b, err := st.pop()
		if err != nil {
			return err
		}
		a, err := st.pop()
		if err != nil {
			return err
		}
		st.push(a)
		st.push(b)
		st.push(a)

	case program.ROT:
		c, err := st.pop()
		if err != nil {
			return err
		}
		b, err := st.pop()
		if err != nil {
			return err
		}
		a, err := st.pop()
		if err != nil {
			return err
		}
		st.push(b)
		st.push(c)
		st.push(a)

	case program.DEPTH:
		st.push(bvLit(uint64(len(st.stack))))

	case program.INPUT:
		name := freshName("in", st.inputs)
		st.inputs++
		st.push(name)

	case program.ADD, program.SUB, program.MUL, program.DIV, program.MOD,
		program.AND, program.OR, program.XOR:
		b, err := st.pop()
		if err != nil {
			return err
		}
		a, err := st.pop()
		if err != nil {
			return err
		}
		st.push(binaryTerm(op, a, b))

	case program.NOT, program.BNOT:
		a, err := st.pop()
		if err != nil {
			return err
		}
		st.push(unBv("bvnot", a))

	case program.NEG:
		a, err := st.pop()
		if err != nil {
			return err
		}
		st.push(unBv("bvneg", a))

	case program.EQ, program.NEQ, program.LT, program.GT, program.LTE, program.GTE:
		b, err := st.pop()
		if err != nil {
			return err
		}
		a, err := st.pop()
		if err != nil {
			return err
		}
		st.push(cmpTerm(comparisonTerm(op, a, b)))

	case program.ORACLE:
		addr, err := st.pop()
		if err != nil {
			return err
		}
		st.recordCell(addr)
		st.push(selectTerm("A", extractAddr(addr)))

	case program.PROPHECY:
		addr, err := st.pop()
		if err != nil {
			return err
		}
		v, err := st.pop()
		if err != nil {
			return err
		}
		st.recordCell(addr)
		eff := st.eff(path)
		a16 := extractAddr(addr)
		st.p = iteBv(eff, storeTerm(st.p, a16, v), st.p)

	case program.PRESENT:
		addr, err := st.pop()
		if err != nil {
			return err
		}
		st.recordCell(addr)
		st.push(selectTerm(st.p, extractAddr(addr)))

	default:
		return fmt.Errorf("smtenc: opcode %v has no symbolic encoding", op)
	}
	return nil
}

func (st *state) walkIf(s program.Statement, path string) error {
	cond, err := st.pop()
	if err != nil {
		return err
	}
	condBool := boolTerm(cond)
	eff := st.eff(path)

	thenSt := st.clone()
	if err := thenSt.walk(s.Then, andBool(eff, condBool)); err != nil {
		return err
	}
	elseSt := st.clone()
	if err := elseSt.walk(s.Else, andBool(eff, notBool(condBool))); err != nil {
		return err
	}
	if len(thenSt.stack) != len(elseSt.stack) {
		return fmt.Errorf("smtenc: if-branches leave the stack at different depths (%d vs %d)", len(thenSt.stack), len(elseSt.stack))
	}

	merged := make([]string, len(thenSt.stack))
	for i := range merged {
		merged[i] = iteBv(condBool, thenSt.stack[i], elseSt.stack[i])
	}
	st.stack = merged
	st.p = iteBv(condBool, thenSt.p, elseSt.p)
	st.halted = iteBool(condBool, thenSt.halted, elseSt.halted)
	st.cellOrder = unionCells(thenSt.cellOrder, elseSt.cellOrder)
	if thenSt.tmp > st.tmp {
		st.tmp = thenSt.tmp
	}
	if elseSt.tmp > st.tmp {
		st.tmp = elseSt.tmp
	}
	st.inputs = thenSt.inputs
	if elseSt.inputs > st.inputs {
		st.inputs = elseSt.inputs
	}
	st.incomplete = st.incomplete || thenSt.incomplete || elseSt.incomplete
	return nil
}

func (st *state) walkWhile(s program.Statement, path string) error {
	for i := 0; i < st.bound; i++ {
		loopEff := st.eff(path)
		if err := st.walk(s.Cond, loopEff); err != nil {
			return err
		}
		cond, err := st.pop()
		if err != nil {
			return err
		}
		contBool := boolTerm(cond)
		bodyPath := andBool(loopEff, contBool)
		if err := st.walk(s.Body, bodyPath); err != nil {
			return err
		}
	}
	st.incomplete = true
	return nil
}

func binaryTerm(op program.Opcode, a, b string) string {
	switch op {
	case program.ADD:
		return binBv("bvadd", a, b)
	case program.SUB:
		return binBv("bvsub", a, b)
	case program.MUL:
		return binBv("bvmul", a, b)
	case program.DIV:
		return iteBv(binBv("=", b, bvLit(0)), bvLit(0), binBv("bvudiv", a, b))
	case program.MOD:
		return iteBv(binBv("=", b, bvLit(0)), bvLit(0), binBv("bvurem", a, b))
	case program.AND:
		return binBv("bvand", a, b)
	case program.OR:
		return binBv("bvor", a, b)
	case program.XOR:
		return binBv("bvxor", a, b)
	}
	return bvLit(0)
}

func comparisonTerm(op program.Opcode, a, b string) string {
	switch op {
	case program.EQ:
		return binBv("=", a, b)
	case program.NEQ:
		return notBool(binBv("=", a, b))
	case program.LT:
		return binBv("bvult", a, b)
	case program.GT:
		return binBv("bvugt", a, b)
	case program.LTE:
		return binBv("bvule", a, b)
	case program.GTE:
		return binBv("bvuge", a, b)
	}
	return "false"
}

// extractAddr truncates a 64-bit term to the low 16 bits used to index
// A and P, matching epoch.dispatch's `uint16(v % memory.Size)` for a
// power-of-two Size.
func extractAddr(v string) string {
	return "((_ extract 15 0) " + v + ")"
}

// Encode compiles p into a QF_ABV script whose model, if Sat, names a
// consistent fixed point: an assignment to A such that running the
// program symbolically against it produces P = A.
func Encode(p *program.Program, unrollBound int) (*Script, error) {
	if unrollBound <= 0 {
		unrollBound = DefaultUnrollBound
	}
	st := newState(unrollBound)
	if err := st.walk(p.Statements, "true"); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("(set-option :produce-unsat-cores true)\n")
	b.WriteString("(set-logic QF_ABV)\n")
	b.WriteString("(declare-const A (Array (_ BitVec 16) (_ BitVec 64)))\n")
	fmt.Fprintf(&b, "(define-const P (Array (_ BitVec 16) (_ BitVec 64)) %s)\n", st.p)
	for i := 0; i < st.inputs; i++ {
		fmt.Fprintf(&b, "(declare-const %s (_ BitVec 64))\n", freshName("in", i))
	}
	// Every literal cell the program touches gets its own named
	// fixed-point assertion, so an unsat core naming a subset of them
	// tells the diagnoser exactly which addresses are in conflict; the
	// blanket named assertion still covers cells only ever reached
	// through a computed address.
	for _, addr := range st.cellOrder {
		fmt.Fprintf(&b, "(assert (! (= (select A %s) (select P %s)) :named %s))\n", bv16(addr), bv16(addr), cellAssertionName(addr))
	}
	b.WriteString("(assert (! (= A P) :named fixed_point))\n")
	b.WriteString("(check-sat)\n")
	b.WriteString("(get-unsat-core)\n")
	b.WriteString("(get-model)\n")

	return &Script{Text: b.String(), Incomplete: st.incomplete}, nil
}

// cellAssertionName is the :named identifier a per-cell fixed-point
// assertion is tagged with; extractConflictCells reverses this to read
// an unsat core back into addresses.
func cellAssertionName(addr uint16) string {
	return fmt.Sprintf("cell_%04x", addr)
}
