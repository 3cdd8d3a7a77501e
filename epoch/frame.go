package epoch

import "github.com/averagestudentdontfail/Ourochronos/program"

// frameKind discriminates the control-flow frames the executor's
// explicit frame stack can hold, in place of Go recursion for block
// execution; it additionally keeps While loops from growing the frame
// stack per iteration.
type frameKind uint8

const (
	frameBlock frameKind = iota
	frameWhileCond
	frameWhileBody
)

// frame is one entry of the executor's control stack: "currently
// executing this statement slice at this index."
type frame struct {
	kind  frameKind
	stmts []program.Statement
	idx   int
	cond  []program.Statement
	body  []program.Statement
}

func (f *frame) done() bool {
	return f.idx >= len(f.stmts)
}

func (f *frame) next() program.Statement {
	s := f.stmts[f.idx]
	f.idx++
	return s
}
