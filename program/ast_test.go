package program

import "testing"

func TestReadsAnamnesis(t *testing.T) {
	p := New(
		Push(0), Op(ORACLE), Op(NOT), Push(0), Op(PROPHECY),
	)
	if !p.ReadsAnamnesis() {
		t.Fatal("expected program to read anamnesis")
	}

	p2 := New(Push(10), Push(20), Op(ADD), Op(OUTPUT))
	if p2.ReadsAnamnesis() {
		t.Fatal("expected program not to read anamnesis")
	}
}

func TestWalkVisitsNestedBlocks(t *testing.T) {
	p := New(
		If(
			[]Statement{Op(ORACLE)},
			[]Statement{While(
				[]Statement{Op(DUP)},
				[]Statement{Op(PARADOX)},
			)},
		),
	)
	var ops []Opcode
	Walk(p.Statements, func(s Statement) {
		if s.Kind == StmtOp {
			ops = append(ops, s.Op)
		}
	})
	if len(ops) != 3 {
		t.Fatalf("expected 3 opcodes visited, got %d: %v", len(ops), ops)
	}
}
