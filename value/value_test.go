package value

import "testing"

func TestDivByZeroIsNotError(t *testing.T) {
	v := Div(Lit(10), Lit(0))
	if v.Val != 0 {
		t.Fatalf("expected 0, got %v", v.Val)
	}
}

func TestRemByZeroIsNotError(t *testing.T) {
	v := Rem(Lit(10), Lit(0))
	if v.Val != 0 {
		t.Fatalf("expected 0, got %v", v.Val)
	}
}

func TestWrappingAdd(t *testing.T) {
	v := Add(Lit(^uint64(0)), Lit(1))
	if v.Val != 0 {
		t.Fatalf("expected wraparound to 0, got %v", v.Val)
	}
}

func TestProvenanceJoinLattice(t *testing.T) {
	a := Oracle(1)
	b := Oracle(2)
	if !a.Join(Bottom).Equal(a) {
		t.Fatal("bottom join a should be a")
	}
	if !a.Join(b).Equal(b.Join(a)) {
		t.Fatal("join should be commutative")
	}
	if !a.Join(a).Equal(a) {
		t.Fatal("join should be idempotent")
	}
	c := Oracle(3)
	if !a.Join(b).Join(c).Equal(a.Join(b.Join(c))) {
		t.Fatal("join should be associative")
	}
}

func TestProvenanceLessEqual(t *testing.T) {
	a := Oracle(1)
	ab := OracleSet(1, 2)
	if !a.LessEqual(ab) {
		t.Fatal("{1} should be subset of {1,2}")
	}
	if ab.LessEqual(a) {
		t.Fatal("{1,2} should not be subset of {1}")
	}
}

func TestArithmeticJoinsOperands(t *testing.T) {
	a := Value{Val: 3, Prov: Oracle(1)}
	b := Value{Val: 4, Prov: Oracle(2)}
	sum := Add(a, b)
	if !sum.Prov.Equal(OracleSet(1, 2)) {
		t.Fatalf("expected joined provenance, got %v", sum.Prov)
	}
}

func TestBitNotIsSelfInverse(t *testing.T) {
	if BitNot(Lit(0)).Val != ^uint64(0) {
		t.Fatal("BitNot(0) should be 2^64-1")
	}
	if BitNot(BitNot(Lit(42))).Val != 42 {
		t.Fatal("BitNot should be its own inverse")
	}
}

func TestComparisons(t *testing.T) {
	if Lt(Lit(1), Lit(2)).Val != 1 {
		t.Fatal("1 < 2 should be true")
	}
	if Gte(Lit(2), Lit(2)).Val != 1 {
		t.Fatal("2 >= 2 should be true")
	}
	if Eq(Lit(1), Lit(2)).Val != 0 {
		t.Fatal("1 == 2 should be false")
	}
}
