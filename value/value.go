package value

import "strconv"

// Value is a 64-bit wrapping integer paired with its causal Provenance.
type Value struct {
	Val  uint64
	Prov Provenance
}

// Zero is the value undefined memory cells read as.
var Zero = Value{}

// Lit builds a literal Value; literals carry no temporal dependency.
func Lit(v uint64) Value {
	return Value{Val: v}
}

// With returns v with its provenance replaced.
func (v Value) With(p Provenance) Value {
	return Value{Val: v.Val, Prov: p}
}

// String renders v for logs and diagnostics.
func (v Value) String() string {
	return strconv.FormatUint(v.Val, 10) + "@" + v.Prov.String()
}

func joined(a, b Value) Provenance {
	return a.Prov.Join(b.Prov)
}

// Add computes wrapping a + b.
func Add(a, b Value) Value {
	return Value{Val: a.Val + b.Val, Prov: joined(a, b)}
}

// Sub computes wrapping a - b.
func Sub(a, b Value) Value {
	return Value{Val: a.Val - b.Val, Prov: joined(a, b)}
}

// Mul computes wrapping a * b.
func Mul(a, b Value) Value {
	return Value{Val: a.Val * b.Val, Prov: joined(a, b)}
}

// Div computes a / b. Division by zero returns Value(0, joined
// provenance), never an error.
func Div(a, b Value) Value {
	if b.Val == 0 {
		return Value{Val: 0, Prov: joined(a, b)}
	}
	return Value{Val: a.Val / b.Val, Prov: joined(a, b)}
}

// Rem computes a % b with the same zero-divisor policy as Div.
func Rem(a, b Value) Value {
	if b.Val == 0 {
		return Value{Val: 0, Prov: joined(a, b)}
	}
	return Value{Val: a.Val % b.Val, Prov: joined(a, b)}
}

// And computes bitwise a & b.
func And(a, b Value) Value {
	return Value{Val: a.Val & b.Val, Prov: joined(a, b)}
}

// Or computes bitwise a | b.
func Or(a, b Value) Value {
	return Value{Val: a.Val | b.Val, Prov: joined(a, b)}
}

// Xor computes bitwise a ^ b.
func Xor(a, b Value) Value {
	return Value{Val: a.Val ^ b.Val, Prov: joined(a, b)}
}

// BitNot computes bitwise ^a. Unary ops inherit the operand's provenance.
func BitNot(a Value) Value {
	return Value{Val: ^a.Val, Prov: a.Prov}
}

// Neg computes wrapping two's-complement -a.
func Neg(a Value) Value {
	return Value{Val: -a.Val, Prov: a.Prov}
}

func boolVal(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// Eq computes a == b, yielding 1 or 0.
func Eq(a, b Value) Value {
	return Value{Val: boolVal(a.Val == b.Val), Prov: joined(a, b)}
}

// Neq computes a != b, yielding 1 or 0.
func Neq(a, b Value) Value {
	return Value{Val: boolVal(a.Val != b.Val), Prov: joined(a, b)}
}

// Lt computes a < b, yielding 1 or 0.
func Lt(a, b Value) Value {
	return Value{Val: boolVal(a.Val < b.Val), Prov: joined(a, b)}
}

// Gt computes a > b, yielding 1 or 0.
func Gt(a, b Value) Value {
	return Value{Val: boolVal(a.Val > b.Val), Prov: joined(a, b)}
}

// Lte computes a <= b, yielding 1 or 0.
func Lte(a, b Value) Value {
	return Value{Val: boolVal(a.Val <= b.Val), Prov: joined(a, b)}
}

// Gte computes a >= b, yielding 1 or 0.
func Gte(a, b Value) Value {
	return Value{Val: boolVal(a.Val >= b.Val), Prov: joined(a, b)}
}

// Truthy reports whether v drives a branch as "true" (val != 0).
func (v Value) Truthy() bool {
	return v.Val != 0
}
