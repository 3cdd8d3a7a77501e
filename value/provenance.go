// Package value implements the Value & Provenance Core: 64-bit wrapping
// integers paired with a causal provenance descriptor.
package value

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Provenance is a lattice element denoting which anamnesis addresses
// causally contributed to a Value. Bottom (the zero value) means no
// temporal dependency. Oracle(S) holds a set of contributing addresses.
type Provenance struct {
	addrs []uint16
	all   bool
}

// Bottom is the lattice bottom element: no temporal dependency.
var Bottom = Provenance{}

// OracleAll is the lattice top: it stands for every address having
// contributed, and joining anything with it yields OracleAll. No read in
// the interpreter produces it; ORACLE joins the address it actually read
// with its address operand's provenance. See DESIGN.md, Open Question 2.
var OracleAll = Provenance{all: true}

// Oracle builds a provenance descriptor naming a single contributing
// anamnesis address.
func Oracle(addr uint16) Provenance {
	return Provenance{addrs: []uint16{addr}}
}

// OracleSet builds a provenance descriptor from a set of addresses.
func OracleSet(addrs ...uint16) Provenance {
	if len(addrs) == 0 {
		return Bottom
	}
	cp := append([]uint16(nil), addrs...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	cp = dedupSorted(cp)
	return Provenance{addrs: cp}
}

func dedupSorted(s []uint16) []uint16 {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// IsBottom reports whether p carries no temporal dependency.
func (p Provenance) IsBottom() bool {
	return !p.all && len(p.addrs) == 0
}

// Addrs returns the sorted set of contributing addresses. For OracleAll
// it returns nil; callers must check IsAll first.
func (p Provenance) Addrs() []uint16 {
	return p.addrs
}

// IsAll reports whether p is the OracleAll over-approximation.
func (p Provenance) IsAll() bool {
	return p.all
}

// Join computes p ⊔ q: bottom joined with anything is that thing;
// Oracle(S1) ⊔ Oracle(S2) = Oracle(S1 ∪ S2). Join is commutative,
// associative and idempotent.
func (p Provenance) Join(q Provenance) Provenance {
	if p.all || q.all {
		return OracleAll
	}
	if p.IsBottom() {
		return q
	}
	if q.IsBottom() {
		return p
	}
	merged := make([]uint16, 0, len(p.addrs)+len(q.addrs))
	i, j := 0, 0
	for i < len(p.addrs) && j < len(q.addrs) {
		switch {
		case p.addrs[i] < q.addrs[j]:
			merged = append(merged, p.addrs[i])
			i++
		case p.addrs[i] > q.addrs[j]:
			merged = append(merged, q.addrs[j])
			j++
		default:
			merged = append(merged, p.addrs[i])
			i++
			j++
		}
	}
	merged = append(merged, p.addrs[i:]...)
	merged = append(merged, q.addrs[j:]...)
	return Provenance{addrs: merged}
}

// Equal reports whether p and q name the same source set.
func (p Provenance) Equal(q Provenance) bool {
	if p.all != q.all {
		return false
	}
	if p.all {
		return true
	}
	if len(p.addrs) != len(q.addrs) {
		return false
	}
	for i := range p.addrs {
		if p.addrs[i] != q.addrs[i] {
			return false
		}
	}
	return true
}

// LessEqual reports p ⊑ q, i.e. p's source set is a subset of q's.
func (p Provenance) LessEqual(q Provenance) bool {
	if q.all {
		return true
	}
	if p.all {
		return false
	}
	set := make(map[uint16]struct{}, len(q.addrs))
	for _, a := range q.addrs {
		set[a] = struct{}{}
	}
	for _, a := range p.addrs {
		if _, ok := set[a]; !ok {
			return false
		}
	}
	return true
}

// Hash returns a stable 64-bit hash suitable for memoization.
func (p Provenance) Hash() uint64 {
	if p.all {
		return 0xa11a11a11a11a11a
	}
	h := xxhash.New()
	var buf [2]byte
	for _, a := range p.addrs {
		buf[0] = byte(a)
		buf[1] = byte(a >> 8)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// String renders p for logs and diagnostics.
func (p Provenance) String() string {
	if p.all {
		return "Oracle(*)"
	}
	if p.IsBottom() {
		return "⊥"
	}
	parts := make([]string, len(p.addrs))
	for i, a := range p.addrs {
		parts[i] = strconv.Itoa(int(a))
	}
	return "Oracle({" + strings.Join(parts, ",") + "})"
}
