package driver

import (
	"math/rand/v2"

	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

// Perturber picks one cell of m to nudge and returns a modified copy:
// pick one address at random, and add a random non-zero delta modulo
// 2^64 to its value.
type Perturber interface {
	Perturb(m *memory.Memory, rng *rand.Rand) *memory.Memory
}

func nonZeroDelta(rng *rand.Rand) uint64 {
	d := rng.Uint64()
	if d == 0 {
		return 1
	}
	return d
}

func bump(cp *memory.Memory, addr uint16, rng *rand.Rand) {
	v := cp.ReadAddr(addr)
	cp.WriteAddr(addr, value.Value{Val: v.Val + nonZeroDelta(rng), Prov: v.Prov})
}

// UniformPerturber picks the perturbed address uniformly at random
// across all 65536 cells: the spec's literal default.
type UniformPerturber struct{}

func (UniformPerturber) Perturb(m *memory.Memory, rng *rand.Rand) *memory.Memory {
	cp := m.Snapshot()
	bump(cp, uint16(rng.Uint64()%memory.Size), rng)
	return cp
}

// CoreWeightedPerturber biases perturbation toward the temporal-core
// cells a prior causal-graph pass identified, on the reasoning that a
// paradox or cycle is more likely resolved by disturbing a cell that
// actually participates in the offending feedback loop than by a
// uniform stab in the dark. It falls back to a uniform pick when Core
// is empty (no graph evidence yet, e.g. the very first perturbation of
// a run) or on the 1-in-4 draws reserved for uniform exploration.
type CoreWeightedPerturber struct {
	Core []uint16
}

func (p CoreWeightedPerturber) Perturb(m *memory.Memory, rng *rand.Rand) *memory.Memory {
	cp := m.Snapshot()
	var addr uint16
	if len(p.Core) > 0 && rng.Uint64()%4 != 0 {
		addr = p.Core[rng.Uint64()%uint64(len(p.Core))]
	} else {
		addr = uint16(rng.Uint64() % memory.Size)
	}
	bump(cp, addr, rng)
	return cp
}
