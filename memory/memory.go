// Package memory implements the two flat 65,536-cell address spaces a
// single epoch operates over: anamnesis (read-only) and present.
package memory

import "github.com/averagestudentdontfail/Ourochronos/value"

// Size is the total number of addressable cells.
const Size = 65536

// Memory is a total function from 16-bit addresses to value.Value.
// Undefined cells read as val=0, provenance=⊥.
type Memory struct {
	cells [Size]value.Value
}

// New returns an all-zero, all-⊥ Memory.
func New() *Memory {
	return &Memory{}
}

// addr normalises an arbitrary address modulo Size: address arithmetic
// wraps rather than faulting.
func addr(a int) uint16 {
	m := a % Size
	if m < 0 {
		m += Size
	}
	return uint16(m)
}

// Read returns the value stored at addr, wrapping out-of-range
// addresses modulo Size.
func (m *Memory) Read(a int) value.Value {
	return m.cells[addr(a)]
}

// ReadAddr is Read for an already-normalised uint16 address.
func (m *Memory) ReadAddr(a uint16) value.Value {
	return m.cells[a]
}

// Write stores v at addr, wrapping out-of-range addresses modulo Size.
// Value and provenance are updated atomically since Value carries both.
func (m *Memory) Write(a int, v value.Value) {
	m.cells[addr(a)] = v
}

// WriteAddr is Write for an already-normalised uint16 address.
func (m *Memory) WriteAddr(a uint16, v value.Value) {
	m.cells[a] = v
}

// Snapshot returns an immutable copy suitable for embedding in an
// EpochRecord.
func (m *Memory) Snapshot() *Memory {
	cp := &Memory{}
	cp.cells = m.cells
	return cp
}

// EqualValues reports whether m and other agree on every cell's value.
// Provenance is metadata and is not part of the fixed-point equality.
func (m *Memory) EqualValues(other *Memory) bool {
	for i := range m.cells {
		if m.cells[i].Val != other.cells[i].Val {
			return false
		}
	}
	return true
}

// ForEach calls fn for every cell in address order.
func (m *Memory) ForEach(fn func(addr uint16, v value.Value)) {
	for i, v := range m.cells {
		fn(uint16(i), v)
	}
}
