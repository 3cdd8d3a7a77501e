// Package trajectory records the sequence of epochs a driver run has
// executed and hashes memory states for cycle detection: a 64-bit
// xxhash over every cell's value, so a repeat hash lets the driver
// walk back through the trajectory and extract the cycle.
package trajectory

import (
	"github.com/cespare/xxhash/v2"

	"github.com/averagestudentdontfail/Ourochronos/epoch"
	"github.com/averagestudentdontfail/Ourochronos/memory"
	"github.com/averagestudentdontfail/Ourochronos/value"
)

// Trajectory is the ordered sequence of epochs a single driver run has
// executed, plus the memory-hash-to-index map used for cycle detection.
type Trajectory struct {
	Records []*epoch.EpochRecord
	seen    map[uint64]int // present-memory hash -> index of first occurrence
}

// New returns an empty trajectory.
func New() *Trajectory {
	return &Trajectory{seen: make(map[uint64]int)}
}

// Hash computes the 64-bit hash of every cell's value across m, in
// address order, ignoring provenance: convergence and cycle equality
// are both value-only.
func Hash(m *memory.Memory) uint64 {
	h := xxhash.New()
	buf := make([]byte, 8)
	m.ForEach(func(addr uint16, v value.Value) {
		putUint64(buf, v.Val)
		h.Write(buf)
	})
	return h.Sum64()
}

func putUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (56 - 8*i))
	}
}

// Append records rec's outcome and returns the index of an earlier
// epoch whose present-memory hash matches rec's, or -1 if rec's state
// is new. The caller is expected to treat a non-negative return as a
// detected cycle.
func (t *Trajectory) Append(rec *epoch.EpochRecord) (cycleStart int) {
	idx := len(t.Records)
	t.Records = append(t.Records, rec)
	h := Hash(rec.FinalPresent)
	if prior, ok := t.seen[h]; ok {
		return prior
	}
	t.seen[h] = idx
	return -1
}

// Len reports how many epochs t has recorded.
func (t *Trajectory) Len() int {
	return len(t.Records)
}

// Cycle returns the epoch records from start (inclusive) to the end of
// the trajectory: the repeating segment identified by Append.
func (t *Trajectory) Cycle(start int) []*epoch.EpochRecord {
	if start < 0 || start >= len(t.Records) {
		return nil
	}
	return t.Records[start:]
}

// Last returns the most recently appended record, or nil if empty.
func (t *Trajectory) Last() *epoch.EpochRecord {
	if len(t.Records) == 0 {
		return nil
	}
	return t.Records[len(t.Records)-1]
}
