package causal

import "github.com/averagestudentdontfail/Ourochronos/memory"

// Stability classifies one memory cell's behavior across a trajectory
// of present-memory snapshots.
type Stability uint8

const (
	Unused Stability = iota
	Stable
	Oscillating
	Diverging
	Indeterminate
)

func (s Stability) String() string {
	switch s {
	case Unused:
		return "Unused"
	case Stable:
		return "Stable"
	case Oscillating:
		return "Oscillating"
	case Diverging:
		return "Diverging"
	default:
		return "Indeterminate"
	}
}

// StableWindow is the default number of consecutive equal epochs
// required to call a cell Stable.
const StableWindow = 3

// DivergeWindow is the default sliding-window width used to detect
// monotonic divergence.
const DivergeWindow = 5

// ClassifyCell classifies one cell's value across a sequence of
// present-memory snapshots, one per epoch, in trajectory order.
// everWritten must come from the caller scanning the trajectory's
// PresentWrite events for addr, since a Memory snapshot alone cannot
// distinguish "never written" from "written to zero" (both read back
// as Value(0, ⊥)).
func ClassifyCell(addr uint16, snapshots []*memory.Memory, everWritten bool) Stability {
	if len(snapshots) == 0 || !everWritten {
		return Unused
	}
	vals := make([]uint64, len(snapshots))
	for i, m := range snapshots {
		vals[i] = m.ReadAddr(addr).Val
	}

	if n := len(vals); n >= StableWindow {
		stable := true
		for i := n - StableWindow; i < n-1; i++ {
			if vals[i] != vals[i+1] {
				stable = false
				break
			}
		}
		if stable {
			return Stable
		}
	}

	if period := detectPeriod(vals); period >= 2 {
		return Oscillating
	}

	if isDiverging(vals) {
		return Diverging
	}

	return Indeterminate
}

// detectPeriod returns the smallest k >= 2 such that the tail of vals
// repeats with period k, or 0 if none is found.
func detectPeriod(vals []uint64) int {
	n := len(vals)
	for k := 2; k <= n/2; k++ {
		periodic := true
		for i := n - 1; i >= n-k && i-k >= 0; i-- {
			if vals[i] != vals[i-k] {
				periodic = false
				break
			}
		}
		if periodic && n-k >= k {
			return k
		}
	}
	return 0
}

// isDiverging reports whether the trailing DivergeWindow values are
// strictly monotonic with a consistent sign.
func isDiverging(vals []uint64) bool {
	n := len(vals)
	if n < DivergeWindow {
		return false
	}
	window := vals[n-DivergeWindow:]
	increasing, decreasing := true, true
	for i := 1; i < len(window); i++ {
		if window[i] <= window[i-1] {
			increasing = false
		}
		if window[i] >= window[i-1] {
			decreasing = false
		}
	}
	return increasing || decreasing
}
