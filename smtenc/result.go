package smtenc

import (
	"regexp"
	"strconv"
	"strings"
)

// storePattern matches one `(store ... #xAAAA #xVVVVVVVVVVVVVVVV)` term
// inside a model's nested store chain: a 16-bit address literal
// immediately followed by the 64-bit value literal stored there. z3 and
// cvc5 both print get-model array values this way for a QF_ABV array
// built up from an all-zero base by repeated store, which is exactly
// the shape Encode's define-const P produces.
var storePattern = regexp.MustCompile(`#x([0-9a-fA-F]{4})\s+#x([0-9a-fA-F]{16})\)`)

// parseSolverOutput is a best-effort reading of a raw SMT-LIB2 solver
// transcript. It does not attempt a general model parser: it looks for
// the leading sat/unsat/unknown verdict line and, on sat, scrapes
// address/value pairs out of the model's store chain for A. Anything
// the solver prints that doesn't match this shape is left in Raw for a
// human to read.
func parseSolverOutput(out string) *Result {
	r := &Result{Raw: out}
	lines := strings.Split(out, "\n")
	for _, line := range lines {
		switch strings.TrimSpace(line) {
		case "sat":
			r.Verdict = Sat
		case "unsat":
			r.Verdict = Unsat
		case "unknown":
			r.Verdict = Unknown
		}
	}
	if r.Verdict == Sat {
		r.FixedPoint = extractFixedPoint(out)
	}
	if r.Verdict == Unsat {
		r.ConflictCells = extractConflictCells(out)
	}
	return r
}

// extractFixedPoint scrapes (address, value) pairs out of a model's
// array store chain, later stores overriding earlier ones for the same
// address (a repeated store of the same key overwrites, and store
// chains print outer-to-inner as innermost-first in traversal order but
// textually left-to-right as outermost-first, so we apply matches in
// the order they appear and let later matches win, mirroring textual
// nesting order emitted by both z3 and cvc5).
func extractFixedPoint(out string) map[uint16]uint64 {
	matches := storePattern.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return nil
	}
	fp := make(map[uint16]uint64, len(matches))
	for _, m := range matches {
		addr, err := strconv.ParseUint(m[1], 16, 16)
		if err != nil {
			continue
		}
		val, err := strconv.ParseUint(m[2], 16, 64)
		if err != nil {
			continue
		}
		fp[uint16(addr)] = val
	}
	return fp
}

// conflictCellPattern matches one cell_XXXX name as Encode's
// cellAssertionName produces it, wherever it appears in a solver's
// (get-unsat-core) response.
var conflictCellPattern = regexp.MustCompile(`cell_([0-9a-fA-F]{4})`)

// extractConflictCells reads an unsat core's named assertions back into
// the addresses Encode tagged them with, deduplicated and in the order
// the core lists them. A core naming only fixed_point (the blanket,
// unnamed-by-address assertion) yields no cells here; the caller still
// has the raw text in Result.Raw for that case.
func extractConflictCells(out string) []uint16 {
	matches := conflictCellPattern.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[uint16]bool, len(matches))
	var cells []uint16
	for _, m := range matches {
		v, err := strconv.ParseUint(m[1], 16, 16)
		if err != nil {
			continue
		}
		addr := uint16(v)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		cells = append(cells, addr)
	}
	return cells
}
