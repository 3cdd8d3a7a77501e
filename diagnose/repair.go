package diagnose

// Repair is a structured, not-yet-code edit proposal for one paradox
// class: a minimal suggested change, left for a human to turn into code.
type Repair struct {
	Class       Class
	Cell        uint16
	Value       uint64
	Description string
}

// suggestRepairs synthesizes the class-appropriate template. Each
// template names the concrete cell (and, where the witness carries one,
// a concrete value) the repair would act on, but stops short of
// emitting a program edit.
func suggestRepairs(w Witness, class Class) []Repair {
	switch class {
	case ClassI:
		cell := w.NegativeLoop.Cells[0]
		return []Repair{{
			Class:       class,
			Cell:        cell,
			Description: "add an identity branch at cell " + cellStr(cell) + " so the self-negation only fires conditionally",
		}}

	case ClassII:
		d := w.Divergence
		return []Repair{{
			Class:       class,
			Cell:        d.Cell,
			Value:       d.Rate,
			Description: "clamp cell " + cellStr(d.Cell) + " (" + d.Direction + " by ~" + rateStr(d.Rate) + "/epoch) with a saturating bound",
		}}

	case ClassIII:
		var cells []uint16
		if w.Kind == WitnessNegativeLoop {
			cells = w.NegativeLoop.Cells
		} else {
			cells = w.Cycle.OscillatingCells
		}
		return []Repair{{
			Class:       class,
			Description: "break the permutation cycle among cells " + cellsStr(cells) + " by pinning one member to an anamnesis-independent value",
		}}

	case ClassIV:
		var cell uint16
		switch w.Kind {
		case WitnessCycle:
			if len(w.Cycle.OscillatingCells) == 1 {
				cell = w.Cycle.OscillatingCells[0]
			}
		case WitnessConflictCore:
			if len(w.ConflictCore.Cells) == 1 {
				cell = w.ConflictCore.Cells[0]
			}
		}
		return []Repair{{
			Class:       class,
			Cell:        cell,
			Description: "guard the write to cell " + cellStr(cell) + " with a condition that is stable at its own fixed point",
		}}

	case ClassV:
		return []Repair{{
			Class:       class,
			Description: "no single-cell edit suffices; consider decoupling cells " + cellsStr(w.ConflictCore.Cells) + " into independent sub-programs",
		}}

	default:
		return nil
	}
}
