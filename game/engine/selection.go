package engine

// Toggle removes id from the selection if present, otherwise appends it.
// The input slice is never modified.
func Toggle(selection []string, id string) []string {
	next := make([]string, 0, len(selection)+1)
	found := false
	for _, s := range selection {
		if s == id {
			found = true
			continue
		}
		next = append(next, s)
	}
	if !found {
		next = append(next, id)
	}
	return next
}

// Evaluate compares the value of the selected tiles still in the grid against target.
// Only exact equality is a match.
func Evaluate(grid Grid, selection []string, target int) (Outcome, int) {
	sum := grid.Sum(selection)
	switch {
	case sum == target:
		return OutcomeMatch, sum
	case sum > target:
		return OutcomeOvershoot, sum
	default:
		return OutcomeContinue, sum
	}
}
