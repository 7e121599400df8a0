package grade

const (
	// MinRank is the most senior grade.
	MinRank = 1
	// MaxRank is the base grade every salary is quoted against.
	MaxRank = 6
)

// IsValidRank reports whether rank is a defined grade. A lower rank is more
// senior.
func IsValidRank(rank int) bool {
	return rank >= MinRank && rank <= MaxRank
}

// IsDownstream reports whether a grade of rank other sits below rank mine in
// the hierarchy (numerically higher rank).
func IsDownstream(mine, other int) bool {
	return other > mine
}
