package refine

// RunCounts turns one symbol's ordered qualification series into consecutive
// run counts. A new partition begins whenever the flag changes from the
// previous row; the count is the 1-based rank inside the partition multiplied
// by the flag's numeric value, so every non-qualifying row is forced to
// exactly zero. A plain cumulative count without the zero-forcing once let a
// structurally-excluded index fund accumulate thousands of spurious
// "consecutive" days.
//
// Callers must never feed flags across symbol boundaries.
func RunCounts(flags []bool) []int {
	counts := make([]int, len(flags))
	rank := 0
	for i, f := range flags {
		if i > 0 && flags[i-1] != f {
			rank = 0
		}
		rank++
		if f {
			counts[i] = rank
		} else {
			counts[i] = 0
		}
	}
	return counts
}
