package refine

import "testing"

func TestRunCountsResetScenario(t *testing.T) {
	got := RunCounts([]bool{true, true, false, true})
	want := []int{1, 2, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RunCounts = %v, want %v", got, want)
		}
	}
}

func TestRunCountsAllFalseStaysZero(t *testing.T) {
	// Regression: an excluded instrument (ETF/index fund) produces a long
	// all-false series; a cumulative count without zero-forcing exploded
	// into thousands of spurious consecutive days here.
	flags := make([]bool, 5000)
	for i, c := range RunCounts(flags) {
		if c != 0 {
			t.Fatalf("non-qualifying row %d has count %d, want 0", i, c)
		}
	}
}

func TestRunCountsLongRunThenReset(t *testing.T) {
	flags := []bool{false, true, true, true, false, false, true}
	want := []int{0, 1, 2, 3, 0, 0, 1}
	got := RunCounts(flags)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RunCounts = %v, want %v", got, want)
		}
	}
}

func TestRunCountsEmpty(t *testing.T) {
	if got := RunCounts(nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}

func TestRunCountsImpliesFlag(t *testing.T) {
	flags := []bool{true, false, true, true, false, true, true, true}
	counts := RunCounts(flags)
	for i := range flags {
		if counts[i] > 0 && !flags[i] {
			t.Fatalf("count %d at non-qualifying row %d", counts[i], i)
		}
		if !flags[i] && counts[i] != 0 {
			t.Fatalf("non-qualifying row %d must be exactly zero", i)
		}
	}
}
