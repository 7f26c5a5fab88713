package refine

import (
	"math"
	"testing"
)

func TestRollingMomentsVariance(t *testing.T) {
	m := newRollingMoments(3)
	for _, v := range []float64{1, 2, 3} {
		m.Push(v)
	}
	if !m.Full() {
		t.Fatalf("window should be full after 3 pushes")
	}
	if got := m.SampleVariance(); math.Abs(got-1.0) > 1e-12 {
		t.Fatalf("variance = %v, want 1.0", got)
	}
	// slide: window becomes [2 3 10]
	m.Push(10)
	want := ((2.-5)*(2-5) + (3.-5)*(3-5) + (10.-5)*(10-5)) / 2
	if got := m.SampleVariance(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("variance after slide = %v, want %v", got, want)
	}
}

func TestRollingMomentsNotFull(t *testing.T) {
	m := newRollingMoments(5)
	m.Push(1)
	m.Push(2)
	if m.Full() {
		t.Fatalf("2 of 5 pushes must not report full")
	}
}

func TestRollingMaxSlides(t *testing.T) {
	r := newRollingMax(3)
	seq := []float64{5, 3, 4, 2, 1, 6}
	want := []float64{5, 5, 5, 4, 4, 6}
	for i, v := range seq {
		r.Push(v)
		if got := r.Extreme(); got != want[i] {
			t.Fatalf("step %d: max = %v, want %v", i, got, want[i])
		}
	}
}

func TestRollingMinSlides(t *testing.T) {
	r := newRollingMin(2)
	seq := []float64{5, 3, 4, 6}
	want := []float64{5, 3, 3, 4}
	for i, v := range seq {
		r.Push(v)
		if got := r.Extreme(); got != want[i] {
			t.Fatalf("step %d: min = %v, want %v", i, got, want[i])
		}
	}
}

func TestRollingMaxMinPeriodsOne(t *testing.T) {
	r := newRollingMax(50)
	r.Push(7)
	if got := r.Extreme(); got != 7 {
		t.Fatalf("single observation window: max = %v, want 7", got)
	}
}
