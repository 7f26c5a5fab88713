package refine

// rollingMoments is a fixed-size ring buffer maintaining running sum and
// sum-of-squares over the trailing window, so the per-row variance update is
// O(1) instead of a full-window rescan.
type rollingMoments struct {
	buf   []float64
	head  int
	count int
	sum   float64
	sumSq float64
}

func newRollingMoments(window int) *rollingMoments {
	return &rollingMoments{buf: make([]float64, window)}
}

func (r *rollingMoments) Push(v float64) {
	if r.count == len(r.buf) {
		old := r.buf[r.head]
		r.sum -= old
		r.sumSq -= old * old
	} else {
		r.count++
	}
	r.buf[r.head] = v
	r.sum += v
	r.sumSq += v * v
	r.head = (r.head + 1) % len(r.buf)
}

func (r *rollingMoments) Full() bool { return r.count == len(r.buf) }

// SampleVariance returns the (n-1)-normalized variance of the window.
// Callers must check Full first; a negative numerical residue clamps to 0.
func (r *rollingMoments) SampleVariance() float64 {
	n := float64(r.count)
	mean := r.sum / n
	v := (r.sumSq - n*mean*mean) / (n - 1)
	if v < 0 {
		v = 0
	}
	return v
}

// rollingExtreme tracks the max (or min) of the trailing window with a
// monotonic index deque. Window semantics are min-periods-1: the extreme is
// valid from the first pushed value.
type rollingExtreme struct {
	window int
	max    bool
	idx    []int
	vals   []float64
	n      int
}

func newRollingMax(window int) *rollingExtreme {
	return &rollingExtreme{window: window, max: true}
}

func newRollingMin(window int) *rollingExtreme {
	return &rollingExtreme{window: window}
}

func (r *rollingExtreme) better(a, b float64) bool {
	if r.max {
		return a >= b
	}
	return a <= b
}

func (r *rollingExtreme) Push(v float64) {
	for len(r.idx) > 0 && r.better(v, r.vals[len(r.vals)-1]) {
		r.idx = r.idx[:len(r.idx)-1]
		r.vals = r.vals[:len(r.vals)-1]
	}
	r.idx = append(r.idx, r.n)
	r.vals = append(r.vals, v)
	r.n++
	// evict entries that slid out of the window
	if r.idx[0] <= r.n-1-r.window {
		r.idx = r.idx[1:]
		r.vals = r.vals[1:]
	}
}

// Extreme returns the current window max/min. Push at least once first.
func (r *rollingExtreme) Extreme() float64 { return r.vals[0] }
