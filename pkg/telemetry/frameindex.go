package telemetry

import (
	"math"
	"sort"
)

// FrameIndex maps wall-clock time to frame ordinal for one marker
// metric (spec.md §4.8); the timeline builder maintains one for frames
// (default marker ".swf.frame") and one for renders (".rend.screen").
type FrameIndex struct {
	Marker string

	Positions []int
	Times     []int64

	StartTime int64
	EndTime   int64
	started   bool
}

// NewFrameIndex returns an empty index tracking occurrences of marker.
func NewFrameIndex(marker string) *FrameIndex {
	return &FrameIndex{Marker: marker}
}

// AddFrame records one timeline record: if its name matches the
// index's marker, appends (pos, time) to the index; regardless of
// name, extends StartTime/EndTime to cover it.
func (f *FrameIndex) AddFrame(name string, pos int, time int64) {
	if name == f.Marker {
		f.Times = append(f.Times, time)
		f.Positions = append(f.Positions, pos)
	}
	if !f.started {
		f.StartTime = time
		f.started = true
	}
	f.EndTime = time
}

// Len returns the number of marker occurrences recorded.
func (f *FrameIndex) Len() int {
	return len(f.Times)
}

// PositionByIndex returns the timeline position of the k-th marker.
// k=0 means "before the first marker" (position 0); k >= Len() means
// "after the last marker", signaled with the -1 sentinel so callers
// slice to the end.
func (f *FrameIndex) PositionByIndex(k int) int {
	if k < 0 || k >= len(f.Positions) {
		return -1
	}
	if k == 0 {
		return 0
	}
	return f.Positions[k-1]
}

// IndexByTime returns the smallest k such that the k-th marker's time
// is strictly greater than t (bisect_right semantics).
func (f *FrameIndex) IndexByTime(t int64) int {
	return sort.Search(len(f.Times), func(i int) bool { return f.Times[i] > t })
}

// Interval returns the k-th inter-marker interval: for 0 < k < Len(),
// the gap between consecutive markers; for k=0, the gap from
// StartTime to the first marker; for k >= Len(), the gap from the
// last marker to EndTime.
func (f *FrameIndex) Interval(k int) int64 {
	n := len(f.Times)
	switch {
	case n == 0:
		return 0
	case k <= 0:
		return f.Times[0] - f.StartTime
	case k >= n:
		return f.EndTime - f.Times[n-1]
	default:
		return f.Times[k] - f.Times[k-1]
	}
}

// Slice returns a new index covering marker occurrences [i, j), with
// StartTime/EndTime recomputed from the retained markers — the Go
// analogue of original_source/telemetry.py's IndexList.__getslice__,
// used to restrict a frame or render index to a reported range.
func (f *FrameIndex) Slice(i, j int) *FrameIndex {
	n := len(f.Times)
	if i < 0 {
		i = 0
	}
	if j > n {
		j = n
	}
	if j < i {
		j = i
	}
	out := &FrameIndex{Marker: f.Marker}
	out.Positions = append([]int(nil), f.Positions[i:j]...)
	out.Times = append([]int64(nil), f.Times[i:j]...)
	if len(out.Times) > 0 {
		out.StartTime = out.Times[0]
		out.EndTime = out.Times[len(out.Times)-1]
		out.started = true
	}
	return out
}

// MeanStdDev computes the textbook mean and standard deviation of the
// Len()-1 gaps between consecutive markers (the pre-first and
// post-last bookend intervals are excluded — see DESIGN.md for why
// this diverges from original_source/telemetry.py's meanstdv, which
// mixed two different term counts between its mean and variance
// sums). Returns (0, 0) when fewer than two markers were recorded.
func (f *FrameIndex) MeanStdDev() (mean, stddev float64) {
	n := len(f.Times)
	if n < 2 {
		return 0, 0
	}
	count := n - 1

	var sum float64
	for k := 1; k < n; k++ {
		sum += float64(f.Interval(k))
	}
	mean = sum / float64(count)

	var sq float64
	for k := 1; k < n; k++ {
		d := float64(f.Interval(k)) - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(count))
	return mean, stddev
}

// FPS derives a rate in events per second from MeanStdDev's mean
// (which is in microseconds). Returns 0 if mean is 0.
func FPS(mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return 1_000_000 / mean
}
