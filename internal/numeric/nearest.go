package numeric

import "time"

// Nearest returns the index of the candidate minimizing absolute distance to
// target, scanning left to right. On an exact distance tie the first-seen
// candidate wins; the comparison is strictly "closer-than", which callers
// rely on (e.g. preferring the earlier of two equidistant expiries).
// Returns -1 for an empty slice.
func Nearest(candidates []float64, target float64) int {
	if len(candidates) == 0 {
		return -1
	}

	best := 0
	bestDist := abs(candidates[0] - target)
	for i := 1; i < len(candidates); i++ {
		if d := abs(candidates[i] - target); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// NearestTime is Nearest over instants, measured in absolute duration.
func NearestTime(candidates []time.Time, target time.Time) int {
	if len(candidates) == 0 {
		return -1
	}

	best := 0
	bestDist := absDuration(candidates[0].Sub(target))
	for i := 1; i < len(candidates); i++ {
		if d := absDuration(candidates[i].Sub(target)); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
