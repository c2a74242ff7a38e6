package sim

import "math"

// minTarget keeps a degenerate target from leaving the detector counting
// forever.
const minTarget = 0.5

// Detector counts zero crossings of the angle signal. Its progress lives in
// State so the single owned state is all there is to snapshot or reset.
type Detector struct {
	Target          float64
	SettleThreshold float64
}

func NewDetector(target, settleThresholdDeg float64) Detector {
	if !(target >= minTarget) {
		target = minTarget
	}
	if !(settleThresholdDeg > 0) {
		settleThresholdDeg = DefaultSettleThresholdDeg
	}
	return Detector{Target: target, SettleThreshold: settleThresholdDeg}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Observe feeds one (elapsed, angle) sample into s and reports whether the
// trial is complete. A settled state ignores further samples.
//
// Each sign change between two non-zero samples is half an oscillation.
// Counting stops once the target is reached; from then on the detector
// only waits for the bob to come back within SettleThreshold of vertical.
func (d Detector) Observe(s *State, elapsed, angle float64) bool {
	if s.Settled {
		return true
	}

	cur := sign(angle)
	if s.OscillationCount < d.Target && cur != 0 && s.PrevSign != 0 && cur != s.PrevSign {
		s.OscillationCount += 0.5
		if s.OscillationCount == math.Trunc(s.OscillationCount) {
			s.PeriodSamples = append(s.PeriodSamples[:len(s.PeriodSamples):len(s.PeriodSamples)],
				elapsed-s.LastZeroCrossing)
			s.LastZeroCrossing = elapsed
		}
	}
	if cur != 0 {
		s.PrevSign = cur
	}

	if s.OscillationCount >= d.Target && math.Abs(angle) < d.SettleThreshold {
		s.Settled = true
	}
	return s.Settled
}
