package physics

import "math"

// Gravity is the fixed gravitational acceleration used by the model, m/s².
const Gravity = 9.8

// Period returns the small-oscillation period 2π·sqrt(L/g) in seconds.
// lengthMeters must be positive; callers sanitize before reaching here.
func Period(lengthMeters float64) float64 {
	return 2 * math.Pi * math.Sqrt(lengthMeters/Gravity)
}

// Angle returns the displacement in degrees after elapsed seconds of
// undamped simple harmonic motion released from initialDeg at rest.
func Angle(elapsed, initialDeg, period float64) float64 {
	return initialDeg * math.Cos(2*math.Pi*elapsed/period)
}

// Phase maps elapsed time onto [0, 2π) within the current period.
func Phase(elapsed, period float64) float64 {
	p := 2 * math.Pi * math.Mod(elapsed, period) / period
	if p < 0 {
		p += 2 * math.Pi
	}
	if p >= 2*math.Pi {
		p = 0
	}
	return p
}
