// Package physics holds the closed-form pendulum model.
//
// The model is the undamped harmonic approximation: the bob is released at
// rest from an initial angle and follows
//
//	θ(t) = θ₀·cos(2πt/T),  T = 2π·sqrt(L/g)
//
// with g fixed at [Gravity]. Everything here is a pure function of its
// arguments; lengths are meters, angles degrees, times seconds.
package physics
