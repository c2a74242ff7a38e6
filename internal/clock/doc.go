// Package clock provides the time sources used by the pendulum engine.
//
// Two kinds of values live here:
//
//   - [Clock]: an injectable wall clock. [Real] wraps the time package,
//     [Fake] only moves when a test calls Advance.
//   - [Reference] and [Source]: the shared zero instant and pause
//     accumulator from which both the stopwatch display and the
//     simulation clock derive their elapsed time.
//
// # Synchronization
//
// The stopwatch is polled on its own interval while the simulation clock
// is sampled once per frame. Neither reads the other. Both call
// Reference.Elapsed with the instant they were woken at, so the only
// difference between them is when they were sampled:
//
//	ref := clock.NewReference()
//	stopwatch, simclock := clock.NewPair(ref, 10*time.Millisecond)
//	ref.Start(c.Now())
//	...
//	ref.Pause(c.Now())  // both freeze
//	ref.Resume(c.Now()) // both continue from the frozen value
package clock
