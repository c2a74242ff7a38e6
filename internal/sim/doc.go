// Package sim is the pendulum timing engine.
//
// One trial is driven frame by frame:
//
//   - [Step] is the pure transition: given the current [State] and a
//     [Frame] (the tick instant and the simulation-clock reading) it
//     evaluates the angle model, feeds the [Detector] and returns the next
//     state plus an [Action].
//   - [Loop] is the imperative shell. It owns the single live State,
//     schedules frame and stopwatch tasks on an engine.Scheduler, applies
//     the actions Step returns and hands finished trials to a [Recorder].
//
// # Cancellation
//
// Stop, BeginDrag and Reset cancel the pending frame task and stopwatch
// task before touching state. Frame callbacks also refuse to run unless
// they are the task the loop is waiting on, so a late tick can never mutate
// a trial it no longer belongs to.
package sim
