// Package engine is the cooperative scheduler that hosts the simulation.
//
// A [Serial] engine keeps a deadline-ordered queue of [Task] callbacks and
// runs them one after another on a single goroutine, so the callbacks never
// race with each other and need no locking of their own. It stands in for
// the frame and interval timers of a rendering host:
//
//   - frame callbacks are scheduled one at a time and reschedule themselves
//   - interval callbacks (the stopwatch poll) do the same on their own period
//   - Cancel on a Task guarantees the callback will not run
//
// Hosts either call [Serial.Run] (headless, real clock) or pump
// [Serial.RunDue] from their own event loop (the TUI, tests with a fake
// clock).
package engine
