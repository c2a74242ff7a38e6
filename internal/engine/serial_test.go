package engine_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pendulab/internal/clock"
	"github.com/san-kum/pendulab/internal/engine"
)

var _ = Describe("Serial", func() {
	var (
		c *clock.FakeClock
		e *engine.Serial
	)

	BeforeEach(func() {
		c = clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		e = engine.NewSerial(c, nil)
	})

	It("should not run tasks before their deadline", func() {
		ran := false
		e.After("a", 10*time.Millisecond, func(time.Time) { ran = true })

		Expect(e.RunDue()).To(Equal(0))
		c.Advance(9 * time.Millisecond)
		Expect(e.RunDue()).To(Equal(0))
		Expect(ran).To(BeFalse())

		c.Advance(time.Millisecond)
		Expect(e.RunDue()).To(Equal(1))
		Expect(ran).To(BeTrue())
	})

	It("should run due tasks in deadline order", func() {
		var order []string
		e.After("late", 20*time.Millisecond, func(time.Time) { order = append(order, "late") })
		e.After("early", 5*time.Millisecond, func(time.Time) { order = append(order, "early") })
		e.After("tie", 5*time.Millisecond, func(time.Time) { order = append(order, "tie") })

		c.Advance(time.Second)
		Expect(e.RunDue()).To(Equal(3))
		Expect(order).To(Equal([]string{"early", "tie", "late"}))
	})

	It("should pass the pump instant to callbacks", func() {
		var got time.Time
		e.After("a", time.Millisecond, func(now time.Time) { got = now })
		c.Advance(5 * time.Millisecond)
		e.RunDue()
		Expect(got).To(Equal(c.Now()))
	})

	It("should never run a canceled task", func() {
		ran := false
		task := e.After("a", time.Millisecond, func(time.Time) { ran = true })

		Expect(task.Pending()).To(BeTrue())
		Expect(task.Cancel()).To(BeTrue())
		Expect(task.Cancel()).To(BeFalse())
		Expect(task.Pending()).To(BeFalse())

		c.Advance(time.Second)
		Expect(e.RunDue()).To(Equal(0))
		Expect(ran).To(BeFalse())
		Expect(e.Len()).To(Equal(0))
	})

	It("should let a callback cancel a later task", func() {
		ran := false
		var later *engine.Task
		e.After("first", time.Millisecond, func(time.Time) { later.Cancel() })
		later = e.After("second", 2*time.Millisecond, func(time.Time) { ran = true })

		c.Advance(time.Second)
		Expect(e.RunDue()).To(Equal(1))
		Expect(ran).To(BeFalse())
	})

	It("should defer zero-delay reschedules to the next pump", func() {
		count := 0
		var tick func(time.Time)
		tick = func(time.Time) {
			count++
			e.After("tick", 0, tick)
		}
		e.After("tick", 0, tick)

		Expect(e.RunDue()).To(Equal(1))
		Expect(e.RunDue()).To(Equal(1))
		Expect(count).To(Equal(2))
		Expect(e.Len()).To(Equal(1))
	})

	It("should report the next pending deadline", func() {
		_, ok := e.NextDeadline()
		Expect(ok).To(BeFalse())

		a := e.After("a", time.Millisecond, func(time.Time) {})
		e.After("b", 3*time.Millisecond, func(time.Time) {})
		a.Cancel()

		d, ok := e.NextDeadline()
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal(c.Now().Add(3 * time.Millisecond)))
	})

	It("should treat a nil task as already canceled", func() {
		var t *engine.Task
		Expect(t.Cancel()).To(BeFalse())
		Expect(t.Pending()).To(BeFalse())
	})

	It("should return from Run once the queue is empty", func() {
		count := 0
		e.After("a", 0, func(time.Time) { count++ })
		e.After("b", 0, func(time.Time) { count++ })

		Expect(e.Run(context.Background())).To(Succeed())
		Expect(count).To(Equal(2))
	})

	It("should stop Run when the context is canceled", func() {
		wall := engine.NewSerial(clock.Real(), nil)
		wall.After("far", time.Hour, func(time.Time) {})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		Expect(wall.Run(ctx)).To(MatchError(context.DeadlineExceeded))
	})
})
