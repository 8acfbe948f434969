package scheduler_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/duskreach/netplay/internal/scheduler"
)

// fakeClock never actually sleeps; it just accumulates how long a real
// clock would have slept, so tests run instantly.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func TestStep(t *testing.T) {
	Convey("Given a Scheduler driven by a fake clock", t, func() {
		clk := &fakeClock{now: time.Unix(0, 0)}
		s := scheduler.New(60).WithClock(clk)

		Convey("Step always calls fn and sleeps out the remaining interval", func() {
			calls := 0
			s.Step(func() { calls++ })
			So(calls, ShouldEqual, 1)
			So(len(clk.slept), ShouldEqual, 1)
			So(clk.slept[0], ShouldEqual, s.Interval())
		})
	})
}

// TestStepAdjusted exercises the client clock-adjustment hook (§4.2): a
// positive amount stalls (no work, an extra interval of sleep, amount
// decremented by one); a negative amount speeds up (work happens, the
// end-of-tick sleep is skipped, amount incremented toward zero); zero runs
// normally.
func TestStepAdjusted(t *testing.T) {
	Convey("Given a Scheduler driven by a fake clock", t, func() {
		clk := &fakeClock{now: time.Unix(0, 0)}
		s := scheduler.New(60).WithClock(clk)

		Convey("A positive amount stalls: fn is skipped and a double interval is slept", func() {
			calls := 0
			next := s.StepAdjusted(2, func() { calls++ })
			So(calls, ShouldEqual, 0)
			So(next, ShouldEqual, int8(1))
			So(clk.slept, ShouldResemble, []time.Duration{2 * s.Interval()})
		})

		Convey("A negative amount speeds up: fn runs but the trailing sleep is skipped", func() {
			calls := 0
			next := s.StepAdjusted(-2, func() { calls++ })
			So(calls, ShouldEqual, 1)
			So(next, ShouldEqual, int8(-1))
			So(len(clk.slept), ShouldEqual, 0)
		})

		Convey("Zero runs normally: fn runs and the full interval is slept", func() {
			calls := 0
			next := s.StepAdjusted(0, func() { calls++ })
			So(calls, ShouldEqual, 1)
			So(next, ShouldEqual, int8(0))
			So(len(clk.slept), ShouldEqual, 1)
		})

		Convey("Repeated positive steps walk the amount down to zero", func() {
			amount := int8(3)
			stalls := 0
			for amount > 0 {
				amount = s.StepAdjusted(amount, func() { t.Fatal("fn must not run during a stall") })
				stalls++
			}
			So(stalls, ShouldEqual, 3)
			So(amount, ShouldEqual, int8(0))
		})
	})
}
