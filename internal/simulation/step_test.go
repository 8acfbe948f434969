package simulation_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/duskreach/netplay/internal/mathutil"
	"github.com/duskreach/netplay/internal/simulation"
	"github.com/duskreach/netplay/internal/worldmap"
)

// inputSequence is a fixed, arbitrary sequence exercising walking, aiming,
// and dodging, used by the determinism law test below.
func inputSequence() []simulation.Input {
	aimA := mathutil.Vector2{X: 1, Y: 0}
	aimB := mathutil.Vector2{X: 0, Y: 1}
	return []simulation.Input{
		{Aim: aimA, MoveRight: true},
		{Aim: aimA, MoveRight: true},
		{Aim: aimA, MoveRight: true, Dodge: true},
		{Aim: aimA},
		{Aim: aimA},
		{Aim: aimB, MoveDown: true},
		{Aim: aimB, MoveDown: true},
		{Aim: aimB},
		{Aim: aimB},
		{Aim: aimA, MoveLeft: true},
	}
}

func runSequence(g *simulation.Game, p *simulation.Player, seq []simulation.Input) {
	for _, in := range seq {
		simulation.Step(g, p, in, simulation.DtNominal, false)
	}
}

// TestDeterminism is the hard requirement of spec §8: re-running the exact
// same input sequence on independent copies of the same starting state
// must produce bit-identical (within epsilon) results.
func TestDeterminism(t *testing.T) {
	Convey("Given two independent copies of the same game and player", t, func() {
		g := simulation.NewGame(worldmap.DefaultMap())
		p0 := simulation.NewPlayer()
		p0.Pos = mathutil.Vector2{X: 0, Y: 0}
		p1 := p0

		seq := inputSequence()

		Convey("Running the same input sequence on both yields equal results", func() {
			runSequence(g, &p0, seq)
			runSequence(g, &p1, seq)

			So(p0.Pos.Equal(p1.Pos), ShouldBeTrue)
			So(p0.Velocity.Equal(p1.Velocity), ShouldBeTrue)
			So(p0.State, ShouldEqual, p1.State)
			So(mathutil.FloatEqual(p0.TimeLeftInDodge, p1.TimeLeftInDodge), ShouldBeTrue)
			So(mathutil.FloatEqual(p0.TimeLeftInDodgeDelay, p1.TimeLeftInDodgeDelay), ShouldBeTrue)
		})

		Convey("Running it a third time after a longer pause since constructed still matches", func() {
			p2 := simulation.NewPlayer()
			p2.Pos = mathutil.Vector2{X: 0, Y: 0}
			runSequence(g, &p0, seq)
			runSequence(g, &p2, seq)
			So(p0.Pos.Equal(p2.Pos), ShouldBeTrue)
		})
	})
}

// TestWallStop is boundary scenario 2 from spec §8: a player approaching a
// stone tile at speed must never penetrate it. The approach is head-on, so
// only the position bound is asserted here.
func TestWallStop(t *testing.T) {
	Convey("Given a player approaching the west wall faster than max walk speed", t, func() {
		g := simulation.NewGame(worldmap.DefaultMap())
		p := simulation.NewPlayer()
		p.Pos = mathutil.Vector2{X: -6.5, Y: 0}
		p.Velocity = mathutil.Vector2{X: -6, Y: 0}

		for i := 0; i < 5; i++ {
			simulation.Step(g, &p, simulation.Input{Aim: mathutil.Vector2{X: -1, Y: 0}, MoveLeft: true}, simulation.DtNominal, false)
		}

		Convey("the player never penetrates the west wall (column 0 spans [-8,-7])", func() {
			So(p.Pos.X, ShouldBeGreaterThanOrEqualTo, float32(-7+0.25-1e-3))
		})
	})
}

// TestDodgeIntoWall is boundary scenario 3 from spec §8.
func TestDodgeIntoWall(t *testing.T) {
	Convey("Given a player dodging toward a stone tile 0.3 units away", t, func() {
		g := simulation.NewGame(worldmap.DefaultMap())
		p := simulation.NewPlayer()
		p.Pos = mathutil.Vector2{X: -6.7, Y: 0}

		aim := mathutil.Vector2{X: -1, Y: 0}
		simulation.Step(g, &p, simulation.Input{Aim: aim, Dodge: true}, simulation.DtNominal, false)

		for i := 0; i < 10 && p.State == simulation.StateSliding; i++ {
			simulation.Step(g, &p, simulation.Input{Aim: aim}, simulation.DtNominal, false)
		}

		Convey("contact cancels the slide and starts the dodge delay", func() {
			So(p.State, ShouldEqual, simulation.StateDefault)
			So(p.TimeLeftInDodge, ShouldEqual, float32(0))
			So(p.TimeLeftInDodgeDelay, ShouldEqual, float32(1.0))
		})
	})
}

// TestDodgeInitiation exercises §4.1 step 3 directly: pressing Dodge while
// Default and off cooldown must enter Sliding and redirect existing speed
// along the look direction.
func TestDodgeInitiation(t *testing.T) {
	Convey("Given a stationary player with Dodge pressed", t, func() {
		g := simulation.NewGame(worldmap.DefaultMap())
		p := simulation.NewPlayer()
		p.Pos = mathutil.Vector2{X: 0, Y: 0}

		simulation.Step(g, &p, simulation.Input{Aim: mathutil.Vector2{X: 1, Y: 0}, Dodge: true}, simulation.DtNominal, false)

		Convey("the player enters Sliding with a 0.10s dodge timer", func() {
			So(p.State, ShouldEqual, simulation.StateSliding)
			So(p.TimeLeftInDodge, ShouldBeLessThanOrEqualTo, float32(0.10))
			So(p.TimeLeftInDodge, ShouldBeGreaterThan, float32(0))
		})
	})

	Convey("Given a player mid dodge-delay, Dodge is ignored", t, func() {
		g := simulation.NewGame(worldmap.DefaultMap())
		p := simulation.NewPlayer()
		p.TimeLeftInDodgeDelay = 0.5

		simulation.Step(g, &p, simulation.Input{Aim: mathutil.Vector2{X: 1, Y: 0}, Dodge: true}, simulation.DtNominal, false)

		So(p.State, ShouldEqual, simulation.StateDefault)
	})
}

// TestWalkingSpeedCap exercises §4.1 step 5's speed cap.
func TestWalkingSpeedCap(t *testing.T) {
	Convey("Given a player holding a movement key for many ticks", t, func() {
		g := simulation.NewGame(worldmap.DefaultMap())
		p := simulation.NewPlayer()

		for i := 0; i < 600; i++ {
			simulation.Step(g, &p, simulation.Input{Aim: mathutil.Vector2{X: 1, Y: 0}, MoveRight: true}, simulation.DtNominal, false)
		}

		Convey("speed never exceeds the 5 units/s walking cap", func() {
			So(p.Velocity.Length(), ShouldBeLessThanOrEqualTo, float32(5+1e-3))
		})
	})
}
