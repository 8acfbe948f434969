package collision

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/duskreach/netplay/internal/mathutil"
)

func TestAABBCircle(t *testing.T) {
	Convey("Given a unit box at the origin", t, func() {
		box := AABB{Pos: mathutil.Vector2{X: 0, Y: 0}, Width: 1, Height: 1}

		Convey("A circle far away does not collide", func() {
			r := AABBCircle(box, Circle{Pos: mathutil.Vector2{X: 10, Y: 10}, Radius: 0.25})
			So(r.Colliding, ShouldBeFalse)
		})

		Convey("A circle overlapping the box's left edge resolves leftward", func() {
			r := AABBCircle(box, Circle{Pos: mathutil.Vector2{X: -0.1, Y: 0.5}, Radius: 0.25})
			So(r.Colliding, ShouldBeTrue)
			So(r.Resolve.X, ShouldBeLessThan, 0)
		})

		Convey("Wall stop: a player approaching from the right is pushed out along X", func() {
			// Stone tile spans [-1, 0]; player radius 0.25 overlapping its
			// right edge must end up with pos.x >= 0 + 0.25 - eps (spec §8
			// scenario 2, mirrored onto a box at the origin).
			wall := AABB{Pos: mathutil.Vector2{X: -1, Y: -0.5}, Width: 1, Height: 1}
			circle := Circle{Pos: mathutil.Vector2{X: 0.1, Y: 0}, Radius: 0.25}
			r := AABBCircle(wall, circle)
			So(r.Colliding, ShouldBeTrue)
			resolved := circle.Pos.Add(r.Resolve)
			So(resolved.X, ShouldBeGreaterThanOrEqualTo, float32(0+0.25-1e-3))
		})
	})
}

func TestCircleCircle(t *testing.T) {
	Convey("Given two overlapping circles", t, func() {
		c0 := Circle{Pos: mathutil.Vector2{X: 0, Y: 0}, Radius: 1}
		c1 := Circle{Pos: mathutil.Vector2{X: 1, Y: 0}, Radius: 1}

		Convey("CircleCircle reports a collision with a resolve vector pointing from c0 to c1", func() {
			r := CircleCircle(c0, c1)
			So(r.Colliding, ShouldBeTrue)
			So(r.Resolve.X, ShouldBeGreaterThan, 0)
		})

		Convey("Two circles far apart do not collide", func() {
			r := CircleCircle(c0, Circle{Pos: mathutil.Vector2{X: 100, Y: 100}, Radius: 1})
			So(r.Colliding, ShouldBeFalse)
		})
	})
}
