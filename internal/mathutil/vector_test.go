package mathutil

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVector2(t *testing.T) {
	Convey("Given two Vector2 values", t, func() {
		a := Vector2{X: 3, Y: 4}
		b := Vector2{X: 1, Y: 2}

		Convey("Add and Sub are inverses", func() {
			So(a.Add(b).Sub(b), ShouldResemble, a)
		})

		Convey("Dot matches the algebraic definition", func() {
			So(a.Dot(b), ShouldEqual, float32(11))
		})

		Convey("Length of a 3-4-5 triangle vector is 5", func() {
			So(a.Length(), ShouldEqual, float32(5))
		})

		Convey("Normalize produces a unit vector", func() {
			n := a.Normalize()
			So(FloatEqual(n.Length(), 1), ShouldBeTrue)
		})

		Convey("Normalize of the zero vector is the zero vector", func() {
			So(Zero.Normalize(), ShouldResemble, Zero)
		})

		Convey("IsZero is true only for the zero vector", func() {
			So(Zero.IsZero(), ShouldBeTrue)
			So(a.IsZero(), ShouldBeFalse)
		})
	})

	Convey("Given Clamp", t, func() {
		So(Clamp(5, 0, 10), ShouldEqual, float32(5))
		So(Clamp(-1, 0, 10), ShouldEqual, float32(0))
		So(Clamp(11, 0, 10), ShouldEqual, float32(10))
	})

	Convey("Given FloatEqual at the epsilon boundary", t, func() {
		So(FloatEqual(1.0, 1.0+Epsilon/2), ShouldBeTrue)
		So(FloatEqual(1.0, 1.0+Epsilon*10), ShouldBeFalse)
	})
}
