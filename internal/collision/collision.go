// Package collision implements the circle/AABB primitives the simulation
// step uses to resolve player-vs-tile overlap, ported from the original
// engine's collision.h.
package collision

import (
	"math"

	"github.com/duskreach/netplay/internal/mathutil"
	"github.com/duskreach/netplay/internal/worldmap"
)

// Result reports whether two shapes overlap and, if so, the minimum
// translation vector that separates them.
type Result struct {
	Colliding bool
	Resolve   mathutil.Vector2
}

// AABB is an axis-aligned box anchored at its minimum corner.
type AABB struct {
	Pos           mathutil.Vector2
	Width, Height float32
}

type Circle struct {
	Pos    mathutil.Vector2
	Radius float32
}

// CircleCircle resolves two overlapping circles, pushing c1 out of c0 along
// the line between their centers.
func CircleCircle(c0, c1 Circle) Result {
	radiusSum := c0.Radius + c1.Radius
	centerDiff := c1.Pos.Sub(c0.Pos)
	centerDiffLenSq := centerDiff.LengthSq()

	if centerDiffLenSq > radiusSum*radiusSum {
		return Result{}
	}

	centerDiffLen := float32(math.Sqrt(float64(centerDiffLenSq)))
	overlap := radiusSum - centerDiffLen

	return Result{
		Colliding: true,
		Resolve:   centerDiff.Scale(overlap / centerDiffLen),
	}
}

// AABBCircle resolves a circle against an axis-aligned box, returning the
// vector that moves the circle out of the box along the shortest path.
func AABBCircle(rect AABB, circle Circle) Result {
	nearest := mathutil.Vector2{
		X: mathutil.Clamp(circle.Pos.X, rect.Pos.X, rect.Pos.X+rect.Width),
		Y: mathutil.Clamp(circle.Pos.Y, rect.Pos.Y, rect.Pos.Y+rect.Height),
	}
	nearest = nearest.Sub(circle.Pos)
	distSq := nearest.LengthSq()

	if circle.Radius*circle.Radius < distSq {
		return Result{}
	}

	dist := float32(math.Sqrt(float64(distSq)))
	if dist == 0 {
		// Circle center exactly on the box boundary/interior: push straight
		// up as a degenerate but still deterministic resolution.
		return Result{Colliding: true, Resolve: mathutil.Vector2{X: 0, Y: -circle.Radius}}
	}

	return Result{
		Colliding: true,
		Resolve:   nearest.Scale(-(circle.Radius - dist) / dist),
	}
}

// RayAABB intersects a ray against a box and returns the hit point on its
// boundary. It is a direct port of the original engine's nearest-edge ray
// cast, used for line-of-sight and aim-assist queries.
func RayAABB(pos, dir mathutil.Vector2, rect AABB) (mathutil.Vector2, bool) {
	x0, x1 := rect.Pos.X, rect.Pos.X+rect.Width
	y0, y1 := rect.Pos.Y, rect.Pos.Y+rect.Height

	distX0 := absf(x0 - pos.X)
	distX1 := absf(x1 - pos.X)
	distY0 := absf(y0 - pos.Y)
	distY1 := absf(y1 - pos.Y)

	x := x1
	if distX0 < distX1 {
		x = x0
	}
	y := y1
	if distY0 < distY1 {
		y = y0
	}

	if (mathutil.Vector2{X: x - pos.X, Y: y - pos.Y}).Dot(dir) <= 0 {
		return mathutil.Vector2{}, false
	}

	hitLineY := pos.Y + (dir.Y/dir.X)*absf(x-pos.X)
	hitLineX := pos.X + (dir.X/dir.Y)*absf(y-pos.Y)

	hitX := hitLineX <= x1 && hitLineX >= x0
	hitY := hitLineY <= y1 && hitLineY >= y0

	switch {
	case hitX:
		return mathutil.Vector2{X: hitLineX, Y: y}, true
	case hitY:
		return mathutil.Vector2{X: x, Y: hitLineY}, true
	default:
		return mathutil.Vector2{}, false
	}
}

func absf(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// RaycastGrid walks dir from pos across m's tile grid using a DDA stepper
// until it hits a stone tile or leaves the grid, returning the displacement
// along dir to the hit point. dir must already be a unit vector. This is a
// general-purpose collision query (not tied to any gameplay feature) kept
// from the original engine's raycast_grid for future line-of-sight and
// aim-assist use.
func RaycastGrid(m *worldmap.Map, pos, dir mathutil.Vector2) mathutil.Vector2 {
	i, j := m.Coord(pos)
	if !m.InBounds(i, j) {
		return mathutil.Vector2{}
	}

	signX := float32(-1)
	if dir.X > 0 {
		signX = 1
	}
	signY := float32(-1)
	if dir.Y > 0 {
		signY = 1
	}

	tileOffsetX := float32(0)
	if dir.X > 0 {
		tileOffsetX = 1
	}
	tileOffsetY := float32(0)
	if dir.Y > 0 {
		tileOffsetY = 1
	}

	tileSize := m.TileSize()
	origin := m.Origin()

	var t float32
	dtx := ((float32(i)+tileOffsetX)*tileSize - pos.X + origin.X) / dir.X
	dty := ((float32(j)+tileOffsetY)*tileSize - pos.Y + origin.Y) / dir.Y

	for m.InBounds(i, j) {
		if m.TileAt(i, j) == worldmap.TileStone {
			break
		}

		if dtx < dty {
			i += int(signX)
			dt := dtx
			t += dt
			dtx += signX*tileSize/dir.X - dt
			dty -= dt
		} else {
			j += int(signY)
			dt := dty
			t += dt
			dtx -= dt
			dty += signY*tileSize/dir.Y - dt
		}
	}

	return dir.Scale(t)
}
