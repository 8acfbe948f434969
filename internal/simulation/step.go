package simulation

import (
	"math"

	"github.com/duskreach/netplay/internal/collision"
	"github.com/duskreach/netplay/internal/mathutil"
	"github.com/duskreach/netplay/internal/worldmap"
)

// DtNominal is the fixed timestep both client and server advance by; real
// wall-clock deviations are never fed into Step, only this constant, so
// that re-simulating a recorded input sequence is bit-identical regardless
// of the host's scheduling jitter.
const DtNominal = 1.0 / 60.0

const (
	moveAcceleration  = 0.5 / DtNominal
	maxMoveSpeed      = 5.0
	dodgeAcceleration = 1.0 / DtNominal
	dodgeDeceleration = 0.10 / DtNominal
	maxDodgeSpeed     = 10.0
	dodgeTime         = 0.10
	dodgeDelayTime    = 1.0
)

// tileOffsets is the 8-neighborhood the step checks for stone-tile overlap
// around the player's current cell, in the same order as the original
// engine so the iteration order of collision resolution (which matters when
// multiple tiles overlap in the same tick) stays identical.
var tileOffsets = [8]mathutil.Vector2{
	{X: +1, Y: 0},
	{X: +1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: -1},
	{X: -1, Y: 0},
	{X: -1, Y: +1},
	{X: 0, Y: +1},
	{X: +1, Y: +1},
}

const playerRadius = 0.25

// Step advances one player by one fixed tick given its input. It is a pure
// function of (g.Map, p, input, dt): the same starting player state and
// input sequence produce bit-identical results on any machine, which is the
// hard requirement reconciliation depends on (§4.1, §8's determinism law).
//
// replaying is carried through but currently suppresses nothing observable
// (projectile spawning is not implemented in this engine); side-effecting
// actions added later must gate on !replaying so client-side replay during
// reconciliation doesn't multiply them.
func Step(g *Game, p *Player, input Input, dt float32, replaying bool) {
	_ = replaying

	p.Look = input.Aim.Normalize()

	if p.TimeLeftInShootDelay > 0 {
		p.TimeLeftInShootDelay -= dt
		if p.TimeLeftInShootDelay <= 0 {
			p.TimeLeftInShootDelay = 0
		}
	}
	if p.TimeLeftInDodgeDelay > 0 {
		p.TimeLeftInDodgeDelay -= dt
		if p.TimeLeftInDodgeDelay <= 0 {
			p.TimeLeftInDodgeDelay = 0
		}
	}

	inDodge := p.State == StateSliding
	inDodgeDelay := p.TimeLeftInDodgeDelay > 0
	if !inDodgeDelay && !inDodge && input.Dodge {
		p.Dodge = p.Look
		p.TimeLeftInDodge = dodgeTime
		p.State = StateSliding

		// Redirect any existing speed into the dodge direction.
		speed := p.Velocity.Length()
		p.Velocity = p.Dodge.Scale(speed)
	}

	hasMoved := false

	if p.State == StateSliding {
		if p.TimeLeftInDodge > 0 {
			p.Velocity = p.Velocity.Add(p.Dodge.Scale(dt * dodgeAcceleration))
			speed := p.Velocity.Length()
			if speed > maxDodgeSpeed {
				p.Velocity = p.Velocity.Normalize().Scale(maxDodgeSpeed)
			}

			hasMoved = true

			p.TimeLeftInDodge -= dt
			if p.TimeLeftInDodge <= 0 {
				p.TimeLeftInDodge = 0
			}
		} else {
			slowdownDir := p.Velocity.Normalize().Neg()
			speed := p.Velocity.Length()
			if speed > 0 {
				slowdown := minf(speed, dt*dodgeDeceleration)
				if speed < dt*dodgeDeceleration {
					p.State = StateDefault
					p.TimeLeftInDodgeDelay = dodgeDelayTime
				}
				p.Velocity = p.Velocity.Add(slowdownDir.Scale(slowdown))
			}
		}
	}

	dv := input.moveVector()
	lenSq := dv.LengthSq()

	if p.State == StateSliding && p.TimeLeftInDodge == 0 {
		speed := p.Velocity.Length()
		if speed <= maxMoveSpeed && lenSq > 0 {
			p.State = StateDefault
			p.TimeLeftInDodgeDelay = dodgeDelayTime
		}
	}

	if p.State != StateSliding {
		if lenSq > 0 {
			length := sqrtf32(lenSq)
			p.Velocity = p.Velocity.Add(dv.Scale(dt * moveAcceleration / length))
			speed := p.Velocity.Length()
			if speed > maxMoveSpeed {
				p.Velocity = p.Velocity.Normalize().Scale(maxMoveSpeed)
			}
		} else {
			slowdownDir := p.Velocity.Normalize().Neg()
			speed := p.Velocity.Length()
			if speed > 0 {
				slowdown := minf(speed, dt*moveAcceleration)
				p.Velocity = p.Velocity.Add(slowdownDir.Scale(slowdown))
			}
		}
	}

	if !p.Velocity.IsZero() {
		p.Pos = p.Pos.Add(p.Velocity.Scale(dt))
		hasMoved = true
	}

	if !hasMoved {
		return
	}

	resolveCollisions(g.Map, p, inDodge)
}

func resolveCollisions(m *worldmap.Map, p *Player, inDodge bool) {
	for _, offset := range tileOffsets {
		at := p.Pos.Add(offset.Scale(m.TileSize()))
		if m.At(at) != worldmap.TileStone {
			continue
		}

		i, j := m.Coord(at)
		result := collision.AABBCircle(collision.AABB{
			Pos:    m.TileOrigin(i, j),
			Width:  m.TileSize(),
			Height: m.TileSize(),
		}, collision.Circle{
			Pos:    p.Pos,
			Radius: playerRadius,
		})

		if !result.Colliding || result.Resolve.IsZero() {
			continue
		}

		p.Pos = p.Pos.Add(result.Resolve)

		if inDodge {
			dot := p.Dodge.Dot(result.Resolve.Normalize())
			// resolve and dodge should point in opposite directions; -0.6
			// is a deliberately lenient threshold carried from the source
			// engine (feels better than the geometric -0.5 cutoff).
			if dot <= -0.6 {
				p.State = StateDefault
				p.TimeLeftInDodge = 0
				p.TimeLeftInDodgeDelay = dodgeDelayTime
			}
		}
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func sqrtf32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
