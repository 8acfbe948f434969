package simulation

import "github.com/duskreach/netplay/internal/mathutil"

// Input is one frame's worth of local player intent: an aim direction plus
// the action buttons. It is serialised inline on the wire, so field order
// here mirrors the wire layout in internal/protocol.
type Input struct {
	Aim        mathutil.Vector2
	MoveUp     bool
	MoveDown   bool
	MoveLeft   bool
	MoveRight  bool
	Dodge      bool
	Shoot      bool
	Quit       bool
}

// moveVector returns the raw (unnormalized) WASD direction implied by the
// held movement buttons.
func (in Input) moveVector() mathutil.Vector2 {
	dx := b2f(in.MoveRight) - b2f(in.MoveLeft)
	dy := b2f(in.MoveDown) - b2f(in.MoveUp)
	return mathutil.Vector2{X: dx, Y: dy}
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
