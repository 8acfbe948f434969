package simulation

import "github.com/duskreach/netplay/internal/mathutil"

// MaxClients bounds the number of simultaneous connected players; a
// player/peer's index into the fixed-size slot array is its identity for
// the lifetime of the connection (see internal/session).
const MaxClients = 128

// State is the player's locomotion state machine.
type State uint8

const (
	StateDefault State = iota
	StateSliding
)

// Player is the authoritative-or-predicted state of one occupant of a Game.
// It is a plain value type serialised inline on the wire (internal/protocol
// mirrors this field order exactly). Only Step mutates its fields; outside
// the simulation step it is only replaced as a whole value, so
// reconciliation can always reason about it as one atomic snapshot.
type Player struct {
	Occupied bool

	Pos      mathutil.Vector2
	Velocity mathutil.Vector2

	Dodge mathutil.Vector2
	Look  mathutil.Vector2

	TimeLeftInDodge      float32
	TimeLeftInDodgeDelay float32
	TimeLeftInShootDelay float32

	Hue float32

	Health float32

	State State
}

// NewPlayer resets a slot to the connect-time defaults the session manager
// assigns every freshly connected peer (see §4.7).
func NewPlayer() Player {
	return Player{
		Occupied: true,
		Pos:      mathutil.Vector2{},
		Hue:      20,
		Health:   100,
	}
}

// PositionEqual compares position within the determinism/reconciliation epsilon;
// used by the client to decide whether a replay diverged from AUTH.
func (p Player) PositionEqual(o Player) bool {
	return p.Pos.Equal(o.Pos)
}
