package simulation

import "github.com/duskreach/netplay/internal/worldmap"

// Game bundles the shared, read-only map with the mutable set of player
// slots. Index into Players is the peer identity; Occupied marks slots in
// use. Both client and server hold one Game each — the client's is a mirror
// that local prediction and server reconciliation keep converging toward
// the server's authoritative copy.
type Game struct {
	Map     *worldmap.Map
	Players [MaxClients]Player
}

// NewGame builds a Game over the given map with all player slots empty.
func NewGame(m *worldmap.Map) *Game {
	return &Game{Map: m}
}

// FirstFreeSlot returns the index of the first unoccupied player slot, or
// -1 if every slot is in use.
func (g *Game) FirstFreeSlot() int {
	for i := range g.Players {
		if !g.Players[i].Occupied {
			return i
		}
	}
	return -1
}
