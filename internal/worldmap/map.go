// Package worldmap holds the static tile grid the simulation collides
// players against: a fixed-size byte grid, immutable once built.
package worldmap

import (
	"fmt"

	"github.com/duskreach/netplay/internal/mathutil"
)

// Tile identifies what occupies a grid cell.
type Tile byte

const (
	TileInvalid Tile = 0
	TileGrass   Tile = ' '
	TileStone   Tile = '#'
)

// Map is a fixed tile grid addressed in world-space via Origin/TileSize.
// It is immutable after NewMap returns; the simulation step only ever reads
// it.
type Map struct {
	data     []Tile
	width    int
	height   int
	tileSize float32
	origin   mathutil.Vector2
}

// NewMap builds a Map from row-major tile data. Returns an error if rows is
// not exactly width*height bytes, or contains a byte that isn't grass or
// stone.
func NewMap(rows string, width, height int, tileSize float32, origin mathutil.Vector2) (*Map, error) {
	if len(rows) != width*height {
		return nil, fmt.Errorf("worldmap: expected %d tiles, got %d", width*height, len(rows))
	}
	data := make([]Tile, len(rows))
	for i := 0; i < len(rows); i++ {
		t := Tile(rows[i])
		if t != TileGrass && t != TileStone {
			return nil, fmt.Errorf("worldmap: invalid tile byte %q at index %d", rows[i], i)
		}
		data[i] = t
	}
	return &Map{data: data, width: width, height: height, tileSize: tileSize, origin: origin}, nil
}

func (m *Map) Width() int          { return m.width }
func (m *Map) Height() int         { return m.height }
func (m *Map) TileSize() float32   { return m.tileSize }
func (m *Map) Origin() mathutil.Vector2 { return m.origin }

// Coord converts a world-space position into tile grid coordinates.
func (m *Map) Coord(at mathutil.Vector2) (i, j int) {
	i = int((at.X - m.origin.X) / m.tileSize)
	j = int((at.Y - m.origin.Y) / m.tileSize)
	return i, j
}

func (m *Map) InBounds(i, j int) bool {
	return i >= 0 && i < m.width && j >= 0 && j < m.height
}

// At returns the tile occupying the cell containing the given world-space
// position, or TileInvalid if out of bounds.
func (m *Map) At(at mathutil.Vector2) Tile {
	i, j := m.Coord(at)
	return m.TileAt(i, j)
}

// TileAt returns the tile at grid coordinates (i, j), or TileInvalid if out
// of bounds.
func (m *Map) TileAt(i, j int) Tile {
	if !m.InBounds(i, j) {
		return TileInvalid
	}
	return m.data[j*m.width+i]
}

// TileOrigin returns the world-space minimum corner of the cell at (i, j).
func (m *Map) TileOrigin(i, j int) mathutil.Vector2 {
	return mathutil.Vector2{
		X: m.origin.X + float32(i)*m.tileSize,
		Y: m.origin.Y + float32(j)*m.tileSize,
	}
}

// DefaultMap is the 16x16 arena rising-sole ships, kept as the default
// world for both binaries and tests.
func DefaultMap() *Map {
	const layout = "" +
		"################" +
		"#              #" +
		"# ####         #" +
		"# #            #" +
		"# #            #" +
		"# #            #" +
		"#              #" +
		"#              #" +
		"#              #" +
		"#              #" +
		"#              #" +
		"#              #" +
		"#        #     #" +
		"#              #" +
		"#              #" +
		"################"
	m, err := NewMap(layout, 16, 16, 1.0, mathutil.Vector2{X: -8, Y: -8})
	if err != nil {
		panic(err)
	}
	return m
}
