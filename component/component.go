// Package component holds the plain data types attached to demo entities
package component

import "github.com/gdamore/tcell/v2"

// Position is a sub-cell position in screen coordinates
type Position struct {
	X, Y float64
}

// Cell returns the integer screen cell
func (p Position) Cell() (int, int) {
	return int(p.X), int(p.Y)
}

// Velocity is expressed in cells per second
type Velocity struct {
	DX, DY float64
}

// Glyph is the visual of an entity
type Glyph struct {
	Rune  rune
	Style tcell.Style
}

// Spawned marks entities created by the runtime spawner stage, with the spawner tick that created them
type Spawned struct {
	Tick uint64
}
