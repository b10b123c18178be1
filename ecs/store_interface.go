package ecs

import "github.com/lixenwraith/stagecraft/core"

// AnyStore provides type-erased operations for lifecycle management
// Lets World despawn entities without knowing concrete component types
type AnyStore interface {
	Remove(e core.Entity)
	Has(e core.Entity) bool
	Count() int
	Clear()
	All() []core.Entity
}

var _ AnyStore = (*Store[struct{}])(nil)
