package ecs

import (
	"reflect"

	"github.com/lixenwraith/stagecraft/core"
)

// Bundle writes one component onto an entity
// Heterogeneous component sets are passed to Spawn/Extend as a Bundle list
type Bundle func(w *World, e core.Entity)

// With wraps a component value as a Bundle
//
// Example:
//
//	e := world.Spawn(ecs.With(Position{X: 1}), ecs.With(Velocity{DX: 2}))
func With[T any](val T) Bundle {
	return func(w *World, e core.Entity) {
		StoreOf[T](w).Set(e, val)
	}
}

// TypeOf returns the reflect.Type used as key for T in stores, resources and access sets
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
