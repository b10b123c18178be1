package schedule

import (
	"reflect"
	"sort"
	"strings"

	"github.com/lixenwraith/stagecraft/ecs"
)

// keyKind separates component types from resource types sharing one Go type
type keyKind uint8

const (
	keyComponent keyKind = iota
	keyResource
)

type accessKey struct {
	kind keyKind
	typ  reflect.Type
}

func (k accessKey) String() string {
	if k.kind == keyResource {
		return "resource " + k.typ.String()
	}
	return "component " + k.typ.String()
}

// Access is the declared capability set of a system
// Write access implies read access
type Access struct {
	reads  map[accessKey]struct{}
	writes map[accessKey]struct{}
}

// AccessOption adds one capability to an Access
type AccessOption func(*Access)

// NewAccess builds an Access from options
func NewAccess(opts ...AccessOption) Access {
	a := Access{
		reads:  make(map[accessKey]struct{}),
		writes: make(map[accessKey]struct{}),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Reads declares read access to component type T
func Reads[T any]() AccessOption {
	return func(a *Access) { a.reads[accessKey{keyComponent, ecs.TypeOf[T]()}] = struct{}{} }
}

// Writes declares write access to component type T
func Writes[T any]() AccessOption {
	return func(a *Access) { a.writes[accessKey{keyComponent, ecs.TypeOf[T]()}] = struct{}{} }
}

// ReadsResource declares read access to resource type T
func ReadsResource[T any]() AccessOption {
	return func(a *Access) { a.reads[accessKey{keyResource, ecs.TypeOf[T]()}] = struct{}{} }
}

// WritesResource declares write access to resource type T
func WritesResource[T any]() AccessOption {
	return func(a *Access) { a.writes[accessKey{keyResource, ecs.TypeOf[T]()}] = struct{}{} }
}

func (a *Access) canRead(k accessKey) bool {
	if _, ok := a.writes[k]; ok {
		return true
	}
	_, ok := a.reads[k]
	return ok
}

func (a *Access) canWrite(k accessKey) bool {
	_, ok := a.writes[k]
	return ok
}

// Conflicts reports whether two systems may not run concurrently:
// one writes a key the other reads or writes
func (a *Access) Conflicts(b *Access) bool {
	for k := range a.writes {
		if b.canRead(k) {
			return true
		}
	}
	for k := range b.writes {
		if a.canRead(k) {
			return true
		}
	}
	return false
}

// String lists the capabilities in a stable order, e.g. "r:component main.Pos w:resource *main.Log"
func (a *Access) String() string {
	parts := make([]string, 0, len(a.reads)+len(a.writes))
	for k := range a.writes {
		parts = append(parts, "w:"+k.String())
	}
	for k := range a.reads {
		if _, ok := a.writes[k]; ok {
			continue
		}
		parts = append(parts, "r:"+k.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
