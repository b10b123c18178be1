package engine

import "fmt"

// placementKind selects where an inserted or activated stage lands in the busy order
type placementKind uint8

const (
	placeTail placementKind = iota
	placeBefore
	placeAfter
)

// Placement positions a stage relative to a busy stage or at the tail
type Placement struct {
	kind placementKind
	ref  string
}

// AtTail places the stage after every busy stage
func AtTail() Placement { return Placement{kind: placeTail} }

// Before places the stage right before the busy stage ref
func Before(ref string) Placement { return Placement{kind: placeBefore, ref: ref} }

// After places the stage right after the busy stage ref
func After(ref string) Placement { return Placement{kind: placeAfter, ref: ref} }

// Ref returns the reference stage name, empty for AtTail
func (p Placement) Ref() string { return p.ref }

func (p Placement) String() string {
	switch p.kind {
	case placeBefore:
		return "before " + p.ref
	case placeAfter:
		return "after " + p.ref
	default:
		return "at tail"
	}
}

// CommandKind tags a deferred scheduler mutation
type CommandKind uint8

const (
	CommandInsert   CommandKind = iota // New stage from a builder into the busy set
	CommandActivate                    // Spare stage into the busy set
	CommandRetire                      // Busy stage into the spare pool
	CommandRetime                      // Frequency change of a busy or spare stage
	CommandQuit                        // Terminate after the current pass
)

func (k CommandKind) String() string {
	switch k {
	case CommandInsert:
		return "insert"
	case CommandActivate:
		return "activate"
	case CommandRetire:
		return "retire"
	case CommandRetime:
		return "retime"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Command is one queued mutation, consumed exactly once by the App apply step
type Command struct {
	Seq       uint64 // Assigned by the queue, FIFO order
	Kind      CommandKind
	Name      string
	Placement Placement
	Ticks     uint32

	builder *StageBuilder // CommandInsert only
}

func (c Command) String() string {
	switch c.Kind {
	case CommandInsert, CommandActivate:
		return fmt.Sprintf("%s(%s %s)", c.Kind, c.Name, c.Placement)
	case CommandRetime:
		return fmt.Sprintf("retime(%s to %d/s)", c.Name, c.Ticks)
	case CommandQuit:
		return "quit"
	default:
		return fmt.Sprintf("%s(%s)", c.Kind, c.Name)
	}
}

// CommandResult is the outcome of applying one command
type CommandResult struct {
	Command Command
	Err     error
}

// OK reports whether the command was applied
func (r CommandResult) OK() bool { return r.Err == nil }
