package systems

import (
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/engine"
)

// InputFn publishes the frame's input snapshot and playfield bounds
// Registered as a thread-local closure: it replaces resources, which no parallel system may do
func InputFn(src InputSource) func(*ecs.World, *ecs.Resources) {
	return func(_ *ecs.World, res *ecs.Resources) {
		frame := ecs.MustGetResource[*engine.Settings](res).Frame() + 1
		in := src.Snapshot(frame)
		ecs.AddResource(res, in)

		if in.Width <= 0 || in.Height <= 0 {
			return
		}
		bounds, ok := ecs.GetResource[*Bounds](res)
		if !ok {
			bounds = &Bounds{}
			ecs.AddResource(res, bounds)
		}
		bounds.Width, bounds.Height = in.Width, in.Height
	}
}

