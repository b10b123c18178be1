package systems

import (
	"math/rand/v2"

	"github.com/lixenwraith/stagecraft/component"
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/engine"
)

const (
	SpawnerRate = 4
	MaxSpawned  = 200
	spawnerSalt = 0x5bd1e995
)

// NewSpawnerStage builds the stage inserted at runtime by the control system
// Each tick adds one particle until MaxSpawned spawned particles exist; destroy removes them
func NewSpawnerStage(seed uint64) *engine.StageBuilder {
	var (
		rng   *rand.Rand
		ticks uint64
	)

	return engine.NewStageBuilder(StageSpawner, SpawnerRate).
		AddThreadLocalFnStartup(func(*ecs.World, *ecs.Resources) {
			rng = rand.New(rand.NewPCG(seed, seed^spawnerSalt))
		}).
		AddThreadLocalFnProcess(func(w *ecs.World, res *ecs.Resources) {
			ticks++
			if ecs.StoreOf[component.Spawned](w).Count() >= MaxSpawned {
				return
			}
			spawnParticle(w, rng, boundsOf(res), ecs.With(component.Spawned{Tick: ticks}))
		}).
		AddThreadLocalFnDestroy(func(w *ecs.World, _ *ecs.Resources) {
			for _, e := range ecs.StoreOf[component.Spawned](w).All() {
				w.Despawn(e)
			}
		})
}
