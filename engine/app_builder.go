package engine

import (
	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/schedule"
	"github.com/lixenwraith/stagecraft/status"
)

// AppBuilder collects named stage builders and produces an App
type AppBuilder struct {
	stages []*StageBuilder
	names  map[string]*StageBuilder
	opts   options
}

// NewAppBuilder creates an empty AppBuilder
func NewAppBuilder(opts ...Option) *AppBuilder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.world == nil {
		o.world = ecs.NewWorld()
	}
	if o.resources == nil {
		o.resources = ecs.NewResources()
	}
	if o.status == nil {
		o.status = status.NewRegistry()
	}

	return &AppBuilder{
		stages: make([]*StageBuilder, 0, 4),
		names:  make(map[string]*StageBuilder),
		opts:   o,
	}
}

// Configure applies options after construction
// Used when the AppBuilder was created implicitly by StageBuilder.IntoAppBuilder
func (ab *AppBuilder) Configure(opts ...Option) *AppBuilder {
	for _, opt := range opts {
		opt(&ab.opts)
	}
	return ab
}

// CreateStageBuilder registers and returns a new stage builder
// On a name collision returns *DuplicateNameError holding an unbound builder with the
// requested name and frequency, which the caller may rename and pass to AddStage
func (ab *AppBuilder) CreateStageBuilder(name string, frequency uint32) (*StageBuilder, error) {
	b := NewStageBuilder(name, frequency)
	if err := ab.AddStage(b); err != nil {
		return nil, err
	}
	return b, nil
}

// AddStage registers an unbound stage builder
// On a name collision returns *DuplicateNameError holding b untouched
func (ab *AppBuilder) AddStage(b *StageBuilder) error {
	if b == nil {
		return ErrNilStage
	}
	if b.parent == ab {
		return nil
	}
	if b.parent != nil {
		return ErrBuilderBound
	}
	if _, exists := ab.names[b.name]; exists {
		return &DuplicateNameError{Name: b.name, Builder: b}
	}

	b.parent = ab
	ab.stages = append(ab.stages, b)
	ab.names[b.name] = b
	return nil
}

// StageBuilder returns the registered builder for name
func (ab *AppBuilder) StageBuilder(name string) (*StageBuilder, bool) {
	b, ok := ab.names[name]
	return b, ok
}

// Names returns registered stage names in registration order
func (ab *AppBuilder) Names() []string {
	names := make([]string, len(ab.stages))
	for i, b := range ab.stages {
		names[i] = b.name
	}
	return names
}

// World returns the world the App will own
func (ab *AppBuilder) World() *ecs.World { return ab.opts.world }

// Resources returns the resource map the App will own
func (ab *AppBuilder) Resources() *ecs.Resources { return ab.opts.resources }

// Status returns the metric registry the App will publish to
func (ab *AppBuilder) Status() *status.Registry { return ab.opts.status }

// Build produces an App; stages keep registration order within the busy set and the spare pool
func (ab *AppBuilder) Build() *App {
	o := ab.opts
	queue := NewCommandQueue()

	app := &App{
		world:     o.world,
		resources: o.resources,
		queue:     queue,
		settings:  newSettings(queue),
		exec: schedule.NewExecutor(
			schedule.WithWorkers(o.workers),
			schedule.WithExecutorLogger(o.log),
		),
		clock:   o.clock,
		log:     o.log,
		status:  o.status,
		maxIdle: o.maxIdle,
		stats:   make(map[*Stage]*stageStats),
	}

	for _, b := range ab.stages {
		st := b.Build(o.clock)
		if b.spare {
			app.spare = append(app.spare, st)
		} else {
			app.busy = append(app.busy, st)
		}
	}

	app.initMetrics()
	// Requests may be queued between Build and Run
	app.refreshSettings()
	return app
}
