package engine

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/stagecraft/ecs"
	"github.com/lixenwraith/stagecraft/status"
)

// DefaultMaxIdle caps a single idle wait of the run loop
const DefaultMaxIdle = 100 * time.Millisecond

type options struct {
	clock     TimeProvider
	log       logrus.FieldLogger
	workers   int
	maxIdle   time.Duration
	status    *status.Registry
	world     *ecs.World
	resources *ecs.Resources
}

func defaultOptions() options {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return options{
		clock:   NewMonotonicTimeProvider(),
		log:     quiet,
		maxIdle: DefaultMaxIdle,
	}
}

// Option configures an AppBuilder
type Option func(*options)

// WithClock sets the time source of every stage timer and the idle wait
func WithClock(clock TimeProvider) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithWorkers bounds the parallel phase worker pool; n <= 0 selects GOMAXPROCS
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithMaxIdle caps the idle wait between passes; d <= 0 disables idling
func WithMaxIdle(d time.Duration) Option {
	return func(o *options) { o.maxIdle = d }
}

// WithStatus publishes engine metrics into reg instead of a private registry
func WithStatus(reg *status.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.status = reg
		}
	}
}

// WithWorld runs the App against an existing world
func WithWorld(w *ecs.World) Option {
	return func(o *options) {
		if w != nil {
			o.world = w
		}
	}
}

// WithResources runs the App against an existing resource map
func WithResources(res *ecs.Resources) Option {
	return func(o *options) {
		if res != nil {
			o.resources = res
		}
	}
}
