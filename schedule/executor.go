package schedule

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/stagecraft/ecs"
)

// Executor is the worker pool for the parallel phase of schedules
// Goroutines are bounded by the worker limit; panics are recovered and converted to errors
type Executor struct {
	workers int
	log     logrus.FieldLogger
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithWorkers bounds concurrent systems; n <= 0 selects GOMAXPROCS
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithExecutorLogger sets the logger receiving recovered panic reports
func WithExecutorLogger(log logrus.FieldLogger) ExecutorOption {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// NewExecutor creates a pool sized to available hardware parallelism unless overridden
func NewExecutor(opts ...ExecutorOption) *Executor {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Executor{
		workers: runtime.GOMAXPROCS(0),
		log:     quiet,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the concurrency limit
func (e *Executor) Workers() int { return e.workers }

// runBatch runs mutually non-conflicting systems and joins before returning
func (e *Executor) runBatch(batch []System, world *ecs.World, res *ecs.Resources) error {
	if len(batch) == 1 || e.workers == 1 {
		for i := range batch {
			sys := &batch[i]
			if err := e.runInline(sys.name, func() { sys.run(newContext(sys, world, res)) }); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range batch {
		sys := &batch[i]
		g.Go(func() error {
			return e.runInline(sys.name, func() { sys.run(newContext(sys, world, res)) })
		})
	}
	return g.Wait()
}

// runInline runs fn on the calling goroutine, converting a panic into an error
func (e *Executor) runInline(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{
				"system":      name,
				"panic":       r,
				"stack_trace": string(debug.Stack()),
			}).Error("system panic recovered")
			err = fmt.Errorf("%w: %s: %v", ErrSystemPanic, name, r)
		}
	}()
	fn()
	return nil
}
