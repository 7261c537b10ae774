// Package hooks implements the domain-event dispatcher. Side-effect handlers
// (inventory adjustments, notifications, audit writes) register per event
// kind; the dispatcher isolates their failures from the operation that fired
// the event.
//
// The dispatcher is an explicit instance wired in at construction time.
// There is no package-level registry, so tests can substitute a recording or
// no-op dispatcher freely.
package hooks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Kind names an event type. Kinds are declared next to their payload types
// in the domain packages that fire them.
type Kind string

// Event is a domain event payload tagged with its kind.
type Event interface {
	Kind() Kind
}

type registration struct {
	name string
	fn   func(ctx context.Context, e Event) error
}

// Dispatcher routes events to registered handlers. Handlers for one kind run
// in registration order; Dispatch returns only after all of them finish.
type Dispatcher struct {
	lg         *zap.Logger
	timeout    time.Duration
	concurrent bool

	mu       sync.RWMutex
	handlers map[Kind][]registration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each handler invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithConcurrency makes Dispatch fan handlers out in parallel instead of
// running them in registration order. Dispatch still waits for all of them.
func WithConcurrency() Option {
	return func(disp *Dispatcher) { disp.concurrent = true }
}

// NewDispatcher creates a Dispatcher that logs handler failures to lg.
func NewDispatcher(lg *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		lg:       lg,
		handlers: make(map[Kind][]registration),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// On registers fn for the event type E under the given handler name. The
// payload type is checked at compile time; a handler can only be registered
// for events it actually accepts.
func On[E Event](d *Dispatcher, name string, fn func(ctx context.Context, e E) error) {
	var zero E
	kind := zero.Kind()

	wrapped := func(ctx context.Context, e Event) error {
		ev, ok := e.(E)
		if !ok {
			// Unreachable unless two payload types share a Kind.
			return nil
		}
		return fn(ctx, ev)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], registration{name: name, fn: wrapped})
}

// Dispatch invokes every handler registered for the event's kind. A handler
// error or panic is logged with the event kind and handler name; it stops
// neither the remaining handlers nor the caller. Dispatch never returns an
// error: the state change that fired the event is already committed.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	d.mu.RLock()
	regs := d.handlers[e.Kind()]
	d.mu.RUnlock()

	if len(regs) == 0 {
		return
	}

	if d.concurrent {
		var g errgroup.Group
		for _, reg := range regs {
			g.Go(func() error {
				d.invoke(ctx, e, reg)
				return nil
			})
		}
		_ = g.Wait()
		return
	}

	for _, reg := range regs {
		d.invoke(ctx, e, reg)
	}
}

// invoke runs one handler with the configured timeout, converting panics and
// errors into log entries.
func (d *Dispatcher) invoke(ctx context.Context, e Event, reg registration) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.lg.Error("hook handler panicked",
				zap.String("event", string(e.Kind())),
				zap.String("handler", reg.name),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
		}
	}()

	if err := reg.fn(ctx, e); err != nil {
		d.lg.Error("hook handler failed",
			zap.String("event", string(e.Kind())),
			zap.String("handler", reg.name),
			zap.Error(err),
		)
	}
}
