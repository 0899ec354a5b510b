package router

import (
	"context"

	"github.com/adityaadep2008/TrioAgent/pkg/task"
)

// Exclusive serializes every dispatch and baseline reset on one device.
// The server wraps the router with it so chat sessions and queued missions
// never drive the device at the same time. Hold keeps the device for a whole
// multi-step workflow.
type Exclusive struct {
	slot chan struct{}
	next Dispatcher
}

// Holder is implemented by dispatchers that can reserve the device for a
// sequence of dispatches.
type Holder interface {
	Hold(ctx context.Context, fn func(ctx context.Context) error) error
}

type holdKey struct{ e *Exclusive }

// NewExclusive wraps d.
func NewExclusive(d Dispatcher) *Exclusive {
	return &Exclusive{slot: make(chan struct{}, 1), next: d}
}

// Hold waits for the device and keeps it until fn returns. Dispatches made
// with the context passed to fn go straight through; everyone else waits.
// Nested holds on the same context do not wait again.
func (e *Exclusive) Hold(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.held(ctx) {
		return fn(ctx)
	}
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()
	return fn(context.WithValue(ctx, holdKey{e}, true))
}

// Dispatch waits for the device, then forwards. A context that ends while
// waiting yields an engine failure without touching the device.
func (e *Exclusive) Dispatch(ctx context.Context, goal task.Goal, opts ...Option) task.Result {
	if e.held(ctx) {
		return e.next.Dispatch(ctx, goal, opts...)
	}
	if err := e.acquire(ctx); err != nil {
		return task.Fail(task.ReasonEngine, "device busy: "+err.Error(), "")
	}
	defer e.release()
	return e.next.Dispatch(ctx, goal, opts...)
}

// ResetBaseline waits for the device, then forwards.
func (e *Exclusive) ResetBaseline(ctx context.Context) task.Result {
	if e.held(ctx) {
		return e.next.ResetBaseline(ctx)
	}
	if err := e.acquire(ctx); err != nil {
		return task.Fail(task.ReasonEngine, "device busy: "+err.Error(), "")
	}
	defer e.release()
	return e.next.ResetBaseline(ctx)
}

func (e *Exclusive) held(ctx context.Context) bool {
	v, _ := ctx.Value(holdKey{e}).(bool)
	return v
}

func (e *Exclusive) acquire(ctx context.Context) error {
	select {
	case e.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Exclusive) release() { <-e.slot }
