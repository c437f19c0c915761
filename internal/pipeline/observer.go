package pipeline

import (
	"context"
	"time"
)

// Transition describes one state change of a run.
type Transition struct {
	// RunID is the caller-supplied identifier of the run, if any.
	RunID string
	From  State
	To    State
	// Elapsed is the time spent in From.
	Elapsed time.Duration
	// Err is set when To is StateFailed.
	Err error
}

// Observer is notified of every transition. Observers are called
// synchronously from the run goroutine and must not block.
type Observer interface {
	OnTransition(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

// OnTransition implements Observer.
func (f ObserverFunc) OnTransition(ctx context.Context, t Transition) {
	f(ctx, t)
}
