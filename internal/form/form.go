// Package form models a client submitting a flow: one outstanding call at a time,
// with loading and error states observers can follow.
package form

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by Submit while a submission is in flight.
var ErrBusy = errors.New("form: submission already in progress")

// ErrAborted is the failure recorded when run panics or exits its goroutine.
var ErrAborted = errors.New("form: submission aborted")

// Status is the form's position in its state machine.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// State is a snapshot of a form. Output is set only when Status is StatusSucceeded
// and Err only when it is StatusFailed.
type State[Out any] struct {
	Status Status
	Output Out
	Err    error
}

// Transition is delivered to observers on every status change.
type Transition[Out any] struct {
	From  Status
	State State[Out]
}

// RunFunc performs the submission.
type RunFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Form runs submissions through run. It is safe for concurrent use.
type Form[In, Out any] struct {
	run RunFunc[In, Out]

	mu        sync.Mutex
	state     State[Out]
	nextID    int
	observers map[int]chan Transition[Out]
}

// New creates an idle form.
func New[In, Out any](run RunFunc[In, Out]) *Form[In, Out] {
	return &Form[In, Out]{
		run:       run,
		state:     State[Out]{Status: StatusIdle},
		observers: make(map[int]chan Transition[Out]),
	}
}

// Submit runs one submission and blocks until it finishes. A form that last
// succeeded or failed starts over; a form that is submitting returns ErrBusy
// without changing state.
func (f *Form[In, Out]) Submit(ctx context.Context, in In) (Out, error) {
	f.mu.Lock()
	if f.state.Status == StatusSubmitting {
		f.mu.Unlock()
		var zero Out
		return zero, ErrBusy
	}
	f.setLocked(State[Out]{Status: StatusSubmitting})
	f.mu.Unlock()

	returned := false
	defer func() {
		if returned {
			return
		}
		// run panicked; the panic keeps unwinding but the form is usable again.
		f.mu.Lock()
		f.setLocked(State[Out]{Status: StatusFailed, Err: ErrAborted})
		f.mu.Unlock()
	}()

	out, err := f.run(ctx, in)
	returned = true

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.setLocked(State[Out]{Status: StatusFailed, Err: err})
		var zero Out
		return zero, err
	}
	f.setLocked(State[Out]{Status: StatusSucceeded, Output: out})
	return out, nil
}

// Reset returns a finished form to idle. It returns ErrBusy while submitting.
func (f *Form[In, Out]) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state.Status {
	case StatusSubmitting:
		return ErrBusy
	case StatusIdle:
		return nil
	}
	f.setLocked(State[Out]{Status: StatusIdle})
	return nil
}

// State returns the current snapshot.
func (f *Form[In, Out]) State() State[Out] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy reports whether a submission is in flight.
func (f *Form[In, Out]) Busy() bool {
	return f.State().Status == StatusSubmitting
}

// Subscribe returns a channel of transitions and a function that ends the
// subscription. Delivery never blocks the form: when the buffer is full the
// transition is dropped for that observer.
func (f *Form[In, Out]) Subscribe(buffer int) (<-chan Transition[Out], func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Transition[Out], buffer)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.observers[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.observers, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *Form[In, Out]) setLocked(next State[Out]) {
	t := Transition[Out]{From: f.state.Status, State: next}
	f.state = next
	for _, ch := range f.observers {
		select {
		case ch <- t:
		default:
		}
	}
}
