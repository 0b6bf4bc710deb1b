package editing

import (
	"context"
	"sync"
)

// OutcomeKind classifies how an asynchronous session operation ended
type OutcomeKind int

const (
	OutcomeCompleted OutcomeKind = iota
	OutcomeFailed
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return "cancelled"
	}
}

// Outcome is the result variant delivered by a Pending operation
type Outcome struct {
	Kind   OutcomeKind
	Output string // export destination, when completed
	Err    error
}

// Pending is a future resolved once the session has applied the result of
// an asynchronous operation
type Pending struct {
	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

// NewPending creates an unresolved Pending
func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Resolved returns a Pending that is already resolved with o
func Resolved(o Outcome) *Pending {
	p := NewPending()
	p.Resolve(o)
	return p
}

// Resolve sets the outcome; only the first call has any effect
func (p *Pending) Resolve(o Outcome) {
	p.once.Do(func() {
		p.outcome = o
		close(p.done)
	})
}

// Done is closed when the outcome is available
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the outcome is available or ctx is done
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
