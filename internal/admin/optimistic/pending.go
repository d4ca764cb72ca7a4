package optimistic

import "context"

// Outcome describes how a commit resolved.
type Outcome struct {
	Generation uint64
	Err        error
	// Superseded is set when the result arrived after the panel moved on and was discarded.
	Superseded bool
}

// Succeeded reports whether the commit was persisted and applied.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && !o.Superseded
}

// Pending tracks an outstanding commit.
type Pending struct {
	generation uint64
	done       chan struct{}
	outcome    Outcome
}

func newPending(gen uint64) *Pending {
	return &Pending{generation: gen, done: make(chan struct{})}
}

// Generation returns the generation captured when the commit started.
func (p *Pending) Generation() uint64 {
	return p.generation
}

// Done is closed once the commit has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the commit resolves or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (p *Pending) finish(outcome Outcome) {
	p.outcome = outcome
	close(p.done)
}
