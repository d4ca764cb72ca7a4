package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// State is the edit-mode state of a panel.
type State int

const (
	// StateViewing renders the displayed value read-only.
	StateViewing State = iota
	// StateEditing exposes the draft for mutation.
	StateEditing
	// StateCommitting shows the optimistically applied draft while persistence is outstanding.
	StateCommitting
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateCommitting:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNotEditing is returned when a draft operation is attempted outside edit mode.
	ErrNotEditing = errors.New("optimistic: panel is not in edit mode")
	// ErrNotViewing is returned when an item commit is attempted while editing or committing.
	ErrNotViewing = errors.New("optimistic: panel is not in view mode")
	// ErrCommitInFlight is returned when the panel is waiting for a persistence result.
	ErrCommitInFlight = errors.New("optimistic: commit already in flight")
	// ErrInvalidDraft wraps validation failures detected before a commit starts.
	ErrInvalidDraft = errors.New("optimistic: draft is invalid")
	// ErrDisposed is returned once the panel has been disposed.
	ErrDisposed = errors.New("optimistic: panel disposed")
	// ErrItemNotFound indicates no displayed element matched an item commit.
	ErrItemNotFound = errors.New("optimistic: item not found")
)

// Persister stores values for the panel's attribute on the backend.
type Persister[T any] func(ctx context.Context, values []T) error

// Refetcher reloads the parent entity after a successful commit.
type Refetcher func(ctx context.Context)

// Validator rejects drafts that must not be committed.
type Validator[T any] func(values []T) error

// Options configures a Panel.
type Options[T any] struct {
	Attribute      string
	Persist        Persister[T]
	Refetch        Refetcher
	Validate       Validator[T]
	Notifier       Notifier
	Logger         *zap.Logger
	SuccessMessage string
}

// Panel owns the displayed and draft values of one list attribute and runs the
// optimistic commit protocol against them.
type Panel[T any] struct {
	mu         sync.Mutex
	state      State
	displayed  []T
	snapshot   []T
	draft      *List[T]
	generation uint64
	itemGens   map[string]uint64
	// items holds the newest unresolved item commit per item key.
	items    map[string]*itemCommit[T]
	inFlight int
	disposed bool

	attribute      string
	persist        Persister[T]
	refetch        Refetcher
	validate       Validator[T]
	notifier       Notifier
	logger         *zap.Logger
	successMessage string
}

type itemCommit[T any] struct {
	gen    uint64
	match  func(T) bool
	mutate func(T) T
	// before is the value restored when the commit fails.
	before T
}

// NewPanel constructs a panel in the viewing state showing initial.
func NewPanel[T any](initial []T, opts Options[T]) *Panel[T] {
	if opts.Persist == nil {
		panic("optimistic: persister is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	successMessage := opts.SuccessMessage
	if successMessage == "" {
		successMessage = DefaultSuccessMessage
	}
	return &Panel[T]{
		state:          StateViewing,
		displayed:      clone(initial),
		itemGens:       make(map[string]uint64),
		items:          make(map[string]*itemCommit[T]),
		attribute:      opts.Attribute,
		persist:        opts.Persist,
		refetch:        opts.Refetch,
		validate:       opts.Validate,
		notifier:       notifier,
		logger:         logger.With(zap.String("attribute", opts.Attribute)),
		successMessage: successMessage,
	}
}

// Attribute returns the attribute name the panel edits.
func (p *Panel[T]) Attribute() string {
	return p.attribute
}

// State returns the current edit-mode state.
func (p *Panel[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Generation returns the number of list commits started so far.
func (p *Panel[T]) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// InFlight reports whether a list commit or any item commit awaits resolution.
func (p *Panel[T]) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateCommitting || p.inFlight > 0
}

// Displayed returns a copy of the value currently rendered.
func (p *Panel[T]) Displayed() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return clone(p.displayed)
}

// Draft returns the keyed draft elements while editing, nil otherwise.
func (p *Panel[T]) Draft() []Item[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateEditing || p.draft == nil {
		return nil
	}
	return p.draft.Items()
}

// DraftValues returns the draft values while editing. Outside edit mode the draft
// has been discarded and reverts to the displayed value.
func (p *Panel[T]) DraftValues() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateEditing || p.draft == nil {
		return clone(p.displayed)
	}
	return p.draft.Values()
}

// Begin enters edit mode with a copy of the displayed value as draft. It fails
// while a list commit or any item commit is unresolved.
func (p *Panel[T]) Begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return ErrDisposed
	}
	switch {
	case p.state == StateEditing:
		return nil
	case p.state == StateCommitting, p.inFlight > 0:
		return ErrCommitInFlight
	}
	p.draft = NewList(clone(p.displayed))
	p.state = StateEditing
	return nil
}

// Cancel leaves edit mode without touching the displayed value or the network.
func (p *Panel[T]) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateEditing {
		return
	}
	p.draft = nil
	p.state = StateViewing
}

// Edit runs fn against the draft.
func (p *Panel[T]) Edit(fn func(*List[T])) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return ErrDisposed
	}
	if p.state != StateEditing {
		return ErrNotEditing
	}
	fn(p.draft)
	return nil
}

// Reset installs a fresh value from the entity payload. While a list commit is
// in flight only the rollback snapshot is replaced; unresolved item commits are
// re-applied on top of the fresh value. Either way the optimistic view stays put.
func (p *Panel[T]) Reset(values []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	if p.state == StateCommitting {
		p.snapshot = clone(values)
		return
	}
	next := clone(values)
	for _, item := range p.items {
		if idx := indexWhere(next, item.match); idx >= 0 {
			item.before = next[idx]
			next[idx] = item.mutate(next[idx])
		}
	}
	p.displayed = next
}

// Dispose detaches the panel. Outstanding resolutions become no-ops.
func (p *Panel[T]) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
	p.generation++
	p.draft = nil
	p.snapshot = nil
	clear(p.items)
}

// Commit optimistically replaces the displayed value with the draft and persists it
// in the background. The returned Pending resolves after rollback or re-fetch.
func (p *Panel[T]) Commit(ctx context.Context) (*Pending, error) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil, ErrDisposed
	}
	switch {
	case p.state == StateCommitting, p.inFlight > 0:
		p.mu.Unlock()
		return nil, ErrCommitInFlight
	case p.state == StateViewing:
		p.mu.Unlock()
		return nil, ErrNotEditing
	}

	values := p.draft.Values()
	if p.validate != nil {
		if err := p.validate(values); err != nil {
			p.mu.Unlock()
			p.notify(ctx, LevelError, FailureMessage(err))
			return nil, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
		}
	}

	p.snapshot = p.displayed
	p.displayed = clone(values)
	p.draft = nil
	p.state = StateCommitting
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	pending := newPending(gen)
	go p.resolve(context.WithoutCancel(ctx), gen, values, pending)
	return pending, nil
}

func (p *Panel[T]) resolve(ctx context.Context, gen uint64, values []T, pending *Pending) {
	err := p.call(func() error { return p.persist(ctx, values) })

	p.mu.Lock()
	if p.disposed || p.generation != gen {
		p.mu.Unlock()
		p.logger.Debug("discarding superseded commit", zap.Uint64("generation", gen), zap.Error(err))
		pending.finish(Outcome{Generation: gen, Err: err, Superseded: true})
		return
	}
	if err != nil {
		p.displayed = p.snapshot
	}
	p.snapshot = nil
	p.state = StateViewing
	p.mu.Unlock()

	p.settle(ctx, err)
	pending.finish(Outcome{Generation: gen, Err: err})
}

// CommitItem optimistically rewrites the first displayed element matching match,
// persists the change, and on failure restores only that element. itemKey scopes
// the staleness check so overlapping changes to one element resolve in order.
func (p *Panel[T]) CommitItem(ctx context.Context, itemKey string, match func(T) bool, mutate func(T) T, persist func(context.Context) error) (*Pending, error) {
	if match == nil || mutate == nil || persist == nil {
		return nil, errors.New("optimistic: match, mutate and persist are required")
	}

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil, ErrDisposed
	}
	if p.state != StateViewing {
		p.mu.Unlock()
		return nil, ErrNotViewing
	}
	idx := indexWhere(p.displayed, match)
	if idx < 0 {
		p.mu.Unlock()
		return nil, ErrItemNotFound
	}
	p.itemGens[itemKey]++
	item := &itemCommit[T]{
		gen:    p.itemGens[itemKey],
		match:  match,
		mutate: mutate,
		before: p.displayed[idx],
	}
	next := clone(p.displayed)
	next[idx] = mutate(item.before)
	p.displayed = next
	p.items[itemKey] = item
	p.inFlight++
	p.mu.Unlock()

	pending := newPending(item.gen)
	go p.resolveItem(context.WithoutCancel(ctx), itemKey, item, persist, pending)
	return pending, nil
}

func (p *Panel[T]) resolveItem(ctx context.Context, itemKey string, item *itemCommit[T], persist func(context.Context) error, pending *Pending) {
	err := p.call(func() error { return persist(ctx) })
	gen := item.gen

	p.mu.Lock()
	p.inFlight--
	if p.disposed || p.itemGens[itemKey] != gen {
		p.mu.Unlock()
		p.logger.Debug("discarding superseded item commit", zap.String("item", itemKey), zap.Uint64("generation", gen), zap.Error(err))
		pending.finish(Outcome{Generation: gen, Err: err, Superseded: true})
		return
	}
	delete(p.items, itemKey)
	if err != nil {
		if idx := indexWhere(p.displayed, item.match); idx >= 0 {
			next := clone(p.displayed)
			next[idx] = item.before
			p.displayed = next
		}
	}
	p.mu.Unlock()

	p.settle(ctx, err)
	pending.finish(Outcome{Generation: gen, Err: err})
}

func (p *Panel[T]) settle(ctx context.Context, err error) {
	if err != nil {
		p.logger.Warn("commit failed; rolled back", zap.Error(err))
		p.notify(ctx, LevelError, FailureMessage(err))
		return
	}
	p.notify(ctx, LevelSuccess, p.successMessage)
	if p.refetch != nil {
		p.refetch(ctx)
	}
}

func (p *Panel[T]) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("persister panicked", zap.Any("panic", r))
			err = fmt.Errorf("optimistic: persister panic: %v", r)
		}
	}()
	return fn()
}

func (p *Panel[T]) notify(ctx context.Context, level Level, message string) {
	p.notifier.Notify(ctx, Notice{Level: level, Attribute: p.attribute, Message: message})
}

func indexWhere[T any](values []T, match func(T) bool) int {
	for i, v := range values {
		if match(v) {
			return i
		}
	}
	return -1
}

func clone[T any](values []T) []T {
	if values == nil {
		return nil
	}
	return append([]T(nil), values...)
}
