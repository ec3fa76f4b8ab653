// Package optimistic applies local state changes ahead of remote confirmation
// and reconciles them once the durable store answers.
package optimistic

import (
	"context"
	"fmt"
	"sync"
)

// Status reports how a mutation ended
type Status string

const (
	StatusConfirmed       Status = "confirmed"
	StatusRolledBack      Status = "rolled_back"
	StatusRejected        Status = "rejected"
	StatusInvalid         Status = "invalid"
	StatusUnauthenticated Status = "unauthenticated"
)

// Outcome is the discriminated result of a mutation. Value holds the visible
// state once the mutation settled.
type Outcome[V any] struct {
	Status Status
	Value  V
	Err    error
}

// OK reports whether the change was confirmed
func (o Outcome[V]) OK() bool {
	return o.Status == StatusConfirmed
}

// Kind returns the failure kind, or "" for confirmed and rejected outcomes
func (o Outcome[V]) Kind() Kind {
	return KindOf(o.Err)
}

// Invalid builds the outcome for input that failed local validation.
// Nothing was mutated, so there is nothing to roll back.
func Invalid[V any](value V, err error) Outcome[V] {
	return Outcome[V]{
		Status: StatusInvalid,
		Value:  value,
		Err:    &Error{Kind: KindValidationFailed, Message: userMessage(err), Err: err},
	}
}

// Unauthenticated builds the outcome for a mutation that needs a signed-in identity
func Unauthenticated[V any](value V, redirectTo string) Outcome[V] {
	return Outcome[V]{
		Status: StatusUnauthenticated,
		Value:  value,
		Err: &Error{
			Kind:       KindNeedsAuthentication,
			Message:    "Please sign in to continue.",
			RedirectTo: redirectTo,
		},
	}
}

// Mutation describes one optimistic change.
//
// Apply and Rollback run synchronously and must only touch local memory.
// Persist is the only call that may block. When it reports a canonical value,
// Commit receives it and replaces the optimistic guess.
type Mutation[K comparable, V any] struct {
	Key      K
	Apply    func()
	Persist  func(ctx context.Context) (canonical V, ok bool, err error)
	Commit   func(V)
	Rollback func()
	View     func() V
}

// Observer is notified of every settled mutation
type Observer interface {
	ObserveMutation(controller string, status Status, kind Kind)
}

// Controller serializes mutations per entity key. A key with a mutation in
// flight refuses further mutations until the first one settles.
type Controller[K comparable] struct {
	name     string
	classify Classifier
	observer Observer

	mu       sync.Mutex
	inFlight map[K]struct{}
}

// Option configures a Controller
type Option func(*options)

type options struct {
	classify Classifier
	observer Observer
}

// WithClassifier overrides how persistence errors are classified
func WithClassifier(fn Classifier) Option {
	return func(o *options) {
		if fn != nil {
			o.classify = fn
		}
	}
}

// WithObserver attaches an outcome observer, typically metrics
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// NewController creates a controller. name labels observed outcomes.
func NewController[K comparable](name string, opts ...Option) *Controller[K] {
	o := options{classify: DefaultClassifier}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[K]{
		name:     name,
		classify: o.classify,
		observer: o.observer,
		inFlight: make(map[K]struct{}),
	}
}

// InFlight reports whether key has an unresolved mutation
func (c *Controller[K]) InFlight(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inFlight[key]
	return busy
}

// Pending returns the number of unresolved mutations
func (c *Controller[K]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

func (c *Controller[K]) acquire(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

func (c *Controller[K]) release(key K) {
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

func (c *Controller[K]) observe(status Status, kind Kind) {
	if c.observer != nil {
		c.observer.ObserveMutation(c.name, status, kind)
	}
}

// Run applies m optimistically, persists it and reconciles the visible state.
// After Run returns the visible state is either the confirmed value or the
// pre-mutation snapshot.
func Run[K comparable, V any](ctx context.Context, c *Controller[K], m Mutation[K, V]) Outcome[V] {
	view := func() V {
		var zero V
		if m.View == nil {
			return zero
		}
		return m.View()
	}

	if !c.acquire(m.Key) {
		c.observe(StatusRejected, "")
		return Outcome[V]{Status: StatusRejected, Value: view(), Err: ErrInFlight}
	}
	defer c.release(m.Key)

	if m.Apply != nil {
		m.Apply()
	}

	canonical, ok, err := persist(ctx, m.Persist)
	if err != nil {
		if m.Rollback != nil {
			m.Rollback()
		}
		kind := c.classify(err)
		c.observe(StatusRolledBack, kind)
		return Outcome[V]{
			Status: StatusRolledBack,
			Value:  view(),
			Err:    &Error{Kind: kind, Message: userMessage(err), Err: err},
		}
	}

	if ok && m.Commit != nil {
		m.Commit(canonical)
	}
	c.observe(StatusConfirmed, "")

	if m.View == nil && ok {
		return Outcome[V]{Status: StatusConfirmed, Value: canonical}
	}
	return Outcome[V]{Status: StatusConfirmed, Value: view()}
}

// persist runs fn and converts a panic into an error so a failing adapter
// cannot escape into the caller.
func persist[V any](ctx context.Context, fn func(context.Context) (V, bool, error)) (v V, ok bool, err error) {
	if fn == nil {
		return v, false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("persist panicked: %v", r)
		}
	}()
	return fn(ctx)
}
