package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/domain/identity"
	"github.com/thesheunit/storefront/internal/infrastructure/storeerr"
)

// HydrationState tracks whether the local cart reflects durable storage
type HydrationState string

const (
	StateUninitialized HydrationState = "uninitialized"
	StateHydrating     HydrationState = "hydrating"
	StateHydrated      HydrationState = "hydrated"
)

var (
	// ErrNotHydrated rejects mutations while the cart does not yet reflect
	// durable storage
	ErrNotHydrated = errors.New("cart is still loading")
	// ErrClosed rejects mutations after the session ended
	ErrClosed = errors.New("cart is closed")
)

// Observer is notified of durable reads and writes
type Observer interface {
	ObserveCartWrite(backend string, err error)
	ObserveCartHydration(backend string, err error)
}

// Options tunes a Store
type Options struct {
	// WriteDebounce coalesces bursts of mutations into one write
	WriteDebounce time.Duration
	// WriteTimeout bounds each durable read and write
	WriteTimeout time.Duration
}

// View is a consistent snapshot of the store
type View struct {
	Items         []LineItem     `json:"items"`
	TotalQuantity int            `json:"total_quantity"`
	State         HydrationState `json:"state"`
	SyncError     string         `json:"sync_error,omitempty"`
}

// Store owns the cart of one storefront session.
//
// Mutations are accepted only once the cart is hydrated. For a signed-in
// identity every mutation marks the cart dirty and schedules a debounced
// write of the whole cart. writeMu serializes every durable call: a snapshot
// is taken and saved inside the same critical section, so saves land in
// snapshot order, and an identity change writes the outgoing owner's dirty
// cart before it reads the incoming owner's. A failed write keeps the local
// cart and is reported through SyncError.
type Store struct {
	repo     Repository
	observer Observer
	logger   *logrus.Logger
	opts     Options

	mu         sync.Mutex
	state      HydrationState
	owner      *identity.Identity
	cart       Cart
	dirty      bool
	generation uint64
	pending    *time.Timer
	syncErr    error
	closed     bool

	writeMu sync.Mutex
}

type snapshot struct {
	generation uint64
	owner      uint
	items      []LineItem
}

// NewStore creates a store in the Uninitialized state
func NewStore(repo Repository, opts Options, logger *logrus.Logger, observer Observer) *Store {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Store{
		repo:     repo,
		observer: observer,
		logger:   logger,
		opts:     opts,
		state:    StateUninitialized,
	}
}

// Bind follows identity changes of sess until the returned handle is called
func (s *Store) Bind(sess *identity.Session) func() {
	return sess.Subscribe(func(ev identity.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
		defer cancel()
		s.OnIdentity(ctx, ev)
	})
}

// OnIdentity moves the hydration state machine for a resolved identity.
// Repeated events for the already hydrated identity are ignored.
func (s *Store) OnIdentity(ctx context.Context, ev identity.Event) {
	if !ev.Resolved {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed || (s.state == StateHydrated && identity.Same(s.owner, ev.Identity)) {
		s.mu.Unlock()
		return
	}

	handoff, dirty := s.takeDirtyLocked()
	s.stopPendingLocked()
	s.generation++
	s.cart = Cart{}
	s.syncErr = nil
	s.owner = nil
	s.state = StateHydrated
	if ev.Identity != nil {
		owner := *ev.Identity
		s.owner = &owner
		s.state = StateHydrating
	}
	owner := s.owner
	s.mu.Unlock()

	if dirty {
		_ = s.saveLocked(ctx, handoff)
	}
	if owner == nil {
		return
	}

	items, err := s.repo.Load(ctx, owner.UserID)
	if s.observer != nil {
		s.observer.ObserveCartHydration(s.repo.Backend(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Stay unhydrated so no write can clobber the durable cart; the next
		// identity event for this owner retries the read.
		s.state = StateUninitialized
		s.syncErr = err
		s.log(owner.UserID).WithError(err).
			WithField("category", storeerr.Classify(err)).
			Warn("Failed to hydrate cart")
		return
	}
	s.cart = Cart{Items: items}
	s.state = StateHydrated
}

// Add merges qty of (product, size) into the cart
func (s *Store) Add(productID uint, size string, qty int) (View, error) {
	return s.mutate(func(c Cart) Cart { return c.Add(productID, size, qty) })
}

// SetQuantity sets a line's quantity; non-positive values remove the line
func (s *Store) SetQuantity(productID uint, size string, qty int) (View, error) {
	return s.mutate(func(c Cart) Cart { return c.SetQuantity(productID, size, qty) })
}

// Remove drops a line
func (s *Store) Remove(productID uint, size string) (View, error) {
	return s.mutate(func(c Cart) Cart { return c.Remove(productID, size) })
}

// Clear empties the cart, e.g. after an order was placed
func (s *Store) Clear() (View, error) {
	return s.mutate(func(Cart) Cart { return Cart{} })
}

// Snapshot returns the current view
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Cart returns a copy of the current cart
func (s *Store) Cart() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// State returns the hydration state
func (s *Store) State() HydrationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Flush writes any pending change now
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopPendingLocked()
	s.mu.Unlock()
	return s.write(ctx)
}

// Close writes pending changes and stops reacting to identity events
func (s *Store) Close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.stopPendingLocked()
	snap, dirty := s.takeDirtyLocked()
	s.closed = true
	s.mu.Unlock()

	if !dirty {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
	defer cancel()
	_ = s.saveLocked(ctx, snap)
}

func (s *Store) mutate(fn func(Cart) Cart) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return s.viewLocked(), ErrClosed
	case s.state != StateHydrated:
		return s.viewLocked(), ErrNotHydrated
	}

	s.cart = fn(s.cart)
	if s.owner != nil {
		s.dirty = true
		s.scheduleLocked()
	}
	return s.viewLocked(), nil
}

func (s *Store) scheduleLocked() {
	s.stopPendingLocked()
	s.pending = time.AfterFunc(s.opts.WriteDebounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
		defer cancel()
		_ = s.write(ctx)
	})
}

func (s *Store) stopPendingLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// takeDirtyLocked claims the unsaved cart of the current owner
func (s *Store) takeDirtyLocked() (snapshot, bool) {
	if !s.dirty || s.owner == nil || s.state != StateHydrated {
		return snapshot{}, false
	}
	s.dirty = false
	return snapshot{
		generation: s.generation,
		owner:      s.owner.UserID,
		items:      s.cart.Clone().Items,
	}, true
}

// write persists the latest cart of the current owner if it changed
func (s *Store) write(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	snap, dirty := s.takeDirtyLocked()
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.saveLocked(ctx, snap)
}

// saveLocked runs with writeMu held
func (s *Store) saveLocked(ctx context.Context, snap snapshot) error {
	err := s.repo.Save(ctx, snap.owner, nonNil(snap.items))
	if s.observer != nil {
		s.observer.ObserveCartWrite(s.repo.Backend(), err)
	}
	if err != nil {
		s.log(snap.owner).WithError(err).
			WithField("category", storeerr.Classify(err)).
			Warn("Failed to persist cart")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.generation == s.generation {
		s.syncErr = err
		if err != nil {
			// the next flush retries
			s.dirty = true
		}
	}
	return err
}

func (s *Store) viewLocked() View {
	v := View{
		Items:         nonNil(s.cart.Clone().Items),
		TotalQuantity: s.cart.TotalQuantity(),
		State:         s.state,
	}
	if s.syncErr != nil {
		v.SyncError = storeerr.UserMessage(s.syncErr)
	}
	return v
}

func (s *Store) log(owner uint) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"user_id": owner,
		"backend": s.repo.Backend(),
	})
}
