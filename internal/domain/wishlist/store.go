package wishlist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/domain/identity"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
)

// ErrInvalidProduct rejects toggles without a product id
var ErrInvalidProduct = errors.New("product id is required")

// View is a snapshot of the wishlist
type View struct {
	ProductIDs []uint `json:"product_ids"`
	Count      int    `json:"count"`
	Loaded     bool   `json:"loaded"`
}

// Store caches the wishlist of the session's identity. The durable store is
// the source of truth; local flips are provisional until the server answers.
type Store struct {
	repo       Repository
	controller *optimistic.Controller[uint]
	signInPath string
	logger     *logrus.Logger

	mu         sync.Mutex
	owner      *identity.Identity
	set        Set
	loaded     bool
	generation uint64
}

// NewStore creates an empty, not loaded store. signInPath is where
// unauthenticated toggles are redirected.
func NewStore(repo Repository, signInPath string, logger *logrus.Logger, opts ...optimistic.Option) *Store {
	if signInPath == "" {
		signInPath = "/login"
	}
	return &Store{
		repo:       repo,
		controller: optimistic.NewController[uint]("wishlist", opts...),
		signInPath: signInPath,
		logger:     logger,
		set:        Set{},
	}
}

// Bind follows identity changes of sess until the returned handle is called
func (s *Store) Bind(sess *identity.Session) func() {
	return sess.Subscribe(func(ev identity.Event) {
		s.OnIdentity(ev)
	})
}

// OnIdentity discards the cached set whenever the identity changes. Loading
// is left to the next view that needs it.
func (s *Store) OnIdentity(ev identity.Event) {
	if !ev.Resolved {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity.Same(s.owner, ev.Identity) {
		return
	}
	s.generation++
	s.set = Set{}
	s.loaded = false
	s.owner = nil
	if ev.Identity != nil {
		owner := *ev.Identity
		s.owner = &owner
	}
}

// Load fetches the canonical set. The result is dropped when ctx ended
// before the read returned or the identity changed meanwhile.
func (s *Store) Load(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.owner == nil {
		s.set = Set{}
		s.loaded = false
		v := s.viewLocked()
		s.mu.Unlock()
		return v, nil
	}
	owner := s.owner.UserID
	gen := s.generation
	s.mu.Unlock()

	ids, err := s.repo.List(ctx, owner)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil || gen != s.generation {
		return s.viewLocked(), ctx.Err()
	}
	if err != nil {
		s.logger.WithError(err).WithField("user_id", owner).Warn("Failed to load wishlist")
		return s.viewLocked(), err
	}
	s.set = NewSet(ids...)
	s.loaded = true
	return s.viewLocked(), nil
}

// Toggle flips productID's membership. The server's canonical set replaces
// the local guess on success; on failure only productID is restored.
func (s *Store) Toggle(ctx context.Context, productID uint) optimistic.Outcome[View] {
	if productID == 0 {
		return optimistic.Invalid(s.Snapshot(), ErrInvalidProduct)
	}

	s.mu.Lock()
	if s.owner == nil {
		v := s.viewLocked()
		s.mu.Unlock()
		return optimistic.Unauthenticated(v, s.redirectFor(productID))
	}
	owner := s.owner.UserID
	gen := s.generation
	s.mu.Unlock()

	var wasMember bool
	return optimistic.Run(ctx, s.controller, optimistic.Mutation[uint, View]{
		Key: productID,
		Apply: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			wasMember = s.set.Has(productID)
			s.set = s.set.Flip(productID)
		},
		Persist: func(ctx context.Context) (View, bool, error) {
			ids, err := s.repo.Toggle(ctx, owner, productID)
			if err != nil {
				return View{}, false, err
			}
			return View{ProductIDs: ids, Count: len(ids), Loaded: true}, true, nil
		},
		Commit: func(canonical View) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if gen != s.generation {
				return
			}
			s.set = NewSet(canonical.ProductIDs...)
			s.loaded = true
		},
		Rollback: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if gen != s.generation {
				return
			}
			s.set = s.set.With(productID, wasMember)
			s.logger.WithFields(logrus.Fields{
				"user_id":    owner,
				"product_id": productID,
			}).Warn("Wishlist toggle rolled back")
		},
		View: s.Snapshot,
	})
}

// Contains reports whether productID is in the cached set
func (s *Store) Contains(productID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Has(productID)
}

// Snapshot returns the current view
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() View {
	ids := s.set.IDs()
	return View{ProductIDs: ids, Count: len(ids), Loaded: s.loaded}
}

func (s *Store) redirectFor(productID uint) string {
	return s.signInPath + "?next=" + url.QueryEscape(fmt.Sprintf("/products/%d", productID))
}
