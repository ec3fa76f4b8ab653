// Package session composes the per-visitor storefront state around one
// identity session.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thesheunit/storefront/internal/domain/admin"
	"github.com/thesheunit/storefront/internal/domain/cart"
	"github.com/thesheunit/storefront/internal/domain/identity"
	"github.com/thesheunit/storefront/internal/domain/message"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/domain/wishlist"
	"github.com/thesheunit/storefront/internal/pkg/optimistic"
)

// ErrSignedOut is returned by reads that need an identity
var ErrSignedOut = errors.New("not signed in")

// Profiles loads and stores the signed-in user's own profile
type Profiles interface {
	GetProfile(ctx context.Context, userID uint) (*user.User, error)
	UpdateProfile(ctx context.Context, userID uint, profile user.Profile) (*user.User, error)
}

// AdminRepositories back the admin tables of every session
type AdminRepositories struct {
	Products  admin.Repository[product.Product]
	Orders    admin.Repository[order.Order]
	Customers admin.Repository[user.User]
	Messages  admin.Repository[message.Message]
}

// Dependencies are shared by all sessions
type Dependencies struct {
	CartRepository     cart.Repository
	CartOptions        cart.Options
	CartObserver       cart.Observer
	WishlistRepository wishlist.Repository
	Profiles           Profiles
	Admin              AdminRepositories
	SignInPath         string
	Logger             *logrus.Logger
	MutationOptions    []optimistic.Option
}

// AdminViews are the back-office tables of one session
type AdminViews struct {
	Products  *admin.Table[product.Product]
	Orders    *admin.Table[order.Order]
	Customers *admin.Table[user.User]
	Messages  *admin.Table[message.Message]
}

// UnmountAll drops every loaded table
func (v *AdminViews) UnmountAll() {
	v.Products.Unmount()
	v.Orders.Unmount()
	v.Customers.Unmount()
	v.Messages.Unmount()
}

// Session is one visitor's storefront state
type Session struct {
	ID       string
	Identity *identity.Session
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Admin    *AdminViews

	profiles   Profiles
	profileCtl *optimistic.Controller[uint]
	signInPath string
	logger     *logrus.Logger

	mu           sync.Mutex
	profile      *optimistic.Value[user.Profile]
	profileOwner *identity.Identity
	lastSeen     time.Time
	unbind       []func()
	started      bool
	closed       bool
}

// New builds an uninitialized session with id
func (d *Dependencies) New(id string) *Session {
	signIn := d.SignInPath
	if signIn == "" {
		signIn = "/login"
	}
	opts := d.MutationOptions
	return &Session{
		ID:       id,
		Identity: identity.NewSession(),
		Cart:     cart.NewStore(d.CartRepository, d.CartOptions, d.Logger, d.CartObserver),
		Wishlist: wishlist.NewStore(d.WishlistRepository, signIn, d.Logger, opts...),
		Admin: &AdminViews{
			Products:  admin.NewTable[product.Product]("products", ProductSchema, d.Admin.Products, d.Logger, opts...),
			Orders:    admin.NewTable[order.Order]("orders", OrderSchema, d.Admin.Orders, d.Logger, opts...),
			Customers: admin.NewTable[user.User]("customers", CustomerSchema, d.Admin.Customers, d.Logger, opts...),
			Messages:  admin.NewTable[message.Message]("messages", MessageSchema, d.Admin.Messages, d.Logger, opts...),
		},
		profiles:   d.Profiles,
		profileCtl: optimistic.NewController[uint]("profile", opts...),
		signInPath: signIn,
		logger:     d.Logger,
		profile:    optimistic.NewValue(user.Profile{}),
		lastSeen:   time.Now(),
	}
}

// Init subscribes the stores to identity changes. It is idempotent.
func (s *Session) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	s.unbind = append(s.unbind,
		s.Cart.Bind(s.Identity),
		s.Wishlist.Bind(s.Identity),
		s.Identity.Subscribe(s.onIdentity),
	)
}

// Teardown flushes the cart and detaches every subscriber
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unbind := s.unbind
	s.unbind = nil
	s.mu.Unlock()

	for _, fn := range unbind {
		fn()
	}
	s.Cart.Close()
	s.Admin.UnmountAll()
	s.Identity.Close()
}

// Resolve settles the session identity. Repeating the current identity is a no-op.
func (s *Session) Resolve(id *identity.Identity) {
	current, resolved := s.Identity.Current()
	if resolved && identity.Same(current, id) {
		return
	}
	s.Identity.Resolve(id)
}

// Current returns the signed-in identity, nil when anonymous
func (s *Session) Current() *identity.Identity {
	id, _ := s.Identity.Current()
	return id
}

// Touch marks the session as used now
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) onIdentity(ev identity.Event) {
	if ev.Identity == nil || !ev.Identity.IsAdmin {
		s.Admin.UnmountAll()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity.Same(s.profileOwner, ev.Identity) {
		return
	}
	// A fresh cell detaches edits still in flight for the previous identity.
	s.profile = optimistic.NewValue(user.Profile{})
	s.profileOwner = ev.Identity
}

func (s *Session) profileCell() *optimistic.Value[user.Profile] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Profile returns the cached profile
func (s *Session) Profile() user.Profile {
	return s.profileCell().Get()
}

// LoadProfile reads the profile of the signed-in user
func (s *Session) LoadProfile(ctx context.Context) (user.Profile, error) {
	owner := s.Current()
	if owner == nil {
		return user.Profile{}, ErrSignedOut
	}
	cell := s.profileCell()

	u, err := s.profiles.GetProfile(ctx, owner.UserID)
	if err != nil {
		return cell.Get(), err
	}
	if ctx.Err() != nil {
		return cell.Get(), ctx.Err()
	}
	p := user.ProfileOf(u)
	if cell == s.profileCell() {
		cell.Set(p)
	}
	return p, nil
}

// EditProfile shows next at once and keeps it if the store accepts it
func (s *Session) EditProfile(ctx context.Context, next user.Profile) optimistic.Outcome[user.Profile] {
	cell := s.profileCell()
	owner := s.Current()
	if owner == nil {
		return optimistic.Unauthenticated(cell.Get(), s.signInPath+"?next="+url.QueryEscape("/account"))
	}

	next = user.Profile{
		FirstName: strings.TrimSpace(next.FirstName),
		LastName:  strings.TrimSpace(next.LastName),
		Phone:     strings.TrimSpace(next.Phone),
	}
	if _, err := ProfileSchema.Coerce(profileFields(next)); err != nil {
		return optimistic.Invalid(cell.Get(), err)
	}

	userID := owner.UserID
	return optimistic.Apply(ctx, s.profileCtl, userID, cell, next, func(ctx context.Context) (user.Profile, bool, error) {
		u, err := s.profiles.UpdateProfile(ctx, userID, next)
		if err != nil {
			return user.Profile{}, false, err
		}
		return user.ProfileOf(u), true, nil
	})
}
