package wishlist

import (
	"slices"
	"time"
)

// WishlistItem is one saved product of a user
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product;index" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name
func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// Set is a membership set of product ids. Methods never modify the receiver.
type Set map[uint]struct{}

// NewSet builds a set from ids, ignoring duplicates
func NewSet(ids ...uint) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership
func (s Set) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy where id's membership is present
func (s Set) With(id uint, present bool) Set {
	next := make(Set, len(s)+1)
	for k := range s {
		next[k] = struct{}{}
	}
	if present {
		next[id] = struct{}{}
	} else {
		delete(next, id)
	}
	return next
}

// Flip returns a copy with id added if absent and removed if present
func (s Set) Flip(id uint) Set {
	return s.With(id, !s.Has(id))
}

// IDs returns the members in ascending order
func (s Set) IDs() []uint {
	ids := make([]uint, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
