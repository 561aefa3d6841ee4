package domain

import (
	"context"
)

// ListingRepository is the ordered, filterable listing collection.
type ListingRepository interface {
	// QueryListings returns at most q.PageSize records matching q.Filter,
	// newest first, strictly after the after cursor (nil = from the start).
	QueryListings(ctx context.Context, q ListingQuery, after *Cursor) ([]*Listing, error)
}

// ListingWriter provides listing lookups and owner-scoped mutations
type ListingWriter interface {
	GetListing(ctx context.Context, id string) (*Listing, error)
	CreateListing(ctx context.Context, l *Listing) (*Listing, error)

	// UpdateListing and DeleteListing fail with ErrNotOwner unless ownerID
	// owns the stored record
	UpdateListing(ctx context.Context, ownerID string, l *Listing) (*Listing, error)
	DeleteListing(ctx context.Context, ownerID, id string) error
}

// ListingSource combines everything a listing backend must implement.
// Both the local store and the remote HTTP client satisfy it.
type ListingSource interface {
	ListingRepository
	ListingWriter
}

// UserRepository persists local accounts and the signed-in session
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SaveUser(ctx context.Context, u *User) error

	// LoadSession returns the persisted signed-in user ID ("" when signed out)
	LoadSession(ctx context.Context) (string, error)
	SaveSession(ctx context.Context, userID string) error
}

// Subscription is a live IdentityChannel registration
type Subscription interface {
	// Unsubscribe stops delivery. Safe to call more than once.
	Unsubscribe()
}

// IdentityChannel delivers identity state: once as soon as it is known after
// subscribing, then on every change. A nil identity means signed out.
type IdentityChannel interface {
	Subscribe(onChange func(*Identity)) Subscription
}
