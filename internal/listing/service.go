// Package listing wires listing views to the pagination engine and carries
// out owner mutations with user-facing notifications.
package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/pager"
)

// Notification texts shown after mutations
const (
	MsgDeleted           = "Successfully deleted the listing"
	MsgDeleteFailed      = "Could not delete the listing"
	MsgSaved             = "Listing saved"
	MsgSaveFailed        = "Could not save the listing"
	MsgProfileUpdated    = "Profile details updated"
	MsgProfileNotUpdated = "Could not update the profile details"
)

// CategoryQuery browses one category newest first
func CategoryQuery(cat domain.Category, pageSize int) domain.ListingQuery {
	return domain.ListingQuery{
		Filter:   domain.Filter{Kind: domain.FilterCategory, Category: cat},
		Sort:     domain.SortTimestampDesc,
		PageSize: pageSize,
	}
}

// OffersQuery browses discounted listings newest first
func OffersQuery(pageSize int) domain.ListingQuery {
	return domain.ListingQuery{
		Filter:   domain.Filter{Kind: domain.FilterOffer},
		Sort:     domain.SortTimestampDesc,
		PageSize: pageSize,
	}
}

// OwnerQuery lists one user's listings newest first
func OwnerQuery(ownerID string, pageSize int) domain.ListingQuery {
	return domain.ListingQuery{
		Filter:   domain.Filter{Kind: domain.FilterOwner, OwnerID: ownerID},
		Sort:     domain.SortTimestampDesc,
		PageSize: pageSize,
	}
}

// LatestQuery is the newest listings of any kind, for the home view
func LatestQuery(size int) domain.ListingQuery {
	return domain.ListingQuery{
		Filter:   domain.Filter{Kind: domain.FilterAll},
		Sort:     domain.SortTimestampDesc,
		PageSize: size,
	}
}

// ProfileUpdater renames the signed-in user
type ProfileUpdater interface {
	UpdateDisplayName(ctx context.Context, name string) (*domain.Identity, error)
}

// Options holds page sizes
type Options struct {
	PageSize        int
	ProfilePageSize int
	LatestSize      int
}

// Service is the listing use-case layer behind every listing view
type Service struct {
	source   domain.ListingSource
	engine   *pager.Engine
	profile  ProfileUpdater
	notifier domain.Notifier
	logger   *slog.Logger
	opts     Options
}

// NewService creates a new listing service
func NewService(source domain.ListingSource, profile ProfileUpdater, notifier domain.Notifier, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = domain.NoOpNotifier{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 4
	}
	if opts.ProfilePageSize <= 0 {
		opts.ProfilePageSize = 50
	}
	if opts.LatestSize <= 0 {
		opts.LatestSize = 5
	}
	return &Service{
		source:   source,
		engine:   pager.New(source, notifier, logger),
		profile:  profile,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

// BrowseCategory opens a session for the rent or sale view
func (s *Service) BrowseCategory(cat domain.Category) (*pager.Session, error) {
	return s.engine.Open(CategoryQuery(cat, s.opts.PageSize))
}

// BrowseOffers opens a session for the offers view
func (s *Service) BrowseOffers() (*pager.Session, error) {
	return s.engine.Open(OffersQuery(s.opts.PageSize))
}

// BrowseLatest opens a session over the newest listings. The home view only
// ever shows its first page.
func (s *Service) BrowseLatest() (*pager.Session, error) {
	return s.engine.Open(LatestQuery(s.opts.LatestSize))
}

// OwnListings opens a session over ownerID's listings for the profile view.
// The profile loads it to exhaustion with LoadAll.
func (s *Service) OwnListings(ownerID string) (*pager.Session, error) {
	return s.engine.Open(OwnerQuery(ownerID, s.opts.ProfilePageSize))
}

// Get returns a listing by ID
func (s *Service) Get(ctx context.Context, id string) (*domain.Listing, error) {
	return s.source.GetListing(ctx, id)
}

// Create stores a new listing owned by owner
func (s *Service) Create(ctx context.Context, owner domain.Identity, l *domain.Listing) (*domain.Listing, error) {
	draft := *l
	draft.OwnerID = owner.UserID

	created, err := s.source.CreateListing(ctx, &draft)
	if err != nil {
		s.logger.Error("failed to create listing", "owner", owner.UserID, "error", err)
		s.notifier.Notify(domain.SeverityError, MsgSaveFailed)
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.notifier.Notify(domain.SeveritySuccess, MsgSaved)
	return created, nil
}

// Update saves changes to a listing owned by owner
func (s *Service) Update(ctx context.Context, owner domain.Identity, l *domain.Listing) (*domain.Listing, error) {
	updated, err := s.source.UpdateListing(ctx, owner.UserID, l)
	if err != nil {
		s.logger.Error("failed to update listing", "id", l.ID, "owner", owner.UserID, "error", err)
		s.notifier.Notify(domain.SeverityError, MsgSaveFailed)
		return nil, fmt.Errorf("update listing %s: %w", l.ID, err)
	}

	s.notifier.Notify(domain.SeveritySuccess, MsgSaved)
	return updated, nil
}

// Delete removes a listing owned by owner. Callers hide the listing from
// their view on success; the pagination session itself is never rewritten.
func (s *Service) Delete(ctx context.Context, owner domain.Identity, id string) error {
	if err := s.source.DeleteListing(ctx, owner.UserID, id); err != nil {
		s.logger.Error("failed to delete listing", "id", id, "owner", owner.UserID, "error", err)
		s.notifier.Notify(domain.SeverityError, MsgDeleteFailed)
		return fmt.Errorf("delete listing %s: %w", id, err)
	}

	s.notifier.Notify(domain.SeveritySuccess, MsgDeleted)
	return nil
}

// UpdateProfileName renames the signed-in user
func (s *Service) UpdateProfileName(ctx context.Context, name string) (*domain.Identity, error) {
	if s.profile == nil {
		return nil, fmt.Errorf("profile updates are not available")
	}

	id, err := s.profile.UpdateDisplayName(ctx, name)
	if err != nil {
		s.logger.Error("failed to update profile", "error", err)
		s.notifier.Notify(domain.SeverityError, MsgProfileNotUpdated)
		return nil, err
	}

	s.notifier.Notify(domain.SeveritySuccess, MsgProfileUpdated)
	return id, nil
}
