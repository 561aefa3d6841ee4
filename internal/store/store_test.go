package store_test

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/store"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db", "homestead.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *store.Store, listings ...domain.Listing) {
	t.Helper()
	for i := range listings {
		_, err := s.CreateListing(t.Context(), &listings[i])
		require.NoError(t, err)
	}
}

func listing(id string, cat domain.Category, offer bool, owner string, age time.Duration) domain.Listing {
	return domain.Listing{
		ID:           id,
		Name:         "Listing " + id,
		Address:      id + " Main St",
		Type:         cat,
		Offer:        offer,
		RegularPrice: 1000,
		OwnerID:      owner,
		Timestamp:    base.Add(-age),
	}
}

func ids(items []*domain.Listing) []string {
	out := make([]string, len(items))
	for i, l := range items {
		out[i] = l.ID
	}
	return out
}

func Test_QueryListings_Orders_Newest_First_And_Breaks_Ties_By_ID(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	seed(t, s,
		listing("c", domain.CategoryRent, false, "o1", time.Hour),
		listing("b", domain.CategoryRent, false, "o1", time.Minute),
		listing("a", domain.CategoryRent, false, "o1", time.Minute),
		listing("d", domain.CategoryRent, false, "o1", 0),
	)

	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterCategory, Category: domain.CategoryRent}, PageSize: 10}
	items, err := s.QueryListings(t.Context(), q, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(items))
}

func Test_QueryListings_Pages_Through_Collection_With_Cursor(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	var all []domain.Listing
	for i := range 10 {
		cat := domain.CategoryRent
		if i%3 == 0 {
			cat = domain.CategorySale
		}
		all = append(all, listing(fmt.Sprintf("l%02d", i), cat, false, "o1", time.Duration(i)*time.Minute))
	}
	seed(t, s, all...)

	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterCategory, Category: domain.CategoryRent}, PageSize: 4}

	var got []string
	var after *domain.Cursor
	for range 5 {
		items, err := s.QueryListings(t.Context(), q, after)
		require.NoError(t, err)
		got = append(got, ids(items)...)
		page := domain.NewPage(items, q.PageSize, after)
		after = page.NextCursor
		if page.IsLastPage {
			break
		}
	}

	want := []string{"l01", "l02", "l04", "l05", "l07", "l08"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paged ids mismatch (-want +got):\n%s", diff)
	}
}

func Test_QueryListings_Applies_Each_Filter_Kind(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	seed(t, s,
		listing("r1", domain.CategoryRent, true, "alice", 1*time.Minute),
		listing("s1", domain.CategorySale, false, "bob", 2*time.Minute),
		listing("s2", domain.CategorySale, true, "alice", 3*time.Minute),
	)

	tests := []struct {
		name   string
		filter domain.Filter
		want   []string
	}{
		{name: "sale", filter: domain.Filter{Kind: domain.FilterCategory, Category: domain.CategorySale}, want: []string{"s1", "s2"}},
		{name: "offers", filter: domain.Filter{Kind: domain.FilterOffer}, want: []string{"r1", "s2"}},
		{name: "owner", filter: domain.Filter{Kind: domain.FilterOwner, OwnerID: "alice"}, want: []string{"r1", "s2"}},
		{name: "nobody", filter: domain.Filter{Kind: domain.FilterOwner, OwnerID: "carol"}, want: nil},
		{name: "all", filter: domain.Filter{Kind: domain.FilterAll}, want: []string{"r1", "s1", "s2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := s.QueryListings(t.Context(), domain.ListingQuery{Filter: tt.filter, PageSize: 10}, nil)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, items)
				return
			}
			assert.Equal(t, tt.want, ids(items))
		})
	}
}

func Test_QueryListings_Latest_Stops_At_Limit_Across_Kinds(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	seed(t, s,
		listing("old", domain.CategoryRent, false, "alice", time.Hour),
		listing("sale", domain.CategorySale, false, "bob", time.Minute),
		listing("new", domain.CategoryRent, true, "carol", 0),
	)

	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterAll}, PageSize: 2}
	items, err := s.QueryListings(t.Context(), q, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "sale"}, ids(items))
}

func Test_QueryListings_Rejects_Invalid_Query(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	_, err := s.QueryListings(t.Context(), domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOffer}}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func Test_CreateListing_Assigns_ID_And_Timestamp(t *testing.T) {
	t.Parallel()
	s := openStore(t)

	created, err := s.CreateListing(t.Context(), &domain.Listing{
		Name: "Cottage", Address: "1 Lane", Type: domain.CategorySale, OwnerID: "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Timestamp.IsZero())

	got, err := s.GetListing(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cottage", got.Name)
	assert.True(t, created.Timestamp.Equal(got.Timestamp))

	_, err = s.CreateListing(t.Context(), &domain.Listing{Name: "No owner", Address: "x", Type: domain.CategoryRent})
	assert.ErrorIs(t, err, domain.ErrInvalidListing)
}

func Test_Update_And_Delete_Require_Owner(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	seed(t, s, listing("l1", domain.CategoryRent, false, "alice", 0))

	edit := listing("l1", domain.CategoryRent, true, "mallory", 0)
	edit.Name = "Hijacked"
	_, err := s.UpdateListing(t.Context(), "mallory", &edit)
	require.ErrorIs(t, err, domain.ErrNotOwner)
	require.ErrorIs(t, s.DeleteListing(t.Context(), "mallory", "l1"), domain.ErrNotOwner)

	// warm the cache so the update must invalidate it
	_, err = s.GetListing(t.Context(), "l1")
	require.NoError(t, err)

	edit.Name = "Renovated"
	updated, err := s.UpdateListing(t.Context(), "alice", &edit)
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.OwnerID)

	got, err := s.GetListing(t.Context(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "Renovated", got.Name)
	assert.True(t, got.Offer)

	require.NoError(t, s.DeleteListing(t.Context(), "alice", "l1"))
	_, err = s.GetListing(t.Context(), "l1")
	require.ErrorIs(t, err, domain.ErrListingNotFound)

	items, err := s.QueryListings(t.Context(), domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOwner, OwnerID: "alice"}, PageSize: 5}, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.ErrorIs(t, s.DeleteListing(t.Context(), "alice", "l1"), domain.ErrListingNotFound)
}

func Test_Users_Keep_Email_Index_Unique(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	ctx := t.Context()

	alice := &domain.User{ID: "u1", Email: "alice@example.com", Name: "Alice"}
	require.NoError(t, s.SaveUser(ctx, alice))
	require.ErrorIs(t, s.SaveUser(ctx, &domain.User{ID: "u2", Email: "alice@example.com"}), domain.ErrUserExists)

	got, err := s.GetUserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	alice.Email = "a@example.com"
	require.NoError(t, s.SaveUser(ctx, alice))

	_, err = s.GetUserByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	got, err = s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
}

func Test_Session_Survives_Reopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "homestead.db")

	s, err := store.Open(path, nil)
	require.NoError(t, err)
	id, err := s.LoadSession(t.Context())
	require.NoError(t, err)
	assert.Empty(t, id)
	require.NoError(t, s.SaveSession(t.Context(), "u1"))
	require.NoError(t, s.Close())

	s, err = store.Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	id, err = s.LoadSession(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	require.NoError(t, s.SaveSession(t.Context(), ""))
	id, err = s.LoadSession(t.Context())
	require.NoError(t, err)
	assert.Empty(t, id)
}
