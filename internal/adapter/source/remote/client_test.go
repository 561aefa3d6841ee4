package remote

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/homestead/internal/adapter"
	"github.com/mmcdole/homestead/internal/api"
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/pager"
	"github.com/mmcdole/homestead/internal/store"
)

func newBackedClient(t *testing.T) (*Client, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "homestead.db"), adapter.NullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	srv := httptest.NewServer(api.NewServer(s, adapter.NullLogger()).Router())
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", adapter.NullLogger())
	c.retryDelay = time.Millisecond
	return c, s
}

func Test_Client_Drives_Pager_Over_HTTP(t *testing.T) {
	t.Parallel()
	c, s := newBackedClient(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := range 10 {
		_, err := s.CreateListing(t.Context(), &domain.Listing{
			Name: "L", Address: "A", Type: domain.CategorySale, OwnerID: "bob",
			Timestamp: base.Add(-time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	sess, err := pager.New(c, nil, adapter.NullLogger()).Open(domain.ListingQuery{
		Filter:   domain.Filter{Kind: domain.FilterCategory, Category: domain.CategorySale},
		PageSize: 4,
	})
	require.NoError(t, err)
	defer sess.Close()

	var counts []int
	snap, err := sess.Initialize(t.Context())
	require.NoError(t, err)
	counts = append(counts, len(snap.Items))
	for !snap.Exhausted() {
		snap, err = sess.LoadNext(t.Context())
		require.NoError(t, err)
		counts = append(counts, len(snap.Items))
	}

	assert.Equal(t, []int{4, 8, 10}, counts)
	for i := 1; i < len(snap.Items); i++ {
		assert.False(t, snap.Items[i].Timestamp.After(snap.Items[i-1].Timestamp))
	}
}

func Test_Client_Maps_Status_Codes_To_Domain_Errors(t *testing.T) {
	t.Parallel()
	c, _ := newBackedClient(t)
	ctx := t.Context()

	_, err := c.GetListing(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	created, err := c.CreateListing(ctx, &domain.Listing{Name: "N", Address: "A", Type: domain.CategoryRent, OwnerID: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	assert.ErrorIs(t, c.DeleteListing(ctx, "mallory", created.ID), domain.ErrNotOwner)

	created.Name = "Renamed"
	updated, err := c.UpdateListing(ctx, "alice", created)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, c.DeleteListing(ctx, "alice", created.ID))
	assert.ErrorIs(t, c.DeleteListing(ctx, "", created.ID), domain.ErrAuthFailed)
}

func Test_Client_Retries_Server_Errors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"l1","type":"rent","owner_id":"o"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	c.retryDelay = time.Millisecond

	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterCategory, Category: domain.CategoryRent}, PageSize: 4}
	items, err := c.QueryListings(t.Context(), q, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "l1", items[0].ID)
	assert.Equal(t, int32(3), calls.Load())
}

func Test_Client_Gives_Up_After_Retries_And_Reports_Retryable(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, adapter.NullLogger())
	c.retryDelay = time.Millisecond

	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOffer}, PageSize: 4}
	_, err := c.QueryListings(t.Context(), q, nil)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func Test_Client_Reports_Offline_Server(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, adapter.NullLogger())
	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOffer}, PageSize: 4}
	_, err := c.QueryListings(t.Context(), q, nil)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
}

func Test_Client_Refuses_Pages_Above_Server_Limit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, adapter.NullLogger())
	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOffer}, PageSize: api.MaxPageSize + 1}
	_, err := c.QueryListings(t.Context(), q, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	assert.False(t, domain.IsRetryable(err))
	assert.Zero(t, calls.Load())
}

func Test_MapStatus_Distinguishes_Bad_Queries_From_Bad_Listings(t *testing.T) {
	t.Parallel()

	body := []byte(`{"error":"limit must be a number"}`)
	err := mapStatus(http.MethodGet, http.StatusBadRequest, body)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
	assert.Contains(t, err.Error(), "limit must be a number")

	assert.ErrorIs(t, mapStatus(http.MethodPost, http.StatusBadRequest, body), domain.ErrInvalidListing)
	assert.ErrorIs(t, mapStatus(http.MethodGet, http.StatusUnauthorized, nil), domain.ErrAuthFailed)

	var se *statusError
	assert.ErrorAs(t, mapStatus(http.MethodGet, http.StatusTeapot, []byte("short and stout")), &se)
}
