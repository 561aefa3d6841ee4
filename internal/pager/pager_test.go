package pager_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/pager"
)

// fakeRepo serves listings from memory in cursor order.
type fakeRepo struct {
	mu       sync.Mutex
	listings []*domain.Listing
	calls    atomic.Int32

	failNext error           // returned once by the next call
	hold     chan struct{}   // when set, calls block until closed
	entered  chan struct{}   // signalled when a call starts
	extra    *domain.Listing // appended to every page, ignoring the filter
}

func newFakeRepo(listings ...*domain.Listing) *fakeRepo {
	sorted := append([]*domain.Listing(nil), listings...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Timestamp.Equal(b.Timestamp) {
			return a.ID < b.ID
		}
		return a.Timestamp.After(b.Timestamp)
	})
	return &fakeRepo{listings: sorted, entered: make(chan struct{}, 16)}
}

func (r *fakeRepo) QueryListings(ctx context.Context, q domain.ListingQuery, after *domain.Cursor) ([]*domain.Listing, error) {
	r.calls.Add(1)
	r.entered <- struct{}{}

	r.mu.Lock()
	hold := r.hold
	failNext := r.failNext
	r.failNext = nil
	r.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failNext != nil {
		return nil, failNext
	}

	var page []*domain.Listing
	for _, l := range r.listings {
		if len(page) == q.PageSize {
			break
		}
		if q.Filter.Match(l) && after.Precedes(l) {
			page = append(page, l)
		}
	}
	if r.extra != nil && len(page) < q.PageSize {
		page = append(page, r.extra)
	}
	return page, nil
}

func (r *fakeRepo) block() {
	r.mu.Lock()
	r.hold = make(chan struct{})
	r.mu.Unlock()
}

func (r *fakeRepo) release() {
	r.mu.Lock()
	close(r.hold)
	r.hold = nil
	r.mu.Unlock()
}

func (r *fakeRepo) failOnce(err error) {
	r.mu.Lock()
	r.failNext = err
	r.mu.Unlock()
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(severity domain.Severity, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, severity.String()+": "+message)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

var base = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

// makeListings returns n listings of the given category, newest first by index.
func makeListings(prefix string, n int, cat domain.Category, offer bool) []*domain.Listing {
	out := make([]*domain.Listing, n)
	for i := range out {
		out[i] = &domain.Listing{
			ID:        fmt.Sprintf("%s-%02d", prefix, i),
			Name:      fmt.Sprintf("%s home %d", prefix, i),
			Type:      cat,
			Offer:     offer,
			OwnerID:   "owner-" + prefix,
			Timestamp: base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return out
}

func ids(items []*domain.Listing) []string {
	out := make([]string, len(items))
	for i, l := range items {
		out[i] = l.ID
	}
	return out
}

func rentQuery(size int) domain.ListingQuery {
	return domain.ListingQuery{
		Filter:   domain.Filter{Kind: domain.FilterCategory, Category: domain.CategoryRent},
		PageSize: size,
	}
}

func openSession(t *testing.T, repo domain.ListingRepository, q domain.ListingQuery, n domain.Notifier) *pager.Session {
	t.Helper()

	session, err := pager.New(repo, n, nil).Open(q)
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func Test_Session_Pages_Four_Four_Two_When_Ten_Records_Match(t *testing.T) {
	t.Parallel()

	rent := makeListings("rent", 10, domain.CategoryRent, false)
	sale := makeListings("sale", 5, domain.CategorySale, true)
	repo := newFakeRepo(append(rent, sale...)...)
	session := openSession(t, repo, rentQuery(4), nil)

	snap, err := session.Initialize(t.Context())
	require.NoError(t, err)
	assert.Len(t, snap.Items, 4)
	assert.Equal(t, pager.StateLoaded, snap.State)

	snap, err = session.LoadNext(t.Context())
	require.NoError(t, err)
	assert.Len(t, snap.Items, 8)
	assert.False(t, snap.Exhausted())

	snap, err = session.LoadNext(t.Context())
	require.NoError(t, err)
	assert.Len(t, snap.Items, 10)
	assert.True(t, snap.Exhausted())
	assert.Equal(t, 3, snap.Pages)

	if diff := cmp.Diff(ids(rent), ids(snap.Items)); diff != "" {
		t.Fatalf("accumulated order mismatch (-want +got):\n%s", diff)
	}
}

func Test_Session_Enters_Empty_State_Not_Failed_When_No_Records_Match(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(makeListings("sale", 3, domain.CategorySale, false)...)
	session := openSession(t, repo, rentQuery(4), nil)

	snap, err := session.Initialize(t.Context())
	require.NoError(t, err)
	assert.True(t, snap.Empty())
	assert.True(t, snap.Exhausted())
	assert.NoError(t, snap.Err)
	assert.Nil(t, snap.Cursor)
	assert.False(t, snap.CanLoadMore())
}

func Test_LoadNext_Is_NoOp_When_Session_Exhausted(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(makeListings("rent", 6, domain.CategoryRent, false)...)
	notifier := &recordingNotifier{}
	session := openSession(t, repo, rentQuery(4), notifier)

	_, err := session.Initialize(t.Context())
	require.NoError(t, err)
	final, err := session.LoadNext(t.Context())
	require.NoError(t, err)
	require.True(t, final.Exhausted())

	callsAtExhaustion := repo.calls.Load()

	for range 3 {
		snap, err := session.LoadNext(t.Context())
		require.NoError(t, err)
		assert.Equal(t, ids(final.Items), ids(snap.Items))
		assert.True(t, snap.Exhausted())
	}

	assert.Equal(t, callsAtExhaustion, repo.calls.Load())
	assert.Empty(t, notifier.all())
}

func Test_LoadNext_Allows_Single_Flight_When_Called_Concurrently(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(makeListings("rent", 12, domain.CategoryRent, false)...)
	session := openSession(t, repo, rentQuery(4), nil)

	_, err := session.Initialize(t.Context())
	require.NoError(t, err)
	<-repo.entered

	repo.block()

	done := make(chan pager.Snapshot)
	go func() {
		snap, err := session.LoadNext(context.Background())
		assert.NoError(t, err)
		done <- snap
	}()
	<-repo.entered

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := session.LoadNext(context.Background())
			assert.NoError(t, err)
			assert.True(t, snap.InFlight())
			assert.Len(t, snap.Items, 4)
		}()
	}
	wg.Wait()

	repo.release()
	snap := <-done

	assert.Len(t, snap.Items, 8)
	assert.Equal(t, int32(2), repo.calls.Load())

	seen := make(map[string]bool)
	for _, l := range snap.Items {
		require.False(t, seen[l.ID], "duplicate %s", l.ID)
		seen[l.ID] = true
	}
}

func Test_Initialize_Notifies_And_Allows_Retry_When_Repository_Fails(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(makeListings("rent", 5, domain.CategoryRent, false)...)
	notifier := &recordingNotifier{}
	session := openSession(t, repo, rentQuery(4), notifier)

	repo.failOnce(domain.ErrServerOffline)

	snap, err := session.Initialize(t.Context())
	require.Error(t, err)

	var fe *domain.FetchError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Retryable)
	assert.ErrorIs(t, err, domain.ErrServerOffline)

	assert.Equal(t, pager.StateFailed, snap.State)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Exhausted())
	assert.False(t, snap.Empty())
	assert.Equal(t, []string{"error: " + pager.FetchFailedMessage}, notifier.all())

	snap, err = session.Initialize(t.Context())
	require.NoError(t, err)
	assert.Len(t, snap.Items, 4)
	assert.Equal(t, pager.StateLoaded, snap.State)
}

func Test_LoadNext_Keeps_State_And_Retries_Same_Cursor_When_Repository_Fails(t *testing.T) {
	t.Parallel()

	rent := makeListings("rent", 7, domain.CategoryRent, false)
	repo := newFakeRepo(rent...)
	notifier := &recordingNotifier{}
	session := openSession(t, repo, rentQuery(4), notifier)

	first, err := session.Initialize(t.Context())
	require.NoError(t, err)

	repo.failOnce(errors.New("boom"))
	failed, err := session.LoadNext(t.Context())
	require.Error(t, err)
	assert.Equal(t, ids(first.Items), ids(failed.Items))
	assert.Equal(t, first.Cursor, failed.Cursor)
	assert.True(t, failed.CanLoadMore())
	assert.Len(t, notifier.all(), 1)

	snap, err := session.LoadNext(t.Context())
	require.NoError(t, err)
	assert.True(t, snap.Exhausted())
	assert.Equal(t, ids(rent), ids(snap.Items))
}

func Test_Initialize_Is_NoOp_When_Page_Already_Held(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(makeListings("rent", 9, domain.CategoryRent, false)...)
	session := openSession(t, repo, rentQuery(4), nil)

	_, err := session.Initialize(t.Context())
	require.NoError(t, err)
	snap, err := session.Initialize(t.Context())
	require.NoError(t, err)

	assert.Len(t, snap.Items, 4)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func Test_Session_Discards_Late_Page_When_Closed_Mid_Fetch(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(makeListings("rent", 5, domain.CategoryRent, false)...)
	notifier := &recordingNotifier{}
	session := openSession(t, repo, rentQuery(4), notifier)

	repo.block()

	done := make(chan error)
	go func() {
		_, err := session.Initialize(context.Background())
		done <- err
	}()
	<-repo.entered

	session.Close()
	err := <-done
	repo.release()

	require.ErrorIs(t, err, pager.ErrSessionClosed)
	snap := session.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.Pages)
	assert.Empty(t, notifier.all())

	_, err = session.LoadNext(t.Context())
	require.ErrorIs(t, err, pager.ErrSessionClosed)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func Test_Open_Rejects_Query_When_PageSize_Not_Positive(t *testing.T) {
	t.Parallel()

	engine := pager.New(newFakeRepo(), nil, nil)

	_, err := engine.Open(rentQuery(0))
	require.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func Test_Session_Drops_Records_Outside_Filter(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(makeListings("rent", 2, domain.CategoryRent, false)...)
	repo.extra = &domain.Listing{ID: "intruder", Type: domain.CategorySale, Timestamp: base}
	session := openSession(t, repo, rentQuery(4), nil)

	snap, err := session.Initialize(t.Context())
	require.NoError(t, err)

	for _, l := range snap.Items {
		assert.Equal(t, domain.CategoryRent, l.Type)
	}
	assert.Equal(t, []string{"rent-00", "rent-01"}, ids(snap.Items))
	assert.True(t, snap.Exhausted())
}

func Test_LoadAll_Fetches_Until_Exhausted_For_Owner_Filter(t *testing.T) {
	t.Parallel()

	mine := makeListings("me", 7, domain.CategorySale, false)
	theirs := makeListings("them", 4, domain.CategorySale, false)
	repo := newFakeRepo(append(mine, theirs...)...)

	q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOwner, OwnerID: "owner-me"}, PageSize: 3}
	session := openSession(t, repo, q, nil)

	snap, err := session.LoadAll(t.Context())
	require.NoError(t, err)
	assert.True(t, snap.Exhausted())
	assert.Equal(t, ids(mine), ids(snap.Items))
	assert.Equal(t, int32(3), repo.calls.Load())
}

func Test_Accumulated_Grows_Strictly_Until_Exhausted(t *testing.T) {
	t.Parallel()

	for total := 0; total <= 13; total++ {
		for size := 1; size <= 5; size++ {
			t.Run(fmt.Sprintf("total=%d/size=%d", total, size), func(t *testing.T) {
				t.Parallel()

				rent := makeListings("rent", total, domain.CategoryRent, false)
				repo := newFakeRepo(rent...)
				session := openSession(t, repo, rentQuery(size), nil)

				prev := -1
				for step := 0; ; step++ {
					require.Less(t, step, total+2, "did not exhaust")

					snap, err := session.LoadNext(t.Context())
					require.NoError(t, err)

					if !snap.Exhausted() {
						require.Greater(t, len(snap.Items), prev)
					} else {
						require.GreaterOrEqual(t, len(snap.Items), prev)
						require.Equal(t, ids(rent), ids(snap.Items))
						break
					}
					prev = len(snap.Items)
				}
			})
		}
	}
}
