package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/homestead/internal/domain"
)

func Test_Filter_Match_Selects_By_Kind(t *testing.T) {
	t.Parallel()

	rent := &domain.Listing{ID: "a", Type: domain.CategoryRent, OwnerID: "u1"}
	saleOffer := &domain.Listing{ID: "b", Type: domain.CategorySale, Offer: true, OwnerID: "u2"}

	testCases := []struct {
		name   string
		filter domain.Filter
		want   []bool
	}{
		{"CategoryRent", domain.Filter{Kind: domain.FilterCategory, Category: domain.CategoryRent}, []bool{true, false}},
		{"CategorySale", domain.Filter{Kind: domain.FilterCategory, Category: domain.CategorySale}, []bool{false, true}},
		{"Offer", domain.Filter{Kind: domain.FilterOffer}, []bool{false, true}},
		{"Owner", domain.Filter{Kind: domain.FilterOwner, OwnerID: "u1"}, []bool{true, false}},
		{"UnknownKind", domain.Filter{Kind: "bogus"}, []bool{false, false}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want[0], testCase.filter.Match(rent))
			assert.Equal(t, testCase.want[1], testCase.filter.Match(saleOffer))
			assert.False(t, testCase.filter.Match(nil))
		})
	}
}

func Test_ListingQuery_Validate_Rejects_NonPositive_PageSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		q := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOffer}, PageSize: size}
		require.ErrorIs(t, q.Validate(), domain.ErrInvalidQuery, "page size %d", size)
	}

	ok := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOffer}, Sort: domain.SortTimestampDesc, PageSize: 4}
	require.NoError(t, ok.Validate())

	missingOwner := domain.ListingQuery{Filter: domain.Filter{Kind: domain.FilterOwner}, PageSize: 4}
	require.ErrorIs(t, missingOwner.Validate(), domain.ErrInvalidQuery)
}

func Test_NewPage_Marks_Short_Page_As_Last(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []*domain.Listing{
		{ID: "a", Timestamp: ts},
		{ID: "b", Timestamp: ts.Add(-time.Minute)},
	}

	full := domain.NewPage(items, 2, nil)
	assert.False(t, full.IsLastPage)
	require.NotNil(t, full.NextCursor)
	assert.Equal(t, "b", full.NextCursor.ID)

	short := domain.NewPage(items, 4, nil)
	assert.True(t, short.IsLastPage)

	prev := &domain.Cursor{Timestamp: ts, ID: "z"}
	empty := domain.NewPage(nil, 4, prev)
	assert.True(t, empty.IsLastPage)
	assert.Same(t, prev, empty.NextCursor)
}

func Test_Cursor_Precedes_Breaks_Timestamp_Ties_By_ID(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &domain.Cursor{Timestamp: ts, ID: "m"}

	assert.True(t, c.Precedes(&domain.Listing{ID: "a", Timestamp: ts.Add(-time.Second)}))
	assert.False(t, c.Precedes(&domain.Listing{ID: "z", Timestamp: ts.Add(time.Second)}))
	assert.True(t, c.Precedes(&domain.Listing{ID: "n", Timestamp: ts}))
	assert.False(t, c.Precedes(&domain.Listing{ID: "m", Timestamp: ts}))
	assert.False(t, c.Precedes(&domain.Listing{ID: "a", Timestamp: ts}))

	var start *domain.Cursor
	assert.True(t, start.Precedes(&domain.Listing{ID: "a", Timestamp: ts}))
}

func Test_Cursor_Token_Decodes_To_Same_Position(t *testing.T) {
	t.Parallel()

	c := &domain.Cursor{Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC), ID: "listing-7"}

	got, err := domain.ParseCursor(c.Token())
	require.NoError(t, err)
	assert.True(t, got.Timestamp.Equal(c.Timestamp))
	assert.Equal(t, c.ID, got.ID)

	none, err := domain.ParseCursor("")
	require.NoError(t, err)
	assert.Nil(t, none)

	var nilCursor *domain.Cursor
	assert.Empty(t, nilCursor.Token())
}

func Test_ParseCursor_Returns_ErrInvalidCursor_When_Token_Garbled(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"!!!", "aGVsbG8"} {
		_, err := domain.ParseCursor(token)
		require.ErrorIs(t, err, domain.ErrInvalidCursor, "token %q", token)
	}
}

func Test_IsRetryable_Classifies_Fetch_Failures(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.IsRetryable(domain.NewFetchError("load next", domain.ErrServerOffline)))
	assert.True(t, domain.IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.False(t, domain.IsRetryable(domain.NewFetchError("initialize", domain.ErrAuthFailed)))
	assert.False(t, domain.IsRetryable(domain.NewFetchError("initialize", domain.ErrInvalidQuery)))
	assert.False(t, domain.IsRetryable(nil))

	fe := domain.NewFetchError("initialize", domain.ErrServerOffline)
	assert.True(t, errors.Is(fe, domain.ErrServerOffline))
	assert.Equal(t, "initialize: listing server is unreachable", fe.Error())
}

func Test_Listing_CheckRequired_Reports_Missing_Fields(t *testing.T) {
	t.Parallel()

	l := &domain.Listing{Name: "Loft", Address: "1 Main St", Type: domain.CategorySale, OwnerID: "u1"}
	require.NoError(t, l.CheckRequired())

	l.Address = " "
	require.ErrorIs(t, l.CheckRequired(), domain.ErrInvalidListing)
}

func Test_Listing_FormattedPrice_Uses_Discount_For_Offers(t *testing.T) {
	t.Parallel()

	l := &domain.Listing{Type: domain.CategoryRent, Offer: true, RegularPrice: 2500, DiscountedPrice: 2100}
	assert.Equal(t, "$2,100 / month", l.FormattedPrice())

	l = &domain.Listing{Type: domain.CategorySale, RegularPrice: 1250000}
	assert.Equal(t, "$1,250,000", l.FormattedPrice())
}
