package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/homestead/internal/adapter"
	"github.com/mmcdole/homestead/internal/api"
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/store"
)

func newServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "homestead.db"), adapter.NullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	srv := httptest.NewServer(api.NewServer(s, adapter.NullLogger()).Router())
	t.Cleanup(srv.Close)
	return srv, s
}

func do(t *testing.T, method, url, user, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(api.UserHeader, user)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func Test_EncodeQuery_And_DecodeQuery_Agree(t *testing.T) {
	t.Parallel()

	q := domain.ListingQuery{
		Filter:   domain.Filter{Kind: domain.FilterOwner, OwnerID: "alice"},
		Sort:     domain.SortTimestampDesc,
		PageSize: 3,
	}
	after := &domain.Cursor{Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC), ID: "l9"}

	got, gotAfter, err := api.DecodeQuery(api.EncodeQuery(q, after))
	require.NoError(t, err)
	assert.Equal(t, q, got)
	require.NotNil(t, gotAfter)
	assert.True(t, after.Timestamp.Equal(gotAfter.Timestamp))
	assert.Equal(t, "l9", gotAfter.ID)
}

func Test_DecodeQuery_Rejects_Bad_Parameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  error
	}{
		{name: "missing limit", query: "kind=offer", want: domain.ErrInvalidQuery},
		{name: "zero limit", query: "kind=offer&limit=0", want: domain.ErrInvalidQuery},
		{name: "huge limit", query: "kind=offer&limit=1000", want: domain.ErrInvalidQuery},
		{name: "unknown kind", query: "kind=price&limit=4", want: domain.ErrInvalidQuery},
		{name: "bad category", query: "kind=category&category=lease&limit=4", want: domain.ErrInvalidQuery},
		{name: "garbled cursor", query: "kind=offer&limit=4&cursor=%21%21", want: domain.ErrInvalidCursor},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/listings?"+tt.query, nil)
		_, _, err := api.DecodeQuery(req.URL.Query())
		assert.ErrorIs(t, err, tt.want, tt.name)
	}
}

func Test_ListListings_Pages_With_Next_Cursor(t *testing.T) {
	t.Parallel()
	srv, s := newServer(t)

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, err := s.CreateListing(t.Context(), &domain.Listing{
			ID: id, Name: id, Address: id, Type: domain.CategoryRent, Offer: true,
			OwnerID: "alice", Timestamp: base.Add(-time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	resp := do(t, http.MethodGet, srv.URL+"/listings?kind=offer&limit=2", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page api.PageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)
	require.NotEmpty(t, page.NextCursor)

	resp = do(t, http.MethodGet, srv.URL+"/listings?kind=offer&limit=2&cursor="+page.NextCursor, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = api.PageResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c", page.Items[0].ID)

	resp = do(t, http.MethodGet, srv.URL+"/listings?kind=offer&limit=0", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_Write_Endpoints_Enforce_Ownership(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t)

	body := `{"name":"Loft","address":"9 Dock Rd","type":"sale","regular_price":250000}`
	resp := do(t, http.MethodPost, srv.URL+"/listings", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/listings", "alice", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.Listing
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "alice", created.OwnerID)

	resp = do(t, http.MethodPut, srv.URL+"/listings/"+created.ID, "mallory", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/listings/"+created.ID, "mallory", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/listings/"+created.ID, "alice", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/listings/"+created.ID, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var apiErr api.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.NotEmpty(t, apiErr.Error)
}

func Test_StatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, api.StatusFor(domain.ErrInvalidCursor))
	assert.Equal(t, http.StatusForbidden, api.StatusFor(domain.ErrNotOwner))
	assert.Equal(t, http.StatusNotFound, api.StatusFor(domain.ErrListingNotFound))
	assert.Equal(t, http.StatusInternalServerError, api.StatusFor(assert.AnError))
}
