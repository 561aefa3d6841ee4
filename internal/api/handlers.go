package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mmcdole/homestead/internal/domain"
)

// PageResponse is the body of GET /listings
type PageResponse struct {
	Items      []*domain.Listing `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// EncodeQuery renders a listing query and cursor as GET /listings parameters
func EncodeQuery(q domain.ListingQuery, after *domain.Cursor) url.Values {
	v := url.Values{}
	v.Set("kind", string(q.Filter.Kind))
	switch q.Filter.Kind {
	case domain.FilterCategory:
		v.Set("category", string(q.Filter.Category))
	case domain.FilterOwner:
		v.Set("owner", q.Filter.OwnerID)
	}
	v.Set("limit", strconv.Itoa(q.PageSize))
	if token := after.Token(); token != "" {
		v.Set("cursor", token)
	}
	return v
}

// DecodeQuery is the inverse of EncodeQuery
func DecodeQuery(v url.Values) (domain.ListingQuery, *domain.Cursor, error) {
	limit, err := strconv.Atoi(v.Get("limit"))
	if err != nil {
		return domain.ListingQuery{}, nil, fmt.Errorf("%w: limit must be a number", domain.ErrInvalidQuery)
	}
	if limit > MaxPageSize {
		return domain.ListingQuery{}, nil, fmt.Errorf("%w: limit above %d", domain.ErrInvalidQuery, MaxPageSize)
	}

	q := domain.ListingQuery{
		Filter: domain.Filter{
			Kind:     domain.FilterKind(v.Get("kind")),
			Category: domain.Category(v.Get("category")),
			OwnerID:  v.Get("owner"),
		},
		Sort:     domain.SortTimestampDesc,
		PageSize: limit,
	}
	if err := q.Validate(); err != nil {
		return domain.ListingQuery{}, nil, err
	}

	after, err := domain.ParseCursor(v.Get("cursor"))
	if err != nil {
		return domain.ListingQuery{}, nil, err
	}
	return q, after, nil
}

func (s *Server) listListings(w http.ResponseWriter, r *http.Request) {
	q, after, err := DecodeQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	items, err := s.source.QueryListings(r.Context(), q, after)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if items == nil {
		items = []*domain.Listing{}
	}

	page := domain.NewPage(items, q.PageSize, after)
	s.writeJSON(w, http.StatusOK, PageResponse{Items: items, NextCursor: page.NextCursor.Token()})
}

func (s *Server) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.source.GetListing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, l)
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		s.writeError(w, domain.ErrAuthFailed)
		return
	}

	var l domain.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidListing, err))
		return
	}
	l.OwnerID = userID

	created, err := s.source.CreateListing(r.Context(), &l)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateListing(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		s.writeError(w, domain.ErrAuthFailed)
		return
	}

	var l domain.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidListing, err))
		return
	}
	l.ID = mux.Vars(r)["id"]

	updated, err := s.source.UpdateListing(r.Context(), userID, &l)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteListing(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		s.writeError(w, domain.ErrAuthFailed)
		return
	}

	if err := s.source.DeleteListing(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidCursor),
		errors.Is(err, domain.ErrInvalidListing):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("api request failed", "error", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}
