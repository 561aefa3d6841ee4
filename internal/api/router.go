// Package api serves a listing source over HTTP so other clients can use it
// as a remote listing repository.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmcdole/homestead/internal/domain"
)

// UserHeader carries the acting user ID on write requests
const UserHeader = "X-Homestead-User"

// MaxPageSize caps the limit query parameter
const MaxPageSize = domain.MaxPageSize

// Server exposes a domain.ListingSource as JSON endpoints
type Server struct {
	source domain.ListingSource
	logger *slog.Logger
}

// NewServer creates a new Server
func NewServer(source domain.ListingSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{source: source, logger: logger}
}

// Router returns the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	r.HandleFunc("/listings", s.listListings).Methods(http.MethodGet)
	r.HandleFunc("/listings", s.createListing).Methods(http.MethodPost)
	r.HandleFunc("/listings/{id}", s.getListing).Methods(http.MethodGet)
	r.HandleFunc("/listings/{id}", s.updateListing).Methods(http.MethodPut)
	r.HandleFunc("/listings/{id}", s.deleteListing).Methods(http.MethodDelete)

	r.Use(s.logRequests)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("api request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}
