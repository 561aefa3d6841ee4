// Package pager implements incremental, cursor-based listing pagination.
//
// An Engine opens one Session per (view, filter). A Session accumulates pages
// append-only, advances its cursor forward only, allows a single fetch in
// flight, and ignores completions that arrive after it is closed.
package pager

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmcdole/homestead/internal/domain"
)

// ErrSessionClosed is returned by fetches on a closed session, including a
// fetch whose result arrived after Close.
var ErrSessionClosed = errors.New("pagination session closed")

// FetchFailedMessage is the notification sent when a page fetch fails
const FetchFailedMessage = "Could not fetch listings"

const (
	opInitialize = "initialize"
	opLoadNext   = "load next"
)

// Engine creates pagination sessions against one repository
type Engine struct {
	repo     domain.ListingRepository
	notifier domain.Notifier
	logger   *slog.Logger
}

// New creates a new Engine. A nil notifier discards notifications.
func New(repo domain.ListingRepository, notifier domain.Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = domain.NoOpNotifier{}
	}
	return &Engine{repo: repo, notifier: notifier, logger: logger}
}

// Open validates q and returns an idle session for it. Nothing is fetched
// until Initialize or LoadNext.
func (e *Engine) Open(q domain.ListingQuery) (*Session, error) {
	if q.Sort == "" {
		q.Sort = domain.SortTimestampDesc
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		engine: e,
		query:  q,
		life:   ctx,
		cancel: cancel,
		logger: e.logger.With("filter", q.Filter.String(), "pageSize", q.PageSize),
	}, nil
}

// Session is the pagination state of one mounted listing view under one filter
type Session struct {
	engine *Engine
	query  domain.ListingQuery
	logger *slog.Logger

	// life is cancelled by Close; in-flight fetches derive from it
	life   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	items   []*domain.Listing
	cursor  *domain.Cursor
	pages   int
	lastErr error
	closed  bool
}

// Query returns the immutable query the session was opened with
func (s *Session) Query() domain.ListingQuery { return s.query }

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Initialize issues the first fetch. It is a no-op once a page is held, and a
// retry when the first fetch failed.
func (s *Session) Initialize(ctx context.Context) (Snapshot, error) {
	return s.advance(ctx, opInitialize)
}

// LoadNext fetches the page after the cursor and appends it.
//
// The call does nothing and returns the unchanged snapshot when the session
// is exhausted or another fetch is in flight. On failure the accumulated
// items and cursor are untouched, so calling LoadNext again retries the same
// page.
func (s *Session) LoadNext(ctx context.Context) (Snapshot, error) {
	return s.advance(ctx, opLoadNext)
}

// LoadAll fetches pages until the session is exhausted. If another caller's
// fetch is in flight it returns what is held so far.
func (s *Session) LoadAll(ctx context.Context) (Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		default:
		}

		snap, err := s.LoadNext(ctx)
		if err != nil || snap.State != StateLoaded {
			return snap, err
		}
	}
}

// Close ends the session: an in-flight fetch is cancelled and its result
// discarded. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

func (s *Session) advance(ctx context.Context, op string) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrSessionClosed
	}
	if s.state == StateLoading || s.state == StateExhausted || (op == opInitialize && s.pages > 0) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	cursor := s.cursor
	s.state = StateLoading
	s.mu.Unlock()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.life, cancel)
	defer stop()

	items, err := s.engine.repo.QueryListings(fetchCtx, s.query, cursor)

	s.mu.Lock()
	if s.closed {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.Debug("discarded late page", "op", op)
		return snap, ErrSessionClosed
	}

	if err != nil {
		fe := domain.NewFetchError(op, err)
		s.state = StateFailed
		s.lastErr = fe
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.Error("failed to fetch page", "op", op, "error", err, "retryable", fe.Retryable)
		s.engine.notifier.Notify(domain.SeverityError, FetchFailedMessage)
		return snap, fe
	}

	if len(items) > s.query.PageSize {
		s.logger.Warn("repository returned oversized page", "count", len(items))
		items = items[:s.query.PageSize]
	}
	page := domain.NewPage(items, s.query.PageSize, cursor)

	s.items = append(s.items, s.conforming(page.Items)...)
	s.cursor = page.NextCursor
	s.pages++
	s.lastErr = nil
	if page.IsLastPage {
		s.state = StateExhausted
	} else {
		s.state = StateLoaded
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("fetched page",
		"op", op,
		"count", len(page.Items),
		"total", len(snap.Items),
		"pages", snap.Pages,
		"exhausted", page.IsLastPage,
	)
	return snap, nil
}

// conforming drops records outside the session filter
func (s *Session) conforming(items []*domain.Listing) []*domain.Listing {
	kept := make([]*domain.Listing, 0, len(items))
	for _, l := range items {
		if !s.query.Filter.Match(l) {
			s.logger.Warn("dropping listing outside filter", "listingID", listingID(l))
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

func (s *Session) snapshotLocked() Snapshot {
	items := make([]*domain.Listing, len(s.items))
	copy(items, s.items)
	return Snapshot{
		State:  s.state,
		Items:  items,
		Cursor: s.cursor,
		Pages:  s.pages,
		Err:    s.lastErr,
	}
}

func listingID(l *domain.Listing) string {
	if l == nil {
		return ""
	}
	return l.ID
}
