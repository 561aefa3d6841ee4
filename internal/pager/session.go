package pager

import (
	"github.com/mmcdole/homestead/internal/domain"
)

// State is the explicit lifecycle tag of a Session
type State int

const (
	StateIdle      State = iota // Opened, nothing fetched yet
	StateLoading                // A fetch is in flight
	StateLoaded                 // At least one page held, more may exist
	StateExhausted              // Last page seen; terminal
	StateFailed                 // Last fetch failed; accumulated data kept
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of a session's state. Items is owned by
// the caller.
type Snapshot struct {
	State  State
	Items  []*domain.Listing
	Cursor *domain.Cursor
	Pages  int   // Successful fetches so far
	Err    error // Last failure (StateFailed only)
}

// Exhausted reports whether the last page has been seen
func (s Snapshot) Exhausted() bool { return s.State == StateExhausted }

// InFlight reports whether a fetch is running
func (s Snapshot) InFlight() bool { return s.State == StateLoading }

// Empty is the "no current listings" state: the collection was fully read and
// held nothing. A failed first fetch is not Empty.
func (s Snapshot) Empty() bool { return s.State == StateExhausted && len(s.Items) == 0 }

// CanLoadMore reports whether a "load more" action would fetch
func (s Snapshot) CanLoadMore() bool {
	return s.State == StateLoaded || (s.State == StateFailed && s.Pages > 0)
}
