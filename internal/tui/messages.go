package tui

import (
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/pager"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// PageLoadedMsg carries a session snapshot after a fetch finished. Err is
// set when the fetch failed; the snapshot still holds everything loaded
// before the failure.
type PageLoadedMsg struct {
	Route    Route
	Session  *pager.Session
	Snapshot pager.Snapshot
	Err      error
}

// NoticeMsg is a user-facing notification raised by a service
type NoticeMsg struct {
	Severity domain.Severity
	Message  string
}

// GateEventKind is what a gate asked the profile view to do
type GateEventKind int

const (
	GatePlaceholder GateEventKind = iota
	GateAdmit
	GateRedirect
)

// GateMsg is a gate callback delivered to the update loop. Gen identifies
// the mount that produced it.
type GateMsg struct {
	Gen      int
	Kind     GateEventKind
	Identity domain.Identity
	Path     string
}

// ListingLoadedMsg carries a fresh copy of a listing for the detail view
type ListingLoadedMsg struct {
	Listing *domain.Listing
}

// ListingSavedMsg signals that a create or update finished
type ListingSavedMsg struct {
	Listing *domain.Listing
	Created bool
	Err     error
}

// ListingDeletedMsg signals that a delete finished
type ListingDeletedMsg struct {
	ID  string
	Err error
}

// SignedInMsg signals a sign-in or sign-up attempt finished
type SignedInMsg struct {
	Identity *domain.Identity
	Err      error
}

// SignedOutMsg signals sign-out finished
type SignedOutMsg struct {
	Err error
}

// ProfileUpdatedMsg signals a display name change finished
type ProfileUpdatedMsg struct {
	Identity *domain.Identity
	Err      error
}

// PhotosOpenedMsg signals the photo viewer was started
type PhotosOpenedMsg struct {
	Count int
}

// StatusMsg represents a status message to display
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status message
type ClearStatusMsg struct{}

// TickMsg is sent periodically for spinner animation
type TickMsg struct{}
