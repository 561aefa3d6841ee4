package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/homestead/internal/adapter"
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/identity"
	"github.com/mmcdole/homestead/internal/listing"
	"github.com/mmcdole/homestead/internal/pager"
)

// Command factories for async operations

const (
	fetchTimeout  = 30 * time.Second
	mutateTimeout = 15 * time.Second
)

// InitializePageCmd issues the first fetch of a view's session
func InitializePageCmd(route Route, sess *pager.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		snap, err := sess.Initialize(ctx)
		return PageLoadedMsg{Route: route, Session: sess, Snapshot: snap, Err: err}
	}
}

// LoadNextPageCmd appends the page after the session's cursor
func LoadNextPageCmd(route Route, sess *pager.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		snap, err := sess.LoadNext(ctx)
		return PageLoadedMsg{Route: route, Session: sess, Snapshot: snap, Err: err}
	}
}

// LoadAllPagesCmd reads the session to exhaustion
func LoadAllPagesCmd(route Route, sess *pager.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*fetchTimeout)
		defer cancel()

		snap, err := sess.LoadAll(ctx)
		return PageLoadedMsg{Route: route, Session: sess, Snapshot: snap, Err: err}
	}
}

// GetListingCmd fetches a fresh copy of one listing
func GetListingCmd(svc *listing.Service, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		l, err := svc.Get(ctx, id)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading listing"}
		}
		return ListingLoadedMsg{Listing: l}
	}
}

// SaveListingCmd creates l when it has no ID, otherwise updates it
func SaveListingCmd(svc *listing.Service, owner domain.Identity, l *domain.Listing) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
		defer cancel()

		if l.ID == "" {
			created, err := svc.Create(ctx, owner, l)
			return ListingSavedMsg{Listing: created, Created: true, Err: err}
		}
		updated, err := svc.Update(ctx, owner, l)
		return ListingSavedMsg{Listing: updated, Err: err}
	}
}

// DeleteListingCmd deletes one of owner's listings
func DeleteListingCmd(svc *listing.Service, owner domain.Identity, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
		defer cancel()

		err := svc.Delete(ctx, owner, id)
		return ListingDeletedMsg{ID: id, Err: err}
	}
}

// SignInCmd signs in with email and password
func SignInCmd(auth *identity.Authenticator, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
		defer cancel()

		id, err := auth.SignIn(ctx, email, password)
		return SignedInMsg{Identity: id, Err: err}
	}
}

// SignUpCmd creates an account and signs in
func SignUpCmd(auth *identity.Authenticator, name, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
		defer cancel()

		id, err := auth.SignUp(ctx, name, email, password)
		return SignedInMsg{Identity: id, Err: err}
	}
}

// SignOutCmd ends the session
func SignOutCmd(auth *identity.Authenticator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
		defer cancel()

		return SignedOutMsg{Err: auth.SignOut(ctx)}
	}
}

// UpdateProfileCmd changes the signed-in user's display name
func UpdateProfileCmd(svc *listing.Service, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutateTimeout)
		defer cancel()

		id, err := svc.UpdateProfileName(ctx, name)
		return ProfileUpdatedMsg{Identity: id, Err: err}
	}
}

// OpenPhotosCmd hands a listing's photos to the configured viewer
func OpenPhotosCmd(launcher *adapter.Launcher, urls []string) tea.Cmd {
	return func() tea.Msg {
		if err := launcher.OpenPhotos(urls); err != nil {
			return ErrMsg{Err: err, Context: "opening photos"}
		}
		return PhotosOpenedMsg{Count: len(urls)}
	}
}

// WaitForNoticeCmd delivers the next service notification
func WaitForNoticeCmd(ch <-chan NoticeMsg) tea.Cmd {
	return func() tea.Msg {
		notice, ok := <-ch
		if !ok {
			return nil
		}
		return notice
	}
}

// WaitForGateCmd delivers the next gate callback
func WaitForGateCmd(ch <-chan GateMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
