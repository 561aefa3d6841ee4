package tui

import (
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/homestead/internal/adapter"
	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/gate"
	"github.com/mmcdole/homestead/internal/identity"
	"github.com/mmcdole/homestead/internal/listing"
	"github.com/mmcdole/homestead/internal/pager"
	"github.com/mmcdole/homestead/internal/tui/components"
)

// Route is one screen of the application
type Route int

const (
	RouteHome Route = iota
	RouteOffers
	RouteRent
	RouteSale
	RouteProfile
	RouteSignIn
	RouteDetail
	RouteEdit
)

// tabRoutes are the screens reachable from the tab bar, in order
var tabRoutes = []Route{RouteHome, RouteOffers, RouteRent, RouteSale, RouteProfile}

var routePaths = map[Route]string{
	RouteHome:    "/",
	RouteOffers:  "/offers",
	RouteRent:    "/category/rent",
	RouteSale:    "/category/sale",
	RouteProfile: "/profile",
	RouteSignIn:  gate.DefaultSignInPath,
	RouteDetail:  "/listing",
	RouteEdit:    "/edit-listing",
}

// Path returns the route's location string
func (r Route) Path() string {
	return routePaths[r]
}

// Title returns the tab label
func (r Route) Title() string {
	switch r {
	case RouteHome:
		return "Home"
	case RouteOffers:
		return "Offers"
	case RouteRent:
		return "For Rent"
	case RouteSale:
		return "For Sale"
	case RouteProfile:
		return "Profile"
	case RouteSignIn:
		return "Sign In"
	case RouteDetail:
		return "Listing"
	case RouteEdit:
		return "Edit Listing"
	default:
		return ""
	}
}

// RouteForPath resolves a location string such as a gate redirect target
func RouteForPath(path string) (Route, bool) {
	for r, p := range routePaths {
		if p == path {
			return r, true
		}
	}
	return 0, false
}

// confirmKind is the pending yes/no question, if any
type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmDelete
	confirmLogout
)

const (
	// Header (tabs) and footer (status/help) lines
	ChromeHeight = 2

	// Identity card above the profile listings
	ProfileHeaderHeight = 3

	tickInterval    = 100 * time.Millisecond
	statusLifetime  = 5 * time.Second
	gateEventBuffer = 16
)

// Deps are the services the TUI drives
type Deps struct {
	Listings *listing.Service
	Auth     *identity.Authenticator
	Gate     *gate.Gate
	Launcher *adapter.Launcher
	Notices  <-chan NoticeMsg
	Logger   *slog.Logger
}

// browseView is one mounted listing view and its pagination session
type browseView struct {
	session *pager.Session
	snap    pager.Snapshot
	column  *components.ListColumn
	hidden  map[string]bool

	// paged views offer "load more"; the others show a single read
	paged bool
}

func newBrowseView(title string, sess *pager.Session, hidden map[string]bool, paged bool) *browseView {
	col := components.NewListColumn(title)
	col.SetLoading(true)
	return &browseView{session: sess, column: col, hidden: hidden, paged: paged}
}

// apply renders snap into the column, leaving out deleted listings
func (v *browseView) apply(snap pager.Snapshot) {
	v.snap = snap

	items := make([]*domain.Listing, 0, len(snap.Items))
	for _, l := range snap.Items {
		if !v.hidden[l.ID] {
			items = append(items, l)
		}
	}
	v.column.SetItems(items)
	v.column.SetLoading(snap.InFlight())
	v.column.SetCanLoadMore(v.paged && snap.CanLoadMore())

	switch {
	case snap.State == pager.StateFailed && len(snap.Items) == 0:
		v.column.SetEmptyText(pager.FetchFailedMessage)
	default:
		v.column.SetEmptyText("There are no current listings")
	}
}

// Model is the main Bubble Tea model for the application
type Model struct {
	deps   Deps
	logger *slog.Logger

	Route Route

	// Where detail, edit and sign-in go back to
	returnTo Route

	// Dimensions
	Width  int
	Height int

	// Mounted listing views by route, including the profile's own listings
	views map[Route]*browseView

	// Listing IDs deleted this run, hidden from every view
	hidden map[string]bool

	// Profile gate
	gateEvents chan GateMsg
	mount      *gate.Mount
	mountGen   int
	admitted   bool
	identity   *domain.Identity

	// Sign-in and sign-up
	signIn    *components.Form
	signingUp bool

	// Detail and editor
	detail   *domain.Listing
	editForm *components.Form
	editing  *domain.Listing

	// Modals
	InputModal    components.InputModal
	confirm       confirmKind
	pendingDelete *domain.Listing

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
	ShowHelp     bool
	busy         bool
}

// NewModel creates a new TUI model
func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		deps:       deps,
		logger:     logger,
		Route:      RouteHome,
		returnTo:   RouteHome,
		views:      make(map[Route]*browseView),
		hidden:     make(map[string]bool),
		gateEvents: make(chan GateMsg, gateEventBuffer),
		InputModal: components.NewInputModal(),
	}
}

// Init starts the landing view and the background listeners
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.ensureView(RouteHome),
		WaitForGateCmd(m.gateEvents),
		TickCmd(tickInterval),
	}
	if m.deps.Notices != nil {
		cmds = append(cmds, WaitForNoticeCmd(m.deps.Notices))
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		for _, v := range m.views {
			v.column.SetSpinnerFrame(m.SpinnerFrame)
		}
		return m, TickCmd(tickInterval)

	case PageLoadedMsg:
		v := m.views[msg.Route]
		if v == nil || v.session != msg.Session {
			// Session was closed or replaced while the fetch ran
			return m, nil
		}
		if msg.Err != nil && !errors.Is(msg.Err, pager.ErrSessionClosed) {
			m.logger.Warn("page fetch failed", "route", msg.Route.Path(), "error", msg.Err)
		}
		v.apply(msg.Snapshot)
		return m, nil

	case GateMsg:
		cmd := m.handleGateMsg(msg)
		return m, tea.Batch(cmd, WaitForGateCmd(m.gateEvents))

	case NoticeMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.Severity == domain.SeverityError
		return m, tea.Batch(ClearStatusCmd(statusLifetime), WaitForNoticeCmd(m.deps.Notices))

	case ListingLoadedMsg:
		if m.detail != nil && msg.Listing != nil && m.detail.ID == msg.Listing.ID {
			m.detail = msg.Listing
		}
		return m, nil

	case ListingSavedMsg:
		return m, m.handleSaved(msg)

	case ListingDeletedMsg:
		m.busy = false
		if msg.Err != nil {
			m.logger.Error("delete failed", "id", msg.ID, "error", msg.Err)
			return m, nil
		}
		m.hideListing(msg.ID)
		if m.Route == RouteDetail && m.detail != nil && m.detail.ID == msg.ID {
			m.detail = nil
			m.Route = m.returnTo
		}
		return m, nil

	case SignedInMsg:
		m.busy = false
		if msg.Err != nil {
			if m.signIn != nil {
				m.signIn.SetError(signInError(msg.Err))
			}
			return m, nil
		}
		m.identity = msg.Identity
		m.signIn = nil
		return m, m.navigate(RouteProfile)

	case SignedOutMsg:
		m.busy = false
		if msg.Err != nil {
			return m, m.setStatus("Could not sign out", true)
		}
		m.identity = nil
		m.closeView(RouteProfile)
		return m, m.setStatus("Signed out", false)

	case ProfileUpdatedMsg:
		m.busy = false
		if msg.Err == nil && msg.Identity != nil {
			m.identity = msg.Identity
		}
		return m, nil

	case PhotosOpenedMsg:
		return m, m.setStatus("Opened photos in viewer", false)

	case ErrMsg:
		m.busy = false
		m.logger.Error("command failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(msg.Error(), true)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// Shutdown releases every session and the gate mount
func (m *Model) Shutdown() {
	m.unmountProfile()
	for route := range m.views {
		m.closeView(route)
	}
}

func (m *Model) setStatus(message string, isErr bool) tea.Cmd {
	m.StatusMsg = message
	m.StatusIsErr = isErr
	return ClearStatusCmd(statusLifetime)
}

func signInError(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Bad user credentials"
	case errors.Is(err, domain.ErrUserExists):
		return "An account with that email already exists"
	default:
		return "Something went wrong, please try again"
	}
}
