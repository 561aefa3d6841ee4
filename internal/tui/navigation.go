package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/pager"
)

// navigate switches to route, mounting or releasing whatever it needs
func (m *Model) navigate(route Route) tea.Cmd {
	switch route {
	case RouteHome, RouteOffers, RouteRent, RouteSale:
		m.unmountProfile()
		m.Route = route
		return m.ensureView(route)

	case RouteProfile:
		m.Route = route
		if m.mount == nil {
			m.mountProfile()
		}
		return nil

	case RouteSignIn:
		m.unmountProfile()
		if m.Route != RouteSignIn {
			m.returnTo = m.Route
		}
		m.Route = route
		m.signingUp = false
		m.signIn = newSignInForm(false)
		return nil

	default:
		m.Route = route
		return nil
	}
}

// nextTab returns the tab route delta steps away from the current one
func (m *Model) nextTab(delta int) Route {
	cur := 0
	for i, r := range tabRoutes {
		if r == m.Route {
			cur = i
			break
		}
	}
	n := len(tabRoutes)
	return tabRoutes[((cur+delta)%n+n)%n]
}

// ensureView opens a browse view's session on first visit
func (m *Model) ensureView(route Route) tea.Cmd {
	if m.views[route] != nil {
		return nil
	}

	var (
		sess *pager.Session
		err  error
	)
	switch route {
	case RouteHome:
		sess, err = m.deps.Listings.BrowseLatest()
	case RouteOffers:
		sess, err = m.deps.Listings.BrowseOffers()
	case RouteRent:
		sess, err = m.deps.Listings.BrowseCategory(domain.CategoryRent)
	case RouteSale:
		sess, err = m.deps.Listings.BrowseCategory(domain.CategorySale)
	default:
		return nil
	}
	if err != nil {
		m.logger.Error("failed to open listing view", "route", route.Path(), "error", err)
		return m.setStatus(pager.FetchFailedMessage, true)
	}

	title := route.Title()
	if route == RouteHome {
		title = "Recent Listings"
	}
	v := newBrowseView(title, sess, m.hidden, route != RouteHome)
	m.views[route] = v
	m.sizeView(route, v)
	return InitializePageCmd(route, sess)
}

// openProfileView (re)opens the signed-in user's listings and reads them all
func (m *Model) openProfileView() tea.Cmd {
	m.closeView(RouteProfile)
	if m.identity == nil {
		return nil
	}

	sess, err := m.deps.Listings.OwnListings(m.identity.UserID)
	if err != nil {
		m.logger.Error("failed to open profile listings", "error", err)
		return m.setStatus(pager.FetchFailedMessage, true)
	}

	v := newBrowseView("My Listings", sess, m.hidden, false)
	m.views[RouteProfile] = v
	m.sizeView(RouteProfile, v)
	return LoadAllPagesCmd(RouteProfile, sess)
}

// refresh discards a view's session and starts over
func (m *Model) refresh(route Route) tea.Cmd {
	if route == RouteProfile {
		return m.openProfileView()
	}
	m.closeView(route)
	return m.ensureView(route)
}

// closeView ends a view's session; late results for it are dropped
func (m *Model) closeView(route Route) {
	if v := m.views[route]; v != nil {
		v.session.Close()
		delete(m.views, route)
	}
}

// invalidateBrowseViews drops the home, category and offer views so they
// reload on the next visit
func (m *Model) invalidateBrowseViews() {
	for _, route := range []Route{RouteHome, RouteOffers, RouteRent, RouteSale} {
		if route != m.Route {
			m.closeView(route)
		}
	}
}

// hideListing removes a deleted listing from every mounted view
func (m *Model) hideListing(id string) {
	m.hidden[id] = true
	for _, v := range m.views {
		v.apply(v.snap)
	}
}

// mountProfile puts the profile view behind the gate
func (m *Model) mountProfile() {
	m.unmountProfile()
	m.mountGen++
	m.admitted = false
	m.mount = m.deps.Gate.Mount(&gateBridge{gen: m.mountGen, ch: m.gateEvents})
}

// unmountProfile releases the gate mount; its pending callbacks go stale
func (m *Model) unmountProfile() {
	if m.mount == nil {
		return
	}
	m.mount.Unmount()
	m.mount = nil
	m.mountGen++
	m.admitted = false
}

// handleGateMsg applies a gate callback from the current mount
func (m *Model) handleGateMsg(msg GateMsg) tea.Cmd {
	if msg.Gen != m.mountGen || m.mount == nil {
		return nil
	}

	switch msg.Kind {
	case GatePlaceholder:
		m.admitted = false
		return nil

	case GateAdmit:
		id := msg.Identity
		m.identity = &id
		m.admitted = true
		return m.openProfileView()

	case GateRedirect:
		m.identity = nil
		m.closeView(RouteProfile)
		route, ok := RouteForPath(msg.Path)
		if !ok {
			m.logger.Warn("unknown redirect target", "path", msg.Path)
			route = RouteSignIn
		}
		m.unmountProfile()
		cmd := m.navigate(route)
		m.returnTo = RouteProfile
		return cmd
	}
	return nil
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}
	for route, v := range m.views {
		m.sizeView(route, v)
	}
}

func (m *Model) sizeView(route Route, v *browseView) {
	height := m.Height - ChromeHeight
	if route == RouteProfile {
		height -= ProfileHeaderHeight
	}
	v.column.SetSize(m.Width, max(height, 4))
}
