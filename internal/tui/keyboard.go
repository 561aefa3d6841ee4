package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/homestead/internal/tui/components"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Shutdown()
		return m, tea.Quit
	}

	// Route to active modal if any
	if m.InputModal.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.InputModal, cmd, submitted = m.InputModal.Update(msg)
		if submitted {
			name := m.InputModal.Value()
			m.InputModal.Hide()
			m.busy = true
			return m, UpdateProfileCmd(m.deps.Listings, name)
		}
		return m, cmd
	}

	if m.confirm != confirmNone {
		return m.handleConfirmKey(msg)
	}

	if m.ShowHelp {
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.ShowHelp = false
		}
		return m, nil
	}

	switch m.Route {
	case RouteSignIn:
		return m.handleSignInKey(msg)
	case RouteEdit:
		return m.handleEditKey(msg)
	case RouteDetail:
		return m.handleDetailKey(msg)
	}

	v := m.views[m.Route]

	// Typing into a filter swallows everything
	if v != nil && v.column.IsFilterTyping() {
		return m, v.column.Update(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.ShowHelp = true
		return m, nil

	case key.Matches(msg, Keys.Home):
		return m, m.navigate(RouteHome)
	case key.Matches(msg, Keys.Offers):
		return m, m.navigate(RouteOffers)
	case key.Matches(msg, Keys.Rent):
		return m, m.navigate(RouteRent)
	case key.Matches(msg, Keys.Sale):
		return m, m.navigate(RouteSale)
	case key.Matches(msg, Keys.Profile):
		return m, m.navigate(RouteProfile)
	case key.Matches(msg, Keys.NextTab):
		return m, m.navigate(m.nextTab(1))
	case key.Matches(msg, Keys.PrevTab):
		return m, m.navigate(m.nextTab(-1))
	}

	if v == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Filter):
		if !v.column.IsFiltering() {
			v.column.ToggleFilter()
			return m, nil
		}

	case key.Matches(msg, Keys.LoadMore):
		// Home shows one page and profile listings are read to exhaustion
		if v.paged && v.snap.CanLoadMore() && !v.column.IsLoading() {
			v.column.SetLoading(true)
			return m, LoadNextPageCmd(m.Route, v.session)
		}
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		return m, m.refresh(m.Route)

	case key.Matches(msg, Keys.Enter):
		if l := v.column.SelectedListing(); l != nil {
			m.detail = l
			m.returnTo = m.Route
			m.Route = RouteDetail
			return m, GetListingCmd(m.deps.Listings, l.ID)
		}
		return m, nil
	}

	if m.Route == RouteProfile && m.identity != nil && !m.busy {
		switch {
		case key.Matches(msg, Keys.Create):
			m.openEditor(nil)
			return m, nil

		case key.Matches(msg, Keys.Edit):
			if l := v.column.SelectedListing(); l != nil {
				m.openEditor(l)
			}
			return m, nil

		case key.Matches(msg, Keys.Delete):
			if l := v.column.SelectedListing(); l != nil {
				m.pendingDelete = l
				m.confirm = confirmDelete
			}
			return m, nil

		case key.Matches(msg, Keys.Rename):
			m.InputModal.Show("Change display name", m.identity.DisplayName)
			return m, nil

		case key.Matches(msg, Keys.Logout):
			m.confirm = confirmLogout
			return m, nil
		}
	}

	// Let the column handle remaining keys (j/k/g/G navigation, esc)
	return m, v.column.Update(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		kind, target := m.confirm, m.pendingDelete
		m.confirm = confirmNone
		m.pendingDelete = nil

		switch kind {
		case confirmDelete:
			if target != nil && m.identity != nil {
				m.busy = true
				return m, DeleteListingCmd(m.deps.Listings, *m.identity, target.ID)
			}
		case confirmLogout:
			m.busy = true
			return m, SignOutCmd(m.deps.Auth)
		}
		return m, nil

	case key.Matches(msg, Keys.Deny):
		m.confirm = confirmNone
		m.pendingDelete = nil
	}
	return m, nil
}

func (m Model) handleSignInKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.signIn == nil {
		m.signIn = newSignInForm(m.signingUp)
	}
	if m.busy {
		return m, nil
	}

	if key.Matches(msg, Keys.SignUp) {
		m.signingUp = !m.signingUp
		email := m.signIn.Value(signInEmail)
		m.signIn = newSignInForm(m.signingUp)
		if email != "" {
			m.signIn.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(email)})
		}
		return m, nil
	}

	cmd, result := m.signIn.Update(msg)
	switch result {
	case components.FormSubmitted:
		return m, m.submitSignIn()
	case components.FormCancelled:
		m.signIn = nil
		return m, m.navigate(RouteHome)
	}
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editForm == nil || m.busy {
		return m, nil
	}

	cmd, result := m.editForm.Update(msg)
	switch result {
	case components.FormSubmitted:
		return m, m.submitEditor()
	case components.FormCancelled:
		m.editForm = nil
		m.editing = nil
		m.Route = m.returnTo
		if m.Route == RouteDetail {
			m.returnTo = RouteProfile
		}
	}
	return m, cmd
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.ShowHelp = true
		return m, nil

	case key.Matches(msg, Keys.Back):
		m.detail = nil
		m.Route = m.returnTo
		return m, nil

	case key.Matches(msg, Keys.OpenPhotos):
		if m.detail == nil || len(m.detail.ImageURLs) == 0 {
			return m, m.setStatus("This listing has no photos", true)
		}
		if m.deps.Launcher == nil {
			return m, m.setStatus("No photo viewer configured", true)
		}
		return m, OpenPhotosCmd(m.deps.Launcher, m.detail.ImageURLs)

	case key.Matches(msg, Keys.Edit):
		if m.detail != nil && m.owns(m.detail.OwnerID) && !m.busy {
			m.openEditor(m.detail)
		}
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if m.detail != nil && m.owns(m.detail.OwnerID) && !m.busy {
			m.pendingDelete = m.detail
			m.confirm = confirmDelete
		}
		return m, nil
	}
	return m, nil
}

// owns reports whether the signed-in user owns a listing
func (m Model) owns(ownerID string) bool {
	return m.identity != nil && m.identity.UserID == ownerID
}
