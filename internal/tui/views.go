package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/tui/components"
	"github.com/mmcdole/homestead/internal/tui/styles"
)

// View renders the whole screen
func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	if m.ShowHelp {
		return m.renderHelp()
	}
	if m.confirm != confirmNone {
		return m.renderConfirmation()
	}
	if m.InputModal.IsVisible() {
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, m.InputModal.View())
	}

	bodyHeight := max(m.Height-ChromeHeight, 1)

	var body string
	switch m.Route {
	case RouteProfile:
		body = m.renderProfile(bodyHeight)
	case RouteSignIn:
		body = m.renderForm(m.signIn, bodyHeight)
	case RouteEdit:
		body = m.renderForm(m.editForm, bodyHeight)
	case RouteDetail:
		body = lipgloss.NewStyle().Height(bodyHeight).Padding(1, 2).Render(RenderDetail(m.detail, m.owns(detailOwner(m.detail)), m.Width-4))
	default:
		if v := m.views[m.Route]; v != nil {
			body = v.column.View()
		} else {
			body = lipgloss.NewStyle().Height(bodyHeight).Render("")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.renderFooter())
}

func detailOwner(l *domain.Listing) string {
	if l == nil {
		return ""
	}
	return l.OwnerID
}

// renderTabs renders the tab bar with the signed-in user on the right
func (m Model) renderTabs() string {
	var tabs []string
	for _, r := range tabRoutes {
		style := styles.InactiveTabStyle
		if r == m.Route || (r == RouteProfile && m.Route == RouteSignIn) {
			style = styles.ActiveTabStyle
		}
		tabs = append(tabs, style.Render(r.Title()))
	}
	left := strings.Join(tabs, " ")

	right := styles.DimStyle.Render("Not signed in")
	if m.identity != nil {
		right = styles.SubtitleStyle.Render(m.identity.DisplayName)
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// renderProfile renders the gated profile view
func (m Model) renderProfile(height int) string {
	if m.mount == nil || !m.admitted || m.identity == nil {
		msg := RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Checking sign-in...")
		return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	header := []string{
		styles.TitleStyle.Render(m.identity.DisplayName) + " " + styles.DimStyle.Render("<"+m.identity.Email+">"),
		hint("c", "new listing") + "  " + hint("e", "edit") + "  " + hint("x", "delete") + "  " +
			hint("n", "change name") + "  " + hint("L", "sign out"),
		"",
	}

	body := ""
	if v := m.views[RouteProfile]; v != nil {
		body = v.column.View()
	}
	return strings.Join(header, "\n") + "\n" + body
}

// renderForm centers a form in the body
func (m Model) renderForm(form *components.Form, height int) string {
	if form == nil {
		return ""
	}
	width := min(m.Width-4, 72)
	content := form.View(width)
	if m.Route == RouteSignIn {
		toggle := "Don't have an account? " + hint("C-n", "sign up")
		if m.signingUp {
			toggle = "Have an account? " + hint("C-n", "sign in")
		}
		content = lipgloss.JoinVertical(lipgloss.Center, content, toggle)
	}
	if m.busy {
		content = lipgloss.JoinVertical(lipgloss.Center, content, RenderSpinner(m.SpinnerFrame)+" "+styles.DimStyle.Render("Working..."))
	}
	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, content)
}

// renderFooter renders status on the left and key hints on the right
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.SuccessStyle.Render(m.StatusMsg)
	case m.busy:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Working...")
	}

	var center string
	switch m.Route {
	case RouteHome, RouteOffers, RouteRent, RouteSale:
		center = hint("/", "filter") + "  " + hint("enter", "open") + "  " + hint("r", "refresh")
	case RouteDetail:
		center = hint("o", "photos") + "  " + hint("esc", "back")
	}

	right := hint("?", "help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
BROWSING                        PROFILE
  1-5        Home/offers/rent/    c      New listing
             sale/profile         e      Edit listing
  tab        Next view            x      Delete listing
  j/k        Up/down              n      Change name
  g/G        First/last item      L      Sign out
  Ctrl+u/d   Scroll half page
  Enter      Open listing       LISTING
  m          Load more            o      Open photos
  /          Filter loaded        esc    Back
  r          Refresh

SIGN IN                         OTHER
  tab        Next field           q      Quit
  Ctrl+n     Sign in/sign up      ?      This help

Press ? or esc to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderConfirmation renders the pending yes/no question
func (m Model) renderConfirmation() string {
	var question string
	switch m.confirm {
	case confirmDelete:
		name := ""
		if m.pendingDelete != nil {
			name = m.pendingDelete.Name
		}
		question = fmt.Sprintf("Delete %q?\n\nThis cannot be undone.", styles.Truncate(name, 40))
	case confirmLogout:
		question = "Sign out?"
	}

	modal := question + "\n\n" + hint("Y", "yes") + "      " + hint("N", "no")
	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// RenderDetail renders a full listing
func RenderDetail(l *domain.Listing, owned bool, width int) string {
	if l == nil {
		return styles.DimStyle.Render("No listing selected")
	}
	width = max(width, 20)

	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(l.Name))
	b.WriteString(" ")
	b.WriteString(styles.PriceStyle.Render(l.FormattedPrice()))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(l.Address))
	b.WriteString("\n\n")

	badge := "For Sale"
	if l.Type == domain.CategoryRent {
		badge = "For Rent"
	}
	b.WriteString(styles.BadgeStyle.Render(badge))
	if l.Offer && l.DiscountedPrice > 0 && l.RegularPrice > l.DiscountedPrice {
		b.WriteString(" ")
		b.WriteString(styles.DimBadgeStyle.Render(fmt.Sprintf("$%d discount", l.RegularPrice-l.DiscountedPrice)))
	}
	b.WriteString("\n\n")

	features := []string{l.Summary()}
	if l.Parking {
		features = append(features, "Parking Spot")
	}
	if l.Furnished {
		features = append(features, "Furnished")
	}
	b.WriteString(styles.DimStyle.Render(strings.Join(features, " · ")))
	b.WriteString("\n\n")

	if l.Description != "" {
		b.WriteString(styles.SubtitleStyle.Render(wordWrap(l.Description, width-2)))
		b.WriteString("\n\n")
	}

	photos := "No photos"
	if n := len(l.ImageURLs); n == 1 {
		photos = "1 photo"
	} else if n > 1 {
		photos = fmt.Sprintf("%d photos", n)
	}
	b.WriteString(styles.DimStyle.Render(photos))
	if !l.Timestamp.IsZero() {
		b.WriteString(styles.DimStyle.Render(" · Listed " + l.Timestamp.Local().Format("Jan 2, 2006")))
	}
	if owned {
		b.WriteString("\n\n")
		b.WriteString(hint("e", "edit") + "  " + hint("x", "delete"))
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func hint(k, desc string) string {
	return styles.HelpKeyStyle.Render(k) + styles.HelpDescStyle.Render(" "+desc)
}

// wordWrap wraps text at word boundaries
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wordLen := lipgloss.Width(word)

		if lineLen+wordLen+1 > width && lineLen > 0 {
			result.WriteString("\n")
			lineLen = 0
		}

		if i > 0 && lineLen > 0 {
			result.WriteString(" ")
			lineLen++
		}

		result.WriteString(word)
		lineLen += wordLen
	}

	return result.String()
}

// RenderSpinner renders one spinner frame
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}
