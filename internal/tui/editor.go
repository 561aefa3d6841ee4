package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/homestead/internal/domain"
	"github.com/mmcdole/homestead/internal/tui/components"
)

// Sign-in form field order
const (
	signInEmail = iota
	signInPassword
	signInName
)

func newSignInForm(signUp bool) *components.Form {
	fields := []components.Field{
		{Label: "Email", Placeholder: "you@example.com"},
		{Label: "Password", Password: true},
	}
	title := "Sign In"
	if signUp {
		fields = append(fields, components.Field{Label: "Name", Placeholder: "Display name", CharLimit: 60})
		title = "Sign Up"
	}
	return components.NewForm(title, fields...)
}

// submitSignIn validates the form and starts the matching auth command
func (m *Model) submitSignIn() tea.Cmd {
	email := m.signIn.Value(signInEmail)
	password := m.signIn.Value(signInPassword)
	if email == "" || password == "" {
		m.signIn.SetError("Email and password are required")
		return nil
	}

	m.signIn.SetError("")
	m.busy = true
	if m.signingUp {
		name := m.signIn.Value(signInName)
		if name == "" {
			m.busy = false
			m.signIn.SetError("Name is required")
			return nil
		}
		return SignUpCmd(m.deps.Auth, name, email, password)
	}
	return SignInCmd(m.deps.Auth, email, password)
}

// Listing editor field order
const (
	fieldName = iota
	fieldAddress
	fieldType
	fieldOffer
	fieldRegularPrice
	fieldDiscountedPrice
	fieldBedrooms
	fieldBathrooms
	fieldParking
	fieldFurnished
	fieldDescription
	fieldImages
)

func newListingForm(l *domain.Listing) *components.Form {
	title := "Create a Listing"
	if l.ID != "" {
		title = "Edit Listing"
	}

	num := func(n int64) string {
		if n == 0 {
			return ""
		}
		return strconv.FormatInt(n, 10)
	}

	return components.NewForm(title,
		components.Field{Label: "Name", Value: l.Name, CharLimit: 80},
		components.Field{Label: "Address", Value: l.Address, CharLimit: 120},
		components.Field{Label: "Type", Value: string(l.Type), Placeholder: "rent or sale"},
		components.Field{Label: "Offer", Value: yesNo(l.Offer), Placeholder: "yes or no"},
		components.Field{Label: "Price", Value: num(l.RegularPrice)},
		components.Field{Label: "Discounted", Value: num(l.DiscountedPrice)},
		components.Field{Label: "Bedrooms", Value: num(int64(l.Bedrooms))},
		components.Field{Label: "Bathrooms", Value: num(int64(l.Bathrooms))},
		components.Field{Label: "Parking", Value: yesNo(l.Parking), Placeholder: "yes or no"},
		components.Field{Label: "Furnished", Value: yesNo(l.Furnished), Placeholder: "yes or no"},
		components.Field{Label: "Description", Value: l.Description, CharLimit: 1000},
		components.Field{Label: "Photos", Value: strings.Join(l.ImageURLs, ", "), Placeholder: "comma-separated URLs", CharLimit: 2000},
	)
}

// openEditor shows the editor for l, or for a new listing when l is nil
func (m *Model) openEditor(l *domain.Listing) {
	base := &domain.Listing{Type: domain.CategoryRent, Bedrooms: 1, Bathrooms: 1}
	if l != nil {
		copied := *l
		base = &copied
	}
	if m.Route != RouteEdit {
		m.returnTo = m.Route
	}
	m.editing = base
	m.editForm = newListingForm(base)
	m.Route = RouteEdit
}

// submitEditor validates the editor and starts the save
func (m *Model) submitEditor() tea.Cmd {
	if m.identity == nil {
		m.editForm.SetError("Sign in to save listings")
		return nil
	}

	l, err := parseListingForm(m.editForm.Values(), m.editing)
	if err != nil {
		m.editForm.SetError(err.Error())
		return nil
	}

	m.editForm.SetError("")
	m.busy = true
	return SaveListingCmd(m.deps.Listings, *m.identity, l)
}

// handleSaved returns to where the editor was opened from
func (m *Model) handleSaved(msg ListingSavedMsg) tea.Cmd {
	m.busy = false
	if msg.Err != nil {
		if m.editForm != nil {
			m.editForm.SetError(saveError(msg.Err))
		}
		return nil
	}

	m.editForm = nil
	m.editing = nil
	m.invalidateBrowseViews()

	if m.returnTo == RouteDetail && m.detail != nil && msg.Listing != nil && m.detail.ID == msg.Listing.ID {
		m.detail = msg.Listing
		m.Route = RouteDetail
		m.returnTo = RouteProfile
	} else {
		m.Route = RouteProfile
	}
	switch {
	case m.mount == nil:
		// Admission opens the profile listings
		m.mountProfile()
		return nil
	case m.admitted:
		return m.openProfileView()
	default:
		return nil
	}
}

func saveError(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotOwner):
		return "You can only edit your own listings"
	case errors.Is(err, domain.ErrInvalidListing):
		return "Name, address and type are required"
	case errors.Is(err, domain.ErrListingNotFound):
		return "This listing no longer exists"
	default:
		return "Could not save the listing"
	}
}

// parseListingForm builds a listing from editor values on top of base,
// which supplies the ID, owner and timestamp
func parseListingForm(values []string, base *domain.Listing) (*domain.Listing, error) {
	if len(values) <= fieldImages {
		return nil, fmt.Errorf("listing form has %d fields", len(values))
	}

	l := *base
	l.Name = values[fieldName]
	l.Address = values[fieldAddress]

	cat, err := domain.ParseCategory(values[fieldType])
	if err != nil {
		return nil, errors.New("type must be rent or sale")
	}
	l.Type = cat

	if l.Offer, err = parseYesNo("Offer", values[fieldOffer]); err != nil {
		return nil, err
	}
	if l.Parking, err = parseYesNo("Parking", values[fieldParking]); err != nil {
		return nil, err
	}
	if l.Furnished, err = parseYesNo("Furnished", values[fieldFurnished]); err != nil {
		return nil, err
	}

	if l.RegularPrice, err = parseAmount("Price", values[fieldRegularPrice]); err != nil {
		return nil, err
	}
	if l.DiscountedPrice, err = parseAmount("Discounted price", values[fieldDiscountedPrice]); err != nil {
		return nil, err
	}
	if l.Offer && l.DiscountedPrice >= l.RegularPrice {
		return nil, errors.New("discounted price needs to be lower than the regular price")
	}
	if !l.Offer {
		l.DiscountedPrice = 0
	}

	beds, err := parseAmount("Bedrooms", values[fieldBedrooms])
	if err != nil {
		return nil, err
	}
	baths, err := parseAmount("Bathrooms", values[fieldBathrooms])
	if err != nil {
		return nil, err
	}
	l.Bedrooms, l.Bathrooms = int(beds), int(baths)

	l.Description = values[fieldDescription]
	l.ImageURLs = nil
	for _, u := range strings.Split(values[fieldImages], ",") {
		if u = strings.TrimSpace(u); u != "" {
			l.ImageURLs = append(l.ImageURLs, u)
		}
	}

	if l.Name == "" || l.Address == "" {
		return nil, errors.New("name and address are required")
	}
	return &l, nil
}

func parseYesNo(label, s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "no", "false":
		return false, nil
	case "y", "yes", "true":
		return true, nil
	default:
		return false, fmt.Errorf("%s must be yes or no", label)
	}
}

func parseAmount(label, s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a whole number", label)
	}
	return n, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
