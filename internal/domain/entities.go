package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category distinguishes listing types
type Category string

const (
	CategoryRent Category = "rent"
	CategorySale Category = "sale"
)

// ParseCategory converts a route segment ("rent", "sale") to a Category
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryRent:
		return CategoryRent, nil
	case CategorySale:
		return CategorySale, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Title returns the heading used for a category browse view
func (c Category) Title() string {
	if c == CategoryRent {
		return "Places for Rent"
	}
	return "Places for Sale"
}

// Listing is one real-estate record in the remote collection
type Listing struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	Type            Category  `json:"type"`
	Offer           bool      `json:"offer"`
	RegularPrice    int64     `json:"regular_price"`
	DiscountedPrice int64     `json:"discounted_price,omitempty"` // Only meaningful when Offer is set
	Bedrooms        int       `json:"bedrooms"`
	Bathrooms       int       `json:"bathrooms"`
	Parking         bool      `json:"parking"`
	Furnished       bool      `json:"furnished"`
	Description     string    `json:"description,omitempty"`
	ImageURLs       []string  `json:"image_urls,omitempty"`
	OwnerID         string    `json:"owner_id"`  // Identity that created the listing
	Timestamp       time.Time `json:"timestamp"` // Creation time, the sort key
}

// Price returns the effective asking price
func (l *Listing) Price() int64 {
	if l.Offer && l.DiscountedPrice > 0 {
		return l.DiscountedPrice
	}
	return l.RegularPrice
}

// FormattedPrice renders the price with thousands separators and a monthly
// suffix for rentals
func (l *Listing) FormattedPrice() string {
	s := groupThousands(l.Price())
	if l.Type == CategoryRent {
		return "$" + s + " / month"
	}
	return "$" + s
}

// Summary returns a one-line description of rooms
func (l *Listing) Summary() string {
	beds := "1 Bed"
	if l.Bedrooms != 1 {
		beds = fmt.Sprintf("%d Beds", l.Bedrooms)
	}
	baths := "1 Bath"
	if l.Bathrooms != 1 {
		baths = fmt.Sprintf("%d Baths", l.Bathrooms)
	}
	return beds + " · " + baths
}

// CheckRequired reports the first missing required field.
// Only presence is checked.
func (l *Listing) CheckRequired() error {
	switch {
	case strings.TrimSpace(l.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidListing)
	case strings.TrimSpace(l.Address) == "":
		return fmt.Errorf("%w: address is required", ErrInvalidListing)
	case l.Type != CategoryRent && l.Type != CategorySale:
		return fmt.Errorf("%w: type must be rent or sale", ErrInvalidListing)
	case l.OwnerID == "":
		return fmt.Errorf("%w: owner is required", ErrInvalidListing)
	}
	return nil
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Identity is an authenticated user as seen by the client
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// User is a local account record
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity returns the public identity for the account
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, DisplayName: u.Name}
}
