package domain

import "fmt"

// FilterKind selects which predicate a Filter applies
type FilterKind string

const (
	FilterCategory FilterKind = "category" // type == Category
	FilterOffer    FilterKind = "offer"    // offer == true
	FilterOwner    FilterKind = "owner"    // owner == OwnerID
	FilterAll      FilterKind = "all"      // every listing
)

// MaxPageSize is the largest page a listing server will return
const MaxPageSize = 100

// Filter is the predicate a listing query is scoped to
type Filter struct {
	Kind     FilterKind
	Category Category // FilterCategory only
	OwnerID  string   // FilterOwner only
}

// Match reports whether l satisfies the filter
func (f Filter) Match(l *Listing) bool {
	if l == nil {
		return false
	}
	switch f.Kind {
	case FilterCategory:
		return l.Type == f.Category
	case FilterOffer:
		return l.Offer
	case FilterOwner:
		return l.OwnerID == f.OwnerID
	case FilterAll:
		return true
	default:
		return false
	}
}

// Validate checks the filter is complete for its kind
func (f Filter) Validate() error {
	switch f.Kind {
	case FilterCategory:
		if f.Category != CategoryRent && f.Category != CategorySale {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, f.Category)
		}
	case FilterOffer:
	case FilterOwner:
		if f.OwnerID == "" {
			return fmt.Errorf("%w: owner filter without owner", ErrInvalidQuery)
		}
	case FilterAll:
	default:
		return fmt.Errorf("%w: unknown filter kind %q", ErrInvalidQuery, f.Kind)
	}
	return nil
}

func (f Filter) String() string {
	switch f.Kind {
	case FilterCategory:
		return "type==" + string(f.Category)
	case FilterOffer:
		return "offer==true"
	case FilterOwner:
		return "owner==" + f.OwnerID
	case FilterAll:
		return "all"
	default:
		return string(f.Kind)
	}
}

// SortKey names the ordering of a listing query
type SortKey string

// SortTimestampDesc is newest first; the only ordering listings support
const SortTimestampDesc SortKey = "timestamp_desc"

// ListingQuery is immutable for the lifetime of one browsing session
type ListingQuery struct {
	Filter   Filter
	Sort     SortKey
	PageSize int
}

// Validate rejects queries the repository cannot execute
func (q ListingQuery) Validate() error {
	if q.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidQuery, q.PageSize)
	}
	if q.Sort != "" && q.Sort != SortTimestampDesc {
		return fmt.Errorf("%w: unsupported sort %q", ErrInvalidQuery, q.Sort)
	}
	return q.Filter.Validate()
}

// Page is one bounded fetch result
type Page struct {
	Items      []*Listing
	NextCursor *Cursor
	IsLastPage bool
}

// NewPage builds a page from a raw fetch. A short page is the last one; an
// empty page keeps the previous cursor so the cursor never moves backward.
func NewPage(items []*Listing, pageSize int, prev *Cursor) Page {
	next := prev
	if len(items) > 0 {
		next = CursorAfter(items[len(items)-1])
	}
	return Page{
		Items:      items,
		NextCursor: next,
		IsLastPage: len(items) < pageSize,
	}
}
