package listing

import (
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/homestead/internal/domain"
)

// Match is one listing that passed the local filter
type Match struct {
	Listing *domain.Listing

	// MatchedIndexes are byte offsets into Listing.Name, nil for address matches
	MatchedIndexes []int
}

// nameIndex implements fuzzy.Source over lowercase listing names
type nameIndex struct {
	listings []*domain.Listing
	lower    []string
}

func newNameIndex(listings []*domain.Listing) *nameIndex {
	lower := make([]string, len(listings))
	for i, l := range listings {
		lower[i] = strings.ToLower(l.Name)
	}
	return &nameIndex{listings: listings, lower: lower}
}

// String returns the lowercase name at index i (implements fuzzy.Source)
func (idx *nameIndex) String(i int) string { return idx.lower[i] }

// Len returns the number of listings (implements fuzzy.Source)
func (idx *nameIndex) Len() int { return len(idx.listings) }

// Filter narrows already-loaded listings by query. Name matches come first,
// ranked by fuzzy score; listings matching only by address follow in their
// loaded order. An empty query keeps everything in order.
func Filter(query string, listings []*domain.Listing) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Match, len(listings))
		for i, l := range listings {
			out[i] = Match{Listing: l}
		}
		return out
	}

	idx := newNameIndex(listings)
	found := fuzzy.FindFrom(strings.ToLower(query), idx)

	out := make([]Match, 0, len(found))
	seen := make(map[int]bool, len(found))
	for _, m := range found {
		seen[m.Index] = true
		out = append(out, Match{Listing: listings[m.Index], MatchedIndexes: m.MatchedIndexes})
	}

	for i, l := range listings {
		if !seen[i] && fuzzysearch.MatchFold(query, l.Address) {
			out = append(out, Match{Listing: l})
		}
	}
	return out
}
