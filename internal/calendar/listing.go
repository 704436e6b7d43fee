package calendar

import (
	"fmt"
	"strings"
)

// ListingKind distinguishes the two listing shapes the service manages
type ListingKind int

const (
	Accommodation ListingKind = iota + 1
	Tour
)

// String returns the path segment used by the service for this kind
func (k ListingKind) String() string {
	switch k {
	case Accommodation:
		return "accommodation"
	case Tour:
		return "tour"
	default:
		return fmt.Sprintf("ListingKind(%d)", int(k))
	}
}

// ParseListingKind parses "accommodation" or "tour" (case-insensitive)
func ParseListingKind(s string) (ListingKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accommodation":
		return Accommodation, nil
	case "tour":
		return Tour, nil
	default:
		return 0, fmt.Errorf("unknown listing kind %q: must be 'accommodation' or 'tour'", s)
	}
}
