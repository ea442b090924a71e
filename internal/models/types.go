package models

import "strconv"

// Kind represents the type of a cataloged item
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
	KindGame   Kind = "game"
	KindBook   Kind = "book"
)

// ValidKind reports whether k is one of the four cataloged kinds
func ValidKind(k Kind) bool {
	switch k {
	case KindMovie, KindSeries, KindGame, KindBook:
		return true
	}
	return false
}

// KindFilter narrows a query to one kind; KindAll matches everything
type KindFilter string

const KindAll KindFilter = "all"

// WatchedFilter narrows a query by watched state
type WatchedFilter string

const (
	WatchedAll  WatchedFilter = "all"
	WatchedOnly WatchedFilter = "watched"
	WatchedNot  WatchedFilter = "not-watched"
)

// SortKey is the single ordering field of a media query, always descending
type SortKey string

const (
	SortByRating    SortKey = "rating"
	SortByCreatedAt SortKey = "createdAt"
)

// ValidSortKey reports whether s is a supported sort key
func ValidSortKey(s SortKey) bool {
	return s == SortByRating || s == SortByCreatedAt
}

// ValidRating reports whether r is a decimal string within [0.0, 9.9].
// The empty string means "not rated" and is accepted.
func ValidRating(r string) bool {
	if r == "" {
		return true
	}
	v, err := strconv.ParseFloat(r, 64)
	if err != nil {
		return false
	}
	return v >= 0.0 && v <= 9.9
}

// RatingValue parses a rating string for sort comparisons.
// Unset or malformed ratings sort below every real rating.
func RatingValue(r string) float64 {
	v, err := strconv.ParseFloat(r, 64)
	if err != nil {
		return -1
	}
	return v
}
