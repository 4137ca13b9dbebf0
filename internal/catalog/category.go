package catalog

import "fmt"

// Category names what the visible movie collection was loaded from.
type Category string

const (
	CategoryPopular    Category = "popular"
	CategoryNowPlaying Category = "now_playing"
	CategoryTopRated   Category = "top_rated"
	CategoryUpcoming   Category = "upcoming"
	CategorySearch     Category = "search"
)

// Listings are the curated categories TMDB serves under /movie/<category>.
var Listings = []Category{
	CategoryPopular,
	CategoryNowPlaying,
	CategoryTopRated,
	CategoryUpcoming,
}

// IsListing reports whether c is one of the curated listings.
func (c Category) IsListing() bool {
	switch c {
	case CategoryPopular, CategoryNowPlaying, CategoryTopRated, CategoryUpcoming:
		return true
	}
	return false
}

// Label is the human readable name of the category.
func (c Category) Label() string {
	switch c {
	case CategoryPopular:
		return "Popular"
	case CategoryNowPlaying:
		return "Now Playing"
	case CategoryTopRated:
		return "Top Rated"
	case CategoryUpcoming:
		return "Upcoming"
	case CategorySearch:
		return "Search"
	}
	return string(c)
}

// ParseCategory accepts both the API spelling and a dashed form ("now-playing").
func ParseCategory(s string) (Category, error) {
	switch s {
	case "popular":
		return CategoryPopular, nil
	case "now_playing", "now-playing":
		return CategoryNowPlaying, nil
	case "top_rated", "top-rated":
		return CategoryTopRated, nil
	case "upcoming":
		return CategoryUpcoming, nil
	case "search":
		return CategorySearch, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}
