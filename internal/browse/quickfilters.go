package browse

// QuickFilter is a canned search offered next to the search box.
type QuickFilter struct {
	Label string
	Query string
}

var QuickFilters = []QuickFilter{
	{Label: "Popular Movies", Query: "popular"},
	{Label: "Action Movies", Query: "action"},
	{Label: "Comedy Movies", Query: "comedy"},
	{Label: "Drama Movies", Query: "drama"},
	{Label: "Horror Movies", Query: "horror"},
	{Label: "Sci-Fi Movies", Query: "science fiction"},
	{Label: "Romance Movies", Query: "romance"},
	{Label: "Thriller Movies", Query: "thriller"},
}
