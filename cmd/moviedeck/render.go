package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/marco/movieDeck/internal/browse"
	"github.com/marco/movieDeck/internal/catalog"
	"github.com/marco/movieDeck/internal/state"
)

// renderMovies prints a numbered movie table. The numbers are 1-based
// positions in movies, which the shell's "open" command accepts.
func renderMovies(w io.Writer, movies []catalog.Movie, isFavorite func(int) bool) {
	if len(movies) == 0 {
		fmt.Fprintln(w, "No movies found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tYEAR\tRATING\t")
	for i, m := range movies {
		mark := ""
		if isFavorite != nil && isFavorite(m.ID) {
			mark = " *"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s%s\t%s\t%s\t\n", i+1, m.ID, m.Title, mark, releaseYear(m.ReleaseDate), rating(m.VoteAverage, m.VoteCount))
	}
	tw.Flush()
}

// renderState prints the visible movies plus the pager line.
func renderState(w io.Writer, s state.State, isFavorite func(int) bool) {
	switch {
	case s.Loading:
		fmt.Fprintln(w, "Loading...")
		return
	case s.Error != "":
		fmt.Fprintln(w, s.Error)
		fmt.Fprintln(w, `Type "retry" to try again.`)
		return
	}

	title := s.Category.Label()
	if s.Category == catalog.CategorySearch {
		title = fmt.Sprintf("Search results for %q", s.SearchQuery)
	}
	fmt.Fprintf(w, "\n%s\n\n", title)
	renderMovies(w, s.Movies, isFavorite)
	renderPagination(w, s.Pagination())
}

func renderPagination(w io.Writer, p state.Pagination) {
	if p.TotalPages <= 1 {
		return
	}
	var buttons []string
	for _, n := range state.VisiblePages(p.CurrentPage, p.TotalPages) {
		switch {
		case n == state.Ellipsis:
			buttons = append(buttons, "...")
		case n == p.CurrentPage:
			buttons = append(buttons, "["+strconv.Itoa(n)+"]")
		default:
			buttons = append(buttons, strconv.Itoa(n))
		}
	}
	fmt.Fprintf(w, "\nPage %d of %d (%s results)  %s\n",
		p.CurrentPage, p.TotalPages, humanize.Comma(int64(p.TotalResults)), strings.Join(buttons, " "))
}

func renderDetail(w io.Writer, client *catalog.Client, view browse.DetailView) {
	d := view.Detail
	fmt.Fprintf(w, "\n%s (%s)", d.Title, releaseYear(d.ReleaseDate))
	if view.Favorite {
		fmt.Fprint(w, "  * favorite")
	}
	fmt.Fprintln(w)
	if d.Tagline != "" {
		fmt.Fprintf(w, "%q\n", d.Tagline)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rating:\t%s\n", rating(d.VoteAverage, d.VoteCount))
	if d.Runtime > 0 {
		fmt.Fprintf(tw, "Runtime:\t%s\n", runtime(d.Runtime))
	}
	if len(d.Genres) > 0 {
		names := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			names = append(names, g.Name)
		}
		fmt.Fprintf(tw, "Genres:\t%s\n", strings.Join(names, ", "))
	}
	if d.Status != "" {
		fmt.Fprintf(tw, "Status:\t%s\n", d.Status)
	}
	if d.Budget > 0 {
		fmt.Fprintf(tw, "Budget:\t$%s\n", humanize.Comma(d.Budget))
	}
	if d.Revenue > 0 {
		fmt.Fprintf(tw, "Revenue:\t$%s\n", humanize.Comma(d.Revenue))
	}
	if d.Homepage != "" {
		fmt.Fprintf(tw, "Homepage:\t%s\n", d.Homepage)
	}
	if d.IMDbID != "" {
		fmt.Fprintf(tw, "IMDb:\thttps://www.imdb.com/title/%s\n", d.IMDbID)
	}
	if poster := client.PosterURL(d.PosterPath); poster != "" {
		fmt.Fprintf(tw, "Poster:\t%s\n", poster)
	}
	tw.Flush()

	if d.Overview != "" {
		fmt.Fprintf(w, "\n%s\n", d.Overview)
	}

	if len(view.Cast) > 0 {
		fmt.Fprintln(w, "\nCast")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, c := range view.Cast {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Name, c.Character)
		}
		tw.Flush()
	}
	if len(view.Crew) > 0 {
		fmt.Fprintln(w, "\nCrew")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, c := range view.Crew {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Name, c.Job)
		}
		tw.Flush()
	}
}

func releaseYear(date string) string {
	if len(date) >= 4 {
		if _, err := strconv.Atoi(date[:4]); err == nil {
			return date[:4]
		}
	}
	return "n/a"
}

func rating(avg float64, votes int) string {
	if votes == 0 {
		return "unrated"
	}
	return fmt.Sprintf("%.1f/10 (%s votes)", avg, humanize.Comma(int64(votes)))
}

func runtime(minutes int) string {
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
