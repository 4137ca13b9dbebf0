package state

// Ellipsis marks a gap in the list returned by VisiblePages.
const Ellipsis = 0

const maxVisiblePages = 5

// VisiblePages returns the page buttons to show for a pager positioned at
// current out of total. Gaps are reported as Ellipsis.
//
//	VisiblePages(1, 10)  -> 1 2 3 4 … 10
//	VisiblePages(5, 10)  -> 1 … 4 5 6 … 10
//	VisiblePages(9, 10)  -> 1 … 7 8 9 10
func VisiblePages(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= maxVisiblePages {
		return pageRange(nil, 1, total)
	}

	switch {
	case current <= 3:
		pages := pageRange(nil, 1, 4)
		return append(pages, Ellipsis, total)
	case current >= total-2:
		pages := []int{1, Ellipsis}
		return pageRange(pages, total-3, total)
	default:
		pages := []int{1, Ellipsis}
		pages = pageRange(pages, current-1, current+1)
		return append(pages, Ellipsis, total)
	}
}

func pageRange(pages []int, from, to int) []int {
	for i := from; i <= to; i++ {
		pages = append(pages, i)
	}
	return pages
}
