package render

import "strconv"

// Page is one page of a paginated listing. Number is 1-based.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	TotalItems int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }

// Numbers lists every page number, for page links.
func (p Page[T]) Numbers() []int {
	numbers := make([]int, p.TotalPages)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return numbers
}

// PageCount is ceil(total/size), and at least 1.
func PageCount(total, size int) int {
	if size <= 0 {
		panic("render: page size must be positive")
	}
	n := (total + size - 1) / size
	if n < 1 {
		n = 1
	}
	return n
}

// Paginate splits items, already in listing order, into pages of size.
// An empty collection yields one empty page.
func Paginate[T any](items []T, size int) []Page[T] {
	total := PageCount(len(items), size)
	pages := make([]Page[T], total)
	for i := range pages {
		start := i * size
		end := min(start+size, len(items))
		pages[i] = Page[T]{
			Items:      items[start:end:end],
			Number:     i + 1,
			TotalPages: total,
			TotalItems: len(items),
		}
	}
	return pages
}

// ListingFile returns the output file of page n of the listing rooted at base,
// e.g. "notice/index.html" and "notice/page/2.html".
func ListingFile(base string, n int) string {
	if n <= 1 {
		return base + "/index.html"
	}
	return base + "/page/" + strconv.Itoa(n) + ".html"
}

// ListingURL returns the public path of page n of the listing rooted at base.
func ListingURL(base string, n int) string {
	if n <= 1 {
		return "/" + base + "/"
	}
	return "/" + base + "/page/" + strconv.Itoa(n)
}

// Neighbors returns the items before and after index i, nil at the ends.
func Neighbors[T any](items []T, i int) (before, after *T) {
	if i > 0 {
		before = &items[i-1]
	}
	if i+1 < len(items) {
		after = &items[i+1]
	}
	return before, after
}
