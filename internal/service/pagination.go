package service

import "strconv"

// Page sizes of the listings.
const (
	IndexPerPage      = 12
	TagPerPage        = 12
	SearchPerPage     = 9
	PageBlogsPerPage  = 9
	MyBlogsPerPage    = 9
	PagesPerPage      = 10
	MyPagesPerPage    = 10
	CategoryPerPage   = 10
	WritePagesPerPage = 10
)

// Pagination describes one window of a listing. Number is 1-based.
type Pagination struct {
	Number   int
	NumPages int
	PerPage  int
	Total    int
}

// Paginate resolves a raw page number: anything that is not a positive
// integer gives page 1, and numbers past the end give the last page.
func Paginate(total, perPage int, raw string) Pagination {
	if perPage < 1 {
		perPage = 1
	}
	numPages := (total + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}
	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		number = 1
	}
	if number > numPages {
		number = numPages
	}
	return Pagination{Number: number, NumPages: numPages, PerPage: perPage, Total: total}
}

// Offset is the index of the first item of the window.
func (p Pagination) Offset() int { return (p.Number - 1) * p.PerPage }

// HasPrevious reports whether an earlier page exists.
func (p Pagination) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a later page exists.
func (p Pagination) HasNext() bool { return p.Number < p.NumPages }

// Previous is the previous page number.
func (p Pagination) Previous() int { return p.Number - 1 }

// Next is the next page number.
func (p Pagination) Next() int { return p.Number + 1 }

// Pages lists every page number, for templates.
func (p Pagination) Pages() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// window returns the bounds of the current page within n items.
func (p Pagination) window(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.PerPage
	if end > n {
		end = n
	}
	return start, end
}
