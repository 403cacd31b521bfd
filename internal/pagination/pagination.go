package pagination

import (
	"net/http"
	"strconv"
)

const MaxPerPage = 100

// Params holds pagination parameters extracted from a request. Page is 1-based.
type Params struct {
	Page    int
	PerPage int
}

// FromRequest reads page and per_page from the query string. perPage is
// the default page size.
func FromRequest(r *http.Request, perPage int) Params {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}

	size, _ := strconv.Atoi(q.Get("per_page"))
	if size <= 0 {
		size = perPage
	}
	if size <= 0 {
		size = 1
	}
	if size > MaxPerPage {
		size = MaxPerPage
	}

	return Params{Page: page, PerPage: size}
}

// Offset returns the index of the first item of the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// LastPage returns the number of the last page for total items, at least 1.
func (p Params) LastPage(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// Response wraps a paginated API response.
type Response struct {
	Data     any `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	LastPage int `json:"last_page"`
}

// Slice cuts the page out of items. Pages past the end are empty, never nil.
func Slice[T any](items []T, p Params) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// NewResponse pages items and wraps the page with its metadata.
func NewResponse[T any](items []T, p Params) *Response {
	return &Response{
		Data:     Slice(items, p),
		Total:    len(items),
		Page:     p.Page,
		PerPage:  p.PerPage,
		LastPage: p.LastPage(len(items)),
	}
}
