// Package listing holds the state of the searchable, paginated record table.
package listing

import (
	"slices"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

// Page is one rendered slice of the filtered record sequence.
type Page struct {
	Records     []domain.CaseRecord `json:"records"`
	CurrentPage int                 `json:"page"`
	TotalPages  int                 `json:"totalPages"`
	TotalItems  int                 `json:"totalItems"`
	SearchTerm  string              `json:"search"`
}

// Build filters records by term and cuts out the requested page. The returned
// records are a copy, so callers may hold them across later mutations.
func Build(records []domain.CaseRecord, term string, page int) Page {
	filtered := domain.Filter(records, term)
	return Page{
		Records:     slices.Clone(domain.Paginate(filtered, page)),
		CurrentPage: page,
		TotalPages:  domain.TotalPages(len(filtered)),
		TotalItems:  len(filtered),
		SearchTerm:  term,
	}
}

// InRange reports whether the page lies inside [1, TotalPages]. An empty
// listing has no valid pages, but page 1 is still its natural resting place.
func (p Page) InRange() bool {
	if p.TotalPages == 0 {
		return p.CurrentPage == 1
	}
	return p.CurrentPage >= 1 && p.CurrentPage <= p.TotalPages
}

// View is the listing state owned by a single presentation: the search term
// and the 1-indexed current page.
//
// Changing the search term does not reset the page, and the page is not
// clamped when the filtered set shrinks; the rendered page is then empty
// until the user navigates back.
type View struct {
	searchTerm  string
	currentPage int
}

// NewView starts on page 1 with no search term.
func NewView() View {
	return View{currentPage: 1}
}

func (v View) SearchTerm() string { return v.searchTerm }

func (v View) CurrentPage() int { return v.currentPage }

// SetSearch replaces the search term.
func (v *View) SetSearch(term string) {
	v.searchTerm = term
}

// GoTo moves to page if it lies within [1, totalPages] and reports whether it
// did. Requests outside the range leave the view unchanged.
func (v *View) GoTo(page, totalPages int) bool {
	if page < 1 || page > totalPages {
		return false
	}
	v.currentPage = page
	return true
}

// Next advances one page if possible.
func (v *View) Next(totalPages int) bool {
	return v.GoTo(v.currentPage+1, totalPages)
}

// Prev goes back one page if possible.
func (v *View) Prev(totalPages int) bool {
	return v.GoTo(v.currentPage-1, totalPages)
}

// Render builds the page the view currently points at.
func (v View) Render(records []domain.CaseRecord) Page {
	return Build(records, v.searchTerm, v.currentPage)
}
