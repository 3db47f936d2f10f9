package query

import "wedding-registry/internal/models"

// DefaultPageSize is the page size of a fresh list
const DefaultPageSize = 10

// ListState is the guest table view: the loaded list, the active filters and
// the page cursor. Transitions return a new state and never touch the input.
type ListState struct {
	All      []models.Guest
	Filtered []models.Guest
	Search   string
	Payment  models.PaymentType
	Page     int
	PageSize int
}

// NewListState returns an empty list on page 1
func NewListState() ListState {
	return ListState{Page: 1, PageSize: DefaultPageSize}
}

// Load replaces the guest list and reapplies the current filters. The page
// is kept when it is still in range.
func (s ListState) Load(guests []models.Guest) ListState {
	s.All = guests
	s.Filtered = Filter(guests, s.Search, s.Payment)
	if s.Page > s.TotalPages() {
		s.Page = max(1, s.TotalPages())
	}
	return s
}

// ApplyFilter sets the filters and goes back to page 1
func (s ListState) ApplyFilter(search string, payment models.PaymentType) ListState {
	s.Search = search
	s.Payment = payment
	s.Filtered = Filter(s.All, search, payment)
	s.Page = 1
	return s
}

// ChangePage moves to page, or returns s unchanged when page is out of range.
func (s ListState) ChangePage(page int) ListState {
	if page < 1 || page > s.TotalPages() {
		return s
	}
	s.Page = page
	return s
}

// ChangePageSize sets the page size and goes back to page 1. Sizes below
// one are ignored.
func (s ListState) ChangePageSize(size int) ListState {
	if size < 1 {
		return s
	}
	s.PageSize = size
	s.Page = 1
	return s
}

func (s ListState) TotalPages() int {
	return TotalPages(len(s.Filtered), s.PageSize)
}

// Visible is the current page of the filtered list
func (s ListState) Visible() []models.Guest {
	return Paginate(s.Filtered, s.Page, s.PageSize)
}

// Range returns the 1-based first and last item shown and the filtered
// total, as in "showing 11-20 of 25". An empty list gives 0, 0, 0.
func (s ListState) Range() (start, end, total int) {
	total = len(s.Filtered)
	if total == 0 {
		return 0, 0, 0
	}
	start = (s.Page-1)*s.PageSize + 1
	end = min(s.Page*s.PageSize, total)
	return start, end, total
}

// Pages is PageNumbers for the current state
func (s ListState) Pages() []PageItem {
	return PageNumbers(s.Page, s.TotalPages())
}
