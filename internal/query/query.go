// Package query filters and pages a guest list already loaded from the store.
package query

import (
	"strconv"
	"strings"

	"wedding-registry/internal/models"
)

// Filter keeps guests whose name, name_km, phone or note contains term and
// whose payment type equals payment. Empty term or payment means no
// constraint. name and note are matched case-insensitively; Khmer text and
// phone numbers are matched as typed.
func Filter(guests []models.Guest, term string, payment models.PaymentType) []models.Guest {
	lower := strings.ToLower(term)
	out := make([]models.Guest, 0, len(guests))
	for _, g := range guests {
		if payment != "" && g.PaymentType != payment {
			continue
		}
		if term != "" && !matches(g, term, lower) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func matches(g models.Guest, term, lower string) bool {
	return strings.Contains(strings.ToLower(g.Name), lower) ||
		(g.NameKm != "" && strings.Contains(g.NameKm, term)) ||
		(g.Phone != "" && strings.Contains(g.Phone, term)) ||
		(g.Note != "" && strings.Contains(strings.ToLower(g.Note), lower))
}

// Paginate returns list[(page-1)*size : page*size]. Pages outside the list
// yield an empty slice; callers validate bounds.
func Paginate[T any](list []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(list) {
		return []T{}
	}
	end := min(start+size, len(list))
	return list[start:end]
}

// TotalPages is ceil(n/size), zero for an empty list.
func TotalPages(n, size int) int {
	if size < 1 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// PageItem is one pagination control. Ellipsis items carry Page 0.
type PageItem struct {
	Page     int
	Ellipsis bool
}

func (p PageItem) String() string {
	if p.Ellipsis {
		return "..."
	}
	return strconv.Itoa(p.Page)
}

const maxPlainPages = 7

// PageNumbers lists the page controls for current of total. Up to seven
// pages are all shown. Beyond that the first five are shown near the start,
// the last five near the end, and otherwise a window of three around
// current, always with the first and last page.
func PageNumbers(current, total int) []PageItem {
	if total <= 0 {
		return nil
	}
	if total <= maxPlainPages {
		return pages(1, total)
	}

	gap := PageItem{Ellipsis: true}
	switch {
	case current <= 4:
		return append(pages(1, 5), gap, PageItem{Page: total})
	case current >= total-3:
		return append([]PageItem{{Page: 1}, gap}, pages(total-4, total)...)
	default:
		items := append([]PageItem{{Page: 1}, gap}, pages(current-1, current+1)...)
		return append(items, gap, PageItem{Page: total})
	}
}

func pages(from, to int) []PageItem {
	items := make([]PageItem, 0, to-from+1)
	for p := from; p <= to; p++ {
		items = append(items, PageItem{Page: p})
	}
	return items
}
