// Package directory pages and caches the business directory.
package directory

import "mehnda-chinji/internal/domain"

// NextPage returns the page to request after last, given how many pages are
// loaded. Server pagination wins; without it a full page implies more.
func NextPage(last domain.BusinessPage, pagesLoaded int) (int, bool) {
	if p := last.Pagination; p != nil && p.CurrentPage < p.TotalPages {
		return p.CurrentPage + 1, true
	}
	if len(last.Data) == domain.BusinessPageSize {
		return pagesLoaded + 1, true
	}
	return 0, false
}
