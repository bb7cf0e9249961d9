package domain

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPage          = 1_000_000
)

// PageRequest carries page/limit values from the HTTP layer to the repo layer.
// Page counts from 1.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest builds a PageRequest from optional query values.
// Missing or non-positive values fall back to page 1 and a limit of 20;
// the limit never exceeds 100 and the page never exceeds 1,000,000, so the
// offset always fits in a positive int.
func NewPageRequest(page, limit *int) PageRequest {
	p := PageRequest{Page: 1, Limit: defaultPageLimit}
	if page != nil && *page >= 1 {
		p.Page = min(*page, maxPage)
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, maxPageLimit)
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of results plus the size of the full result set.
type Page[T any] struct {
	Items []T
	Total int64
}
