package dao

// PagingRequest supports a request constrained to a given page number and size.
type PagingRequest struct {
	// PageNumber is the requested page number, starting from 1.
	PageNumber int
	// PageSize is the requested page size.
	PageSize int
}

// Sanitized returns a copy with out of range values forced into bounds.
func (pr PagingRequest) Sanitized() PagingRequest {
	o := pr
	if o.PageNumber < 1 {
		o.PageNumber = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 20
	}
	if o.PageSize > 500 {
		o.PageSize = 500
	}
	return o
}

// Limit is the row limit for queries honoring this paging request.
func (pr PagingRequest) Limit() int {
	return pr.Sanitized().PageSize
}

// Offset is the row offset for queries honoring this paging request.
func (pr PagingRequest) Offset() int {
	s := pr.Sanitized()
	return (s.PageNumber - 1) * s.PageSize
}

// PageCount derives the number of pages needed for a total row count.
func (pr PagingRequest) PageCount(totalRows int) int {
	s := pr.Sanitized()
	pageCount := totalRows / s.PageSize
	if totalRows%s.PageSize > 0 {
		pageCount++
	}
	if pageCount < 1 {
		pageCount = 1
	}
	return pageCount
}
