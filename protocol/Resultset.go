package protocol

// Resultset provides paging information about a collection of results.
type Resultset struct {
	// TotalRows is the total number of items matching the query.
	TotalRows int `json:"totalRows"`
	// PageCount is the total number of pages given the page size.
	PageCount int `json:"pageCount"`
	// PageNumber is the requested page number, starting from 1.
	PageNumber int `json:"pageNumber"`
	// PageSize is the requested page size.
	PageSize int `json:"pageSize"`
	// PageRows is the number of items in this page.
	PageRows int `json:"pageRows"`
}
