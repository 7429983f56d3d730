package models

// Resultset provides a summation of an arbitrary result set for paging.
type Resultset struct {
	// Resultset metadata
	TotalRows  int `db:"totalRows"`
	PageCount  int
	PageNumber int
	PageSize   int
	PageRows   int
}
