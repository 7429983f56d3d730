package protocol

import (
	"fmt"
	"net/url"
	"strconv"
)

// PagingRequest supports a request constrained to a given page number and size.
type PagingRequest struct {
	// PageNumber is the requested page number, starting from 1.
	PageNumber int `json:"pageNumber,omitempty"`
	// PageSize is the requested page size.
	PageSize int `json:"pageSize,omitempty"`
}

// NewPagingRequest creates a PagingRequest from URL query parameters,
// applying defaults for values unset or out of range.
func NewPagingRequest(values url.Values) (PagingRequest, error) {
	pr := PagingRequest{PageNumber: 1, PageSize: 20}
	if v := values.Get("pageNumber"); len(v) > 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pr, fmt.Errorf("pageNumber is not an integer: %v", err)
		}
		if n > 0 {
			pr.PageNumber = n
		}
	}
	if v := values.Get("pageSize"); len(v) > 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			return pr, fmt.Errorf("pageSize is not an integer: %v", err)
		}
		if n > 0 && n <= 500 {
			pr.PageSize = n
		}
	}
	return pr, nil
}
