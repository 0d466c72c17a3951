// Package sonar reads commit history from a paginated HTTP feed.
package sonar

import "fmt"

// PagingInfo describes one page of the feed. It is a plain value; two pages are the
// same page when all three fields match.
type PagingInfo struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
}

// HasNext reports whether pages remain after this one.
func (p PagingInfo) HasNext() bool {
	return p.PageIndex*p.PageSize < p.Total
}

// Next returns the paging of the following page.
func (p PagingInfo) Next() PagingInfo {
	return PagingInfo{PageIndex: p.PageIndex + 1, PageSize: p.PageSize, Total: p.Total}
}

// String implements fmt.Stringer.
func (p PagingInfo) String() string {
	return fmt.Sprintf("page %d (size %d, total %d)", p.PageIndex, p.PageSize, p.Total)
}
