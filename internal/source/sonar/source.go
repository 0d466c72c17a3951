package sonar

import (
	"context"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// Source flattens the feed into an ordered commit stream. Page n+1 is requested
// only after every commit of page n has been handed out.
type Source struct {
	client  *Client
	paging  *PagingInfo
	pending []pageCommit
}

// NewSource creates a source reading the feed from its first page.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Next returns the next commit or io.EOF once the last page is drained.
func (s *Source) Next(ctx context.Context) (*scm.Commit, error) {
	for len(s.pending) == 0 {
		if s.paging != nil && !s.paging.HasNext() {
			return nil, io.EOF
		}

		err := s.fetchNext(ctx)
		if err != nil {
			return nil, err
		}
	}

	next := s.pending[0]
	s.pending = s.pending[1:]

	return next.toCommit(), nil
}

func (s *Source) fetchNext(ctx context.Context) error {
	pageIndex := firstPage
	if s.paging != nil {
		pageIndex = s.paging.Next().PageIndex
	}

	page, err := s.client.FetchPage(ctx, pageIndex)
	if err != nil {
		return err
	}

	// The requested index wins over the one the server echoes.
	paging := PagingInfo{PageIndex: pageIndex, PageSize: page.Paging.PageSize, Total: page.Paging.Total}
	if paging.PageSize <= 0 {
		return fmt.Errorf("%w: page %d has size %d", ErrInvalidPage, pageIndex, paging.PageSize)
	}

	if paging.Total < 0 {
		return fmt.Errorf("%w: page %d has negative total", ErrInvalidPage, pageIndex)
	}

	s.paging = &paging
	s.pending = page.Commits

	return nil
}
