package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPageSize is the largest page the API serves.
	DefaultPageSize = 100

	defaultPageConcurrency = 8
)

// Pagination is the meta.pagination member of a listing response.
type Pagination struct {
	CurrentPage int  `json:"current-page"`
	TotalPages  int  `json:"total-pages"`
	TotalCount  int  `json:"total-count"`
	NextPage    *int `json:"next-page"`
	PrevPage    *int `json:"prev-page"`
}

type listPage struct {
	Data []Raw `json:"data"`
	Meta struct {
		Pagination *Pagination `json:"pagination"`
	} `json:"meta"`
}

type fetchOptions struct {
	pageSize    int
	concurrency int
}

// FetchOption configures FetchAll.
type FetchOption func(*fetchOptions)

// WithPageSize overrides the page[size] parameter.
func WithPageSize(n int) FetchOption {
	return func(o *fetchOptions) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithConcurrency bounds how many pages are requested at once.
func WithConcurrency(n int) FetchOption {
	return func(o *fetchOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// FetchAll retrieves every page of a collection and decodes each item into T.
//
// The first page is fetched alone. When it reports more pages, the rest are
// requested concurrently and reassembled in page order. A response without
// pagination metadata is the complete collection. Any failed page aborts the
// whole listing; nothing is retried.
func FetchAll[T any](ctx context.Context, c *Client, path string, opts ...FetchOption) ([]T, error) {
	o := fetchOptions{pageSize: DefaultPageSize, concurrency: defaultPageConcurrency}
	for _, opt := range opts {
		opt(&o)
	}

	first, err := c.fetchPage(ctx, path, 1, o.pageSize)
	if err != nil {
		return nil, err
	}

	pages := [][]Raw{first.Data}
	p := first.Meta.Pagination

	switch {
	case p == nil:
	case p.TotalPages > 1:
		rest := make([][]Raw, p.TotalPages-1)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.concurrency)
		for n := 2; n <= p.TotalPages; n++ {
			g.Go(func() error {
				page, err := c.fetchPage(gctx, path, n, o.pageSize)
				if err != nil {
					return err
				}
				rest[n-2] = page.Data
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		pages = append(pages, rest...)
	case p.TotalPages == 0 && p.NextPage != nil:
		// Some collections omit total-pages; follow next-page until it runs out.
		next := p.NextPage
		for next != nil {
			page, err := c.fetchPage(ctx, path, *next, o.pageSize)
			if err != nil {
				return nil, err
			}
			pages = append(pages, page.Data)
			next = nil
			if page.Meta.Pagination != nil {
				next = page.Meta.Pagination.NextPage
			}
		}
	}

	var items []T
	for _, page := range pages {
		for _, raw := range page {
			item, err := Decode[T](raw)
			if err != nil {
				return nil, fmt.Errorf("failed to decode item from %s: %w", path, err)
			}
			items = append(items, *item)
		}
	}

	tflog.Debug(ctx, "Fetched collection", map[string]any{
		"path":  path,
		"pages": len(pages),
		"items": len(items),
	})

	return items, nil
}

func (c *Client) fetchPage(ctx context.Context, path string, number, size int) (*listPage, error) {
	var page listPage
	if err := c.get(ctx, pagePath(path, number, size), &page); err != nil {
		return nil, fmt.Errorf("failed to fetch page %d of %s: %w", number, path, err)
	}
	return &page, nil
}

func pagePath(path string, number, size int) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage[size]=%d&page[number]=%d", path, sep, size, number)
}
