package youtube

import (
	"context"
	"iter"
	"time"

	"github.com/alnah/go-mentions/internal/apierr"
)

// Page is one step of a cursor walk.
type Page[T any] struct {
	Items []T
	// NextCursor is empty on the last page.
	NextCursor string
	// Skipped counts items dropped because they could not be parsed.
	Skipped int
}

// PageFunc fetches the page at cursor holding at most size items.
// An empty cursor requests the first page.
type PageFunc[T any] func(ctx context.Context, cursor string, size int) (Page[T], error)

// Pager walks a cursor-paginated endpoint within an item budget.
type Pager[T any] struct {
	// PageSize is the largest page the endpoint serves.
	PageSize int
	// Delay is waited between successful page fetches.
	Delay time.Duration
	// Sleep waits Delay. Nil uses apierr.SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
	Fetch PageFunc[T]
}

// Pages yields pages until the budget is spent, the cursor runs out, or a
// fetch fails. A failure is yielded once as the final element.
//
// Each call starts a fresh walk from the first page. A non-positive budget
// yields nothing and performs no fetch.
func (p Pager[T]) Pages(ctx context.Context, budget int) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		sleep := p.Sleep
		if sleep == nil {
			sleep = apierr.SleepContext
		}
		pageSize := max(p.PageSize, 1)

		cursor := ""
		remaining := budget
		for remaining > 0 {
			page, err := p.Fetch(ctx, cursor, min(remaining, pageSize))
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			if len(page.Items) > remaining {
				page.Items = page.Items[:remaining]
			}
			remaining -= len(page.Items)
			if !yield(page, nil) {
				return
			}

			// A provider handing back the cursor it was given would loop forever.
			if page.NextCursor == "" || page.NextCursor == cursor || remaining <= 0 {
				return
			}
			if err := sleep(ctx, p.Delay); err != nil {
				yield(Page[T]{}, err)
				return
			}
			cursor = page.NextCursor
		}
	}
}

// Collect drains Pages into a single slice.
//
// A failed fetch ends the walk early: the items gathered so far are
// returned together with the error, and are valid output.
func (p Pager[T]) Collect(ctx context.Context, budget int) ([]T, error) {
	items := []T{}
	for page, err := range p.Pages(ctx, budget) {
		if err != nil {
			return items, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}
