package youtube_test

// Coverage Notes:
// - Pager is driven by an in-memory PageFunc; no HTTP involved.
// - Pacing is observed through an injected Sleep.

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-mentions/internal/youtube"
)

// pageCall records one PageFunc invocation.
type pageCall struct {
	cursor string
	size   int
}

// scriptedPages serves pages[i] for the i-th call. Each page lists how many
// items it returns and the cursor it hands back.
type scriptedPages struct {
	pages []scriptedPage
	calls []pageCall
	err   error
	errAt int
}

type scriptedPage struct {
	n    int
	next string
}

func (s *scriptedPages) Fetch(_ context.Context, cursor string, size int) (youtube.Page[int], error) {
	i := len(s.calls)
	s.calls = append(s.calls, pageCall{cursor: cursor, size: size})
	if s.err != nil && i == s.errAt {
		return youtube.Page[int]{}, s.err
	}
	if i >= len(s.pages) {
		return youtube.Page[int]{}, fmt.Errorf("unexpected call %d", i)
	}
	p := s.pages[i]
	items := make([]int, p.n)
	for k := range items {
		items[k] = i*1000 + k
	}
	return youtube.Page[int]{Items: items, NextCursor: p.next}, nil
}

func newPager(s *scriptedPages, rec *sleepRecorder, size int) youtube.Pager[int] {
	return youtube.Pager[int]{
		PageSize: size,
		Delay:    200 * time.Millisecond,
		Sleep:    rec.Sleep,
		Fetch:    s.Fetch,
	}
}

// ---------------------------------------------------------------------------
// TestPagerCollect - cursor walk within an item budget
// ---------------------------------------------------------------------------

func TestPagerCollect(t *testing.T) {
	t.Parallel()

	t.Run("non-positive budget performs no fetch", func(t *testing.T) {
		t.Parallel()

		for _, budget := range []int{0, -1, -100} {
			s := &scriptedPages{pages: []scriptedPage{{n: 5, next: "c1"}}}
			rec := &sleepRecorder{}

			items, err := newPager(s, rec, 50).Collect(context.Background(), budget)

			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
			assert.Empty(t, s.calls, "budget %d", budget)
			assert.Empty(t, rec.Delays())
		}
	})

	t.Run("missing cursor ends after one request regardless of budget", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{pages: []scriptedPage{{n: 3}}}
		rec := &sleepRecorder{}

		items, err := newPager(s, rec, 50).Collect(context.Background(), 1000)

		require.NoError(t, err)
		assert.Len(t, items, 3)
		assert.Len(t, s.calls, 1)
		assert.Empty(t, rec.Delays())
	})

	t.Run("page size is min of remaining budget and endpoint limit", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{pages: []scriptedPage{
			{n: 50, next: "c1"},
			{n: 50, next: "c2"},
			{n: 20, next: "c3"},
		}}
		rec := &sleepRecorder{}

		items, err := newPager(s, rec, 50).Collect(context.Background(), 120)

		require.NoError(t, err)
		assert.Len(t, items, 120)
		assert.Equal(t, []pageCall{{"", 50}, {"c1", 50}, {"c2", 20}}, s.calls)
		assert.Equal(t, []time.Duration{200 * time.Millisecond, 200 * time.Millisecond}, rec.Delays())
	})

	t.Run("items beyond the budget are dropped", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{pages: []scriptedPage{{n: 10, next: "c1"}}}

		items, err := newPager(s, &sleepRecorder{}, 50).Collect(context.Background(), 4)

		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3}, items)
		assert.Len(t, s.calls, 1)
	})

	t.Run("failure keeps accumulated items", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		s := &scriptedPages{
			pages: []scriptedPage{{n: 2, next: "c1"}, {n: 2, next: "c2"}},
			err:   boom,
			errAt: 1,
		}

		items, err := newPager(s, &sleepRecorder{}, 50).Collect(context.Background(), 10)

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []int{0, 1}, items)
		assert.Len(t, s.calls, 2)
	})

	t.Run("failure on first page yields empty non-nil slice", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{err: errors.New("down"), errAt: 0}

		items, err := newPager(s, &sleepRecorder{}, 50).Collect(context.Background(), 10)

		require.Error(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("repeated cursor ends the walk", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{pages: []scriptedPage{{n: 1, next: "same"}, {n: 1, next: "same"}, {n: 1, next: "same"}}}

		items, err := newPager(s, &sleepRecorder{}, 50).Collect(context.Background(), 10)

		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Len(t, s.calls, 2)
	})

	t.Run("empty page with cursor keeps walking", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{pages: []scriptedPage{{n: 0, next: "c1"}, {n: 2}}}

		items, err := newPager(s, &sleepRecorder{}, 50).Collect(context.Background(), 10)

		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Len(t, s.calls, 2)
	})

	t.Run("cancelled pacing sleep ends the walk", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := &scriptedPages{pages: []scriptedPage{{n: 2, next: "c1"}, {n: 2}}}

		items, err := newPager(s, &sleepRecorder{}, 50).Collect(ctx, 10)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, items, 2)
		assert.Len(t, s.calls, 1)
	})
}

// ---------------------------------------------------------------------------
// TestPagerPages - iterator behaviour
// ---------------------------------------------------------------------------

func TestPagerPages(t *testing.T) {
	t.Parallel()

	t.Run("each range restarts from the first page", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{pages: []scriptedPage{{n: 1}, {n: 1}}}
		p := newPager(s, &sleepRecorder{}, 50)

		for range p.Pages(context.Background(), 5) {
		}
		for range p.Pages(context.Background(), 5) {
		}

		require.Len(t, s.calls, 2)
		assert.Equal(t, "", s.calls[0].cursor)
		assert.Equal(t, "", s.calls[1].cursor)
	})

	t.Run("breaking out stops fetching", func(t *testing.T) {
		t.Parallel()

		s := &scriptedPages{pages: []scriptedPage{{n: 1, next: "c1"}, {n: 1, next: "c2"}, {n: 1}}}
		rec := &sleepRecorder{}
		p := newPager(s, rec, 50)

		for range p.Pages(context.Background(), 5) {
			break
		}

		assert.Len(t, s.calls, 1)
		assert.Empty(t, rec.Delays())
	})

	t.Run("skipped counts pass through", func(t *testing.T) {
		t.Parallel()

		p := youtube.Pager[string]{
			PageSize: 10,
			Sleep:    (&sleepRecorder{}).Sleep,
			Fetch: func(context.Context, string, int) (youtube.Page[string], error) {
				return youtube.Page[string]{Items: []string{"a"}, Skipped: 2}, nil
			},
		}

		skipped := 0
		for page, err := range p.Pages(context.Background(), 10) {
			require.NoError(t, err)
			skipped += page.Skipped
		}
		assert.Equal(t, 2, skipped)
	})
}
