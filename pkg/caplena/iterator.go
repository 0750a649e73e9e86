package caplena

import "errors"

// PageFetcher fetches one page of a list endpoint, identified by a 1-based
// page index, and returns its raw response envelope.
type PageFetcher func(page int) (*Response, error)

// resultsFetcher is the translated form BuildIterator hands to the iterator:
// materialized items, a has-more flag, and the total-count hint.
type resultsFetcher func(page int) ([]*Object, bool, int, error)

type iteratorState int

const (
	statePrimed iteratorState = iota
	stateFetching
	stateExhausted
)

// Iterator is a lazy, single-pass sequence over paginated list results.
// Pages are fetched strictly on demand, one at a time, as items are
// consumed; pagination mechanics stay hidden behind Next and HasNext.
//
// An iterator is finite whenever a limit is set or the source eventually
// stops reporting further pages. A source that reports more pages forever
// without a limit in place will iterate forever; guarding against such
// server misbehavior is the caller's responsibility.
type Iterator struct {
	fetch     resultsFetcher
	buffer    []*Object
	page      int
	hasMore   bool
	count     int
	remaining int
	state     iteratorState
}

// newIterator creates an iterator bound to a page fetcher. A limit <= 0
// means unbounded.
func newIterator(fetch resultsFetcher, limit int) *Iterator {
	if limit <= 0 {
		limit = -1
	}

	return &Iterator{
		fetch:     fetch,
		hasMore:   true,
		remaining: limit,
		state:     statePrimed,
	}
}

// HasNext reports whether another item may be produced. Before the first
// fetch this is optimistically true; a subsequent Next call settles it.
func (it *Iterator) HasNext() bool {
	if it.state == stateExhausted || it.remaining == 0 {
		return false
	}

	return len(it.buffer) > 0 || it.hasMore
}

// Next produces the next item of the flattened sequence, fetching the next
// page when the buffer runs dry. It returns ErrNoMoreItems once the source
// reports no further pages or the item budget is spent.
func (it *Iterator) Next() (*Object, error) {
	if it.state == stateExhausted {
		return nil, ErrNoMoreItems
	}

	if it.remaining == 0 {
		it.state = stateExhausted

		return nil, ErrNoMoreItems
	}

	for len(it.buffer) == 0 {
		if !it.hasMore {
			it.state = stateExhausted

			return nil, ErrNoMoreItems
		}

		it.state = stateFetching
		it.page++

		items, hasMore, count, err := it.fetch(it.page)
		if err != nil {
			it.state = statePrimed
			it.page--

			return nil, err
		}

		it.buffer = items
		it.hasMore = hasMore
		it.count = count
		it.state = statePrimed
	}

	head := it.buffer[0]
	it.buffer = it.buffer[1:]

	if it.remaining > 0 {
		it.remaining--
	}

	return head, nil
}

// Count returns the source's total item count hint, known after the first
// page has been fetched.
func (it *Iterator) Count() int {
	return it.count
}

// Collect drains the iterator into a slice.
func (it *Iterator) Collect() ([]*Object, error) {
	var items []*Object

	for {
		item, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return items, nil
			}

			return nil, err
		}

		items = append(items, item)
	}
}
