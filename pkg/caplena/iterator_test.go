package caplena_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/caplena/caplena-go/pkg/caplena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threePageController yields pages of sizes [2, 2, 1] and counts how often
// each page is fetched.
func threePageController(t *testing.T) (*caplena.BaseController, *[]int) {
	t.Helper()

	controller, _ := newTestController(nil)
	fetched := &[]int{}

	return controller, fetched
}

func threePageIterator(controller *caplena.BaseController, fetched *[]int, limit int) *caplena.Iterator {
	pages := map[int]string{
		1: `{"count": 5, "next_url": "/projects?page=2", "results": [
			{"id": "pj_1", "name": "a", "language": "en"},
			{"id": "pj_2", "name": "b", "language": "en"}]}`,
		2: `{"count": 5, "next_url": "/projects?page=3", "results": [
			{"id": "pj_3", "name": "c", "language": "en"},
			{"id": "pj_4", "name": "d", "language": "en"}]}`,
		3: `{"count": 5, "next_url": null, "results": [
			{"id": "pj_5", "name": "e", "language": "en"}]}`,
	}

	return controller.BuildIterator(func(page int) (*caplena.Response, error) {
		*fetched = append(*fetched, page)

		return jsonResponse(200, pages[page]), nil
	}, limit, caplena.ProjectSchema)
}

func TestIterator_Unlimited(t *testing.T) {
	t.Parallel()

	controller, fetched := threePageController(t)
	it := threePageIterator(controller, fetched, 0)

	var ids []string

	for it.HasNext() {
		item, err := it.Next()
		if errors.Is(err, caplena.ErrNoMoreItems) {
			break
		}

		require.NoError(t, err)
		ids = append(ids, item.ID())
	}

	assert.Equal(t, []string{"pj_1", "pj_2", "pj_3", "pj_4", "pj_5"}, ids)
	assert.Equal(t, []int{1, 2, 3}, *fetched)
	assert.Equal(t, 5, it.Count())

	// Exhaustion is stable.
	_, err := it.Next()
	assert.ErrorIs(t, err, caplena.ErrNoMoreItems)
	assert.False(t, it.HasNext())
}

func TestIterator_Limit(t *testing.T) {
	t.Parallel()

	controller, fetched := threePageController(t)
	it := threePageIterator(controller, fetched, 3)

	items, err := it.Collect()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "pj_3", items[2].ID())

	// Only the first two pages were ever fetched; the budget ran out before
	// the third was needed.
	assert.Equal(t, []int{1, 2}, *fetched)

	_, err = it.Next()
	assert.ErrorIs(t, err, caplena.ErrNoMoreItems)
}

func TestIterator_LimitWithinFirstPage(t *testing.T) {
	t.Parallel()

	controller, fetched := threePageController(t)
	it := threePageIterator(controller, fetched, 2)

	items, err := it.Collect()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []int{1}, *fetched)
}

func TestIterator_FetchErrorIsNotFatal(t *testing.T) {
	t.Parallel()

	controller, _ := newTestController(nil)

	var calls int

	it := controller.BuildIterator(func(page int) (*caplena.Response, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("transient: %w", assert.AnError)
		}

		return jsonResponse(200, `{"count": 1, "next_url": null, "results": [
			{"id": "pj_1", "name": "a", "language": "en"}]}`), nil
	}, 0, caplena.ProjectSchema)

	_, err := it.Next()
	require.Error(t, err)

	// The iterator stays usable; the same page is requested again.
	item, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "pj_1", item.ID())
}

func TestIterator_EmptySource(t *testing.T) {
	t.Parallel()

	controller, _ := newTestController(nil)

	it := controller.BuildIterator(func(page int) (*caplena.Response, error) {
		return jsonResponse(200, `{"count": 0, "next_url": null, "results": []}`), nil
	}, 0, caplena.ProjectSchema)

	// Optimistically true before the first fetch.
	assert.True(t, it.HasNext())

	_, err := it.Next()
	assert.ErrorIs(t, err, caplena.ErrNoMoreItems)
	assert.False(t, it.HasNext())
}
