package caplena_test

import (
	"context"
	"testing"

	"github.com/caplena/caplena-go/pkg/caplena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestBaseController_StatusClassification(t *testing.T) {
	t.Parallel()

	t.Run("status outside the allowed set raises APIError", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(func(req *caplena.TransportRequest) (*caplena.Response, error) {
			return jsonResponse(500, `{"detail": "boom"}`), nil
		})

		_, err := controller.Get(context.Background(), "/projects", nil)

		apiErr := &caplena.APIError{}
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 500, apiErr.StatusCode)
		assert.Equal(t, "Internal Server Error", apiErr.Reason)
		assert.Equal(t, "boom", apiErr.Parsed["detail"])
	})

	t.Run("default allowed codes differ per verb", func(t *testing.T) {
		t.Parallel()

		status := 200
		controller, _ := newTestController(func(req *caplena.TransportRequest) (*caplena.Response, error) {
			return jsonResponse(status, `{}`), nil
		})

		ctx := context.Background()

		// 200 satisfies GET/PUT/PATCH but not POST or DELETE.
		_, err := controller.Get(ctx, "/projects", nil)
		require.NoError(t, err)
		_, err = controller.Put(ctx, "/projects", nil)
		require.NoError(t, err)
		_, err = controller.Patch(ctx, "/projects", nil)
		require.NoError(t, err)

		apiErr := &caplena.APIError{}

		_, err = controller.Post(ctx, "/projects", nil)
		require.ErrorAs(t, err, &apiErr)

		_, err = controller.Delete(ctx, "/projects", nil)
		require.ErrorAs(t, err, &apiErr)

		status = 201

		_, err = controller.Post(ctx, "/projects", nil)
		require.NoError(t, err)

		status = 204

		_, err = controller.Delete(ctx, "/projects", nil)
		require.NoError(t, err)
	})

	t.Run("explicit allowed codes replace the default set", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(func(req *caplena.TransportRequest) (*caplena.Response, error) {
			return jsonResponse(202, `{"task": "tk_1"}`), nil
		})

		resp, err := controller.Post(context.Background(), "/projects", &caplena.CallOptions{
			AllowedCodes: []int{201, 202},
		})
		require.NoError(t, err)
		assert.Equal(t, 202, resp.StatusCode)
	})

	t.Run("config timeout and retry apply unless overridden", func(t *testing.T) {
		t.Parallel()

		transport := &fakeTransport{handler: func(req *caplena.TransportRequest) (*caplena.Response, error) {
			return jsonResponse(200, `{}`), nil
		}}
		requestor := caplena.NewRequestor(transport, nil, "")

		retry := &caplena.RetryPolicy{MaxRetries: 5}
		controller := caplena.NewBaseController(&caplena.Config{
			APIKey:  "key",
			BaseURI: "https://api.caplena.test/v2",
			Retry:   retry,
		}, requestor)

		_, err := controller.Get(context.Background(), "/projects", nil)
		require.NoError(t, err)

		require.Len(t, transport.requests, 1)
		assert.Same(t, retry, transport.requests[0].Retry)
		assert.Equal(t, "key", transport.requests[0].Headers.Get("Caplena-API-Key"))
	})
}

func TestBaseController_BuildResponse(t *testing.T) {
	t.Parallel()

	t.Run("materializes and attaches the controller", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(nil)

		obj, err := controller.BuildResponse(
			jsonResponse(200, `{"id": "pj_1", "name": "Survey", "language": "en"}`),
			caplena.ProjectSchema,
		)
		require.NoError(t, err)
		assert.Equal(t, "pj_1", obj.ID())

		attached, err := obj.Controller()
		require.NoError(t, err)
		assert.Same(t, controller, attached)
	})

	t.Run("empty body on a success status is an APIError", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(nil)

		_, err := controller.BuildResponse(jsonResponse(200, ""), caplena.ProjectSchema)

		apiErr := &caplena.APIError{}
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 200, apiErr.StatusCode)
	})

	t.Run("unparseable body is an APIError, not a decode error", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(nil)

		_, err := controller.BuildResponse(jsonResponse(200, "<html></html>"), caplena.ProjectSchema)

		apiErr := &caplena.APIError{}
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "<html></html>", apiErr.Body)
		assert.Nil(t, apiErr.Parsed)
	})
}

func TestBaseController_BuildIterator(t *testing.T) {
	t.Parallel()

	t.Run("translates results, next_url and count", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(nil)

		pages := map[int]string{
			1: `{"count": 3, "next_url": "/projects?page=2", "results": [
				{"id": "pj_1", "name": "One", "language": "en"},
				{"id": "pj_2", "name": "Two", "language": "de"}]}`,
			2: `{"count": 3, "next_url": null, "results": [
				{"id": "pj_3", "name": "Three", "language": "fr"}]}`,
		}

		it := controller.BuildIterator(func(page int) (*caplena.Response, error) {
			return jsonResponse(200, pages[page]), nil
		}, 0, caplena.ProjectSchema)

		items, err := it.Collect()
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "pj_1", items[0].ID())
		assert.Equal(t, "pj_3", items[2].ID())
		assert.Equal(t, 3, it.Count())

		// Every materialized item shares the producing controller.
		attached, err := items[1].Controller()
		require.NoError(t, err)
		assert.Same(t, controller, attached)
	})

	t.Run("page without results array is an APIError", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(nil)

		it := controller.BuildIterator(func(page int) (*caplena.Response, error) {
			return jsonResponse(200, `{"count": 0}`), nil
		}, 0, caplena.ProjectSchema)

		_, err := it.Next()

		apiErr := &caplena.APIError{}
		assert.ErrorAs(t, err, &apiErr)
	})

	t.Run("nil fetcher fails with ErrNilFetcher", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(nil)

		it := controller.BuildIterator(nil, 0, caplena.ProjectSchema)

		_, err := it.Next()
		assert.ErrorIs(t, err, caplena.ErrNilFetcher)

		_, err = it.Collect()
		assert.ErrorIs(t, err, caplena.ErrNilFetcher)
	})
}
