package caplena_test

import (
	"testing"

	"github.com/caplena/caplena-go/pkg/caplena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_JSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes valid body once", func(t *testing.T) {
		t.Parallel()

		resp := caplena.NewResponse(200, "OK", `{"name": "Church history", "count": 3}`, nil)

		body, err := resp.JSON()
		require.NoError(t, err)
		assert.Equal(t, "Church history", body["name"])
		assert.InDelta(t, 3.0, body["count"], 0)

		// Mutating the raw text afterwards must not change the decoded
		// value: parsing happens at most once.
		resp.Text = `{"name": "changed"}`

		again, err := resp.JSON()
		require.NoError(t, err)
		assert.Equal(t, "Church history", again["name"])
	})

	t.Run("empty body yields nil without error", func(t *testing.T) {
		t.Parallel()

		resp := caplena.NewResponse(204, "No Content", "", nil)

		body, err := resp.JSON()
		require.NoError(t, err)
		assert.Nil(t, body)
	})

	t.Run("non-JSON body fails on access, not eagerly", func(t *testing.T) {
		t.Parallel()

		resp := caplena.NewResponse(502, "Bad Gateway", "<html>upstream error</html>", nil)

		_, err := resp.JSON()
		require.Error(t, err)

		// The failure is memoized too.
		_, err = resp.JSON()
		assert.Error(t, err)
	})
}

func TestAPIVersion_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2021-12-01", caplena.Version20211201.String())
	assert.Empty(t, caplena.VersionDefault.String())
}

func TestResponse_String(t *testing.T) {
	t.Parallel()

	resp := caplena.NewResponse(404, "Not Found", `{"detail": "project not found"}`, nil)
	assert.Contains(t, resp.String(), "404")
	assert.Contains(t, resp.String(), "Not Found")
}
