package caplena_test

import (
	"testing"

	"github.com/caplena/caplena-go/pkg/caplena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountSchema = caplena.NewResourceSchema("Account",
	caplena.Field{Name: "name", Mutable: true, Required: true},
	caplena.Field{Name: "plan"},
)

func TestBuildObj(t *testing.T) {
	t.Parallel()

	t.Run("drops unknown fields silently", func(t *testing.T) {
		t.Parallel()

		obj, err := caplena.BuildObj(accountSchema, map[string]interface{}{
			"id":      "r1",
			"name":    "Foo",
			"unknown": 1,
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, map[string]interface{}{"id": "r1", "name": "Foo"}, obj.ToDict())

		_, err = obj.Get("unknown")
		assert.ErrorIs(t, err, caplena.ErrUnknownField)
	})

	t.Run("missing required field fails fast", func(t *testing.T) {
		t.Parallel()

		_, err := caplena.BuildObj(accountSchema, map[string]interface{}{"id": "r1", "plan": "pro"}, nil)

		violation := &caplena.SchemaViolationError{}
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "name", violation.Field)
	})

	t.Run("missing optional field stays unset", func(t *testing.T) {
		t.Parallel()

		obj, err := caplena.BuildObj(accountSchema, map[string]interface{}{"id": "r1", "name": "Foo"}, nil)
		require.NoError(t, err)

		_, err = obj.Get("plan")
		assert.ErrorIs(t, err, caplena.ErrFieldNotSet)
	})

	t.Run("identified schema requires a string id", func(t *testing.T) {
		t.Parallel()

		_, err := caplena.BuildObj(accountSchema, map[string]interface{}{"name": "Foo"}, nil)

		violation := &caplena.SchemaViolationError{}
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "id", violation.Field)
	})

	t.Run("nested field of the wrong shape fails", func(t *testing.T) {
		t.Parallel()

		_, err := caplena.BuildObj(caplena.ProjectSchema, map[string]interface{}{
			"id":       "pj_1",
			"name":     "Survey",
			"language": "en",
			"columns":  "not-a-list",
		}, nil)

		violation := &caplena.SchemaViolationError{}
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "columns", violation.Field)
	})
}

func TestObject_SetAndDirty(t *testing.T) {
	t.Parallel()

	obj, err := caplena.BuildObj(accountSchema, map[string]interface{}{"id": "r1", "name": "Foo", "plan": "pro"}, nil)
	require.NoError(t, err)

	assert.Empty(t, obj.Dirty())

	require.NoError(t, obj.Set("name", "Bar"))
	assert.Equal(t, []string{"name"}, obj.Dirty())

	value, err := obj.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "Bar", value)

	// Writing an immutable field fails and leaves the dirty set unchanged.
	err = obj.Set("plan", "enterprise")

	immutable := &caplena.ImmutableFieldError{}
	require.ErrorAs(t, err, &immutable)
	assert.Equal(t, "plan", immutable.Field)
	assert.Equal(t, []string{"name"}, obj.Dirty())

	// Deleting any declared field is always rejected.
	err = obj.Unset("name")
	assert.ErrorAs(t, err, &immutable)

	err = obj.Set("nope", 1)
	assert.ErrorIs(t, err, caplena.ErrUnknownField)

	obj.ClearDirty()
	assert.Empty(t, obj.Dirty())
}

func TestObject_ControllerPropagation(t *testing.T) {
	t.Parallel()

	raw := map[string]interface{}{
		"id":       "pj_1",
		"name":     "Survey",
		"language": "en",
		"columns": []interface{}{
			map[string]interface{}{
				"ref": "col_1", "name": "NPS", "type": "numerical",
			},
			map[string]interface{}{
				"ref": "col_2", "name": "Why?", "type": "text_to_analyze",
				"topics": []interface{}{
					map[string]interface{}{"id": "cd_1", "label": "price"},
				},
			},
		},
	}

	t.Run("detached object has no controller", func(t *testing.T) {
		t.Parallel()

		obj, err := caplena.BuildObj(caplena.ProjectSchema, raw, nil)
		require.NoError(t, err)

		_, err = obj.Controller()

		detached := &caplena.DetachedObjectError{}
		require.ErrorAs(t, err, &detached)
		assert.Equal(t, "Project", detached.Schema)
	})

	t.Run("attachment propagates through the whole subtree", func(t *testing.T) {
		t.Parallel()

		controller, _ := newTestController(nil)

		obj, err := caplena.BuildObj(caplena.ProjectSchema, raw, controller)
		require.NoError(t, err)

		got, err := obj.Controller()
		require.NoError(t, err)
		assert.Same(t, controller, got)

		columns, err := obj.Get("columns")
		require.NoError(t, err)

		for _, column := range columns.([]*caplena.Object) {
			columnController, err := column.Controller()
			require.NoError(t, err)
			assert.Same(t, controller, columnController)
		}

		// Two levels deep: topics inside the second column.
		topics, err := columns.([]*caplena.Object)[1].Get("topics")
		require.NoError(t, err)

		topicController, err := topics.([]*caplena.Object)[0].Controller()
		require.NoError(t, err)
		assert.Same(t, controller, topicController)
	})
}

func TestObject_ToDict(t *testing.T) {
	t.Parallel()

	obj, err := caplena.BuildObj(caplena.ProjectSchema, map[string]interface{}{
		"id":       "pj_1",
		"name":     "Survey",
		"language": "en",
		"tags":     []interface{}{"q3", "nps"},
		"columns": []interface{}{
			map[string]interface{}{"ref": "col_1", "name": "NPS", "type": "numerical"},
		},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"id":       "pj_1",
		"name":     "Survey",
		"language": "en",
		"tags":     []interface{}{"q3", "nps"},
		"columns": []interface{}{
			map[string]interface{}{"ref": "col_1", "name": "NPS", "type": "numerical"},
		},
	}, obj.ToDict())
}

func TestObject_RefreshFrom(t *testing.T) {
	t.Parallel()

	obj, err := caplena.BuildObj(accountSchema, map[string]interface{}{"id": "r1", "name": "Foo"}, nil)
	require.NoError(t, err)

	require.NoError(t, obj.Set("name", "local change"))
	require.NotEmpty(t, obj.Dirty())

	require.NoError(t, obj.RefreshFrom(map[string]interface{}{"id": "r1", "name": "Persisted", "plan": "pro"}))

	assert.Empty(t, obj.Dirty())

	name, err := obj.GetString("name")
	require.NoError(t, err)
	assert.Equal(t, "Persisted", name)
}

func TestObject_String(t *testing.T) {
	t.Parallel()

	obj, err := caplena.BuildObj(accountSchema, map[string]interface{}{"id": "r1", "name": "Foo"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Account(id=r1)", obj.String())

	cell, err := caplena.BuildObj(caplena.RowCellSchema, map[string]interface{}{"ref": "col_1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "RowCell()", cell.String())
}
