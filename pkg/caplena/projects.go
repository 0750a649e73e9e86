package caplena

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// TopicSchema describes one topic of a text-to-analyze column.
var TopicSchema = NewResourceSchema("Topic",
	Field{Name: "label", Mutable: true, Required: true},
	Field{Name: "category", Mutable: true},
	Field{Name: "color", Mutable: true},
	Field{Name: "description", Mutable: true},
	Field{Name: "sentiment_enabled"},
)

// ColumnSchema describes one column of a project.
var ColumnSchema = NewSchema("Column",
	Field{Name: "ref", Required: true},
	Field{Name: "name", Mutable: true, Required: true},
	Field{Name: "type", Required: true},
	Field{Name: "topics", Kind: KindObjectList, Elem: TopicSchema},
)

// ProjectSchema describes a Caplena project.
var ProjectSchema = NewResourceSchema("Project",
	Field{Name: "name", Mutable: true, Required: true},
	Field{Name: "owner"},
	Field{Name: "tags", Mutable: true},
	Field{Name: "upload_status"},
	Field{Name: "language", Required: true},
	Field{Name: "translation_status"},
	Field{Name: "columns", Kind: KindObjectList, Elem: ColumnSchema},
	Field{Name: "created"},
	Field{Name: "last_modified"},
)

// RowCellSchema describes one cell of a project row.
var RowCellSchema = NewSchema("RowCell",
	Field{Name: "ref", Required: true},
	Field{Name: "value", Mutable: true},
)

// RowSchema describes one row of a project.
var RowSchema = NewResourceSchema("Row",
	Field{Name: "created"},
	Field{Name: "last_modified"},
	Field{Name: "columns", Kind: KindObjectList, Elem: RowCellSchema},
)

// ProjectsController issues calls against the projects endpoint family.
type ProjectsController struct {
	*BaseController
}

// NewProjectsController creates a projects controller over a dispatcher.
func NewProjectsController(base *BaseController) *ProjectsController {
	return &ProjectsController{BaseController: base}
}

// Create creates a new project from a request payload and materializes the
// API's representation of it.
func (c *ProjectsController) Create(ctx context.Context, payload map[string]interface{}) (*Object, error) {
	resp, err := c.Post(ctx, "/projects", &CallOptions{JSON: payload})
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return c.BuildResponse(resp, ProjectSchema)
}

// Retrieve fetches one project by identifier.
func (c *ProjectsController) Retrieve(ctx context.Context, id string) (*Object, error) {
	resp, err := c.Get(ctx, "/projects/{id}", &CallOptions{
		PathParams: map[string]string{"id": id},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving project: %w", err)
	}

	return c.BuildResponse(resp, ProjectSchema)
}

// Update persists the project's locally modified fields via PATCH and syncs
// the object with what the API stored, resetting its dirty set.
func (c *ProjectsController) Update(ctx context.Context, project *Object) error {
	dirty := project.Dirty()
	if len(dirty) == 0 {
		return nil
	}

	payload := make(map[string]interface{}, len(dirty))

	for _, name := range dirty {
		value, err := project.Get(name)
		if err != nil {
			return err
		}

		payload[name] = exportValue(value)
	}

	resp, err := c.Patch(ctx, "/projects/{id}", &CallOptions{
		PathParams: map[string]string{"id": project.ID()},
		JSON:       payload,
	})
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}

	body, err := c.jsonOrError(resp)
	if err != nil {
		return err
	}

	return project.RefreshFrom(body)
}

// Remove deletes one project by identifier.
func (c *ProjectsController) Remove(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/projects/{id}", &CallOptions{
		PathParams: map[string]string{"id": id},
	})
	if err != nil {
		return fmt.Errorf("removing project: %w", err)
	}

	return nil
}

// List returns a lazy iterator over all projects, capped at limit items
// when limit > 0.
func (c *ProjectsController) List(ctx context.Context, limit int) *Iterator {
	return c.BuildIterator(func(page int) (*Response, error) {
		return c.Get(ctx, "/projects", &CallOptions{
			QueryParams: url.Values{"page": []string{strconv.Itoa(page)}},
		})
	}, limit, ProjectSchema)
}

// RetrieveRow fetches one row of a project.
func (c *ProjectsController) RetrieveRow(ctx context.Context, projectID, rowID string) (*Object, error) {
	resp, err := c.Get(ctx, "/projects/{project_id}/rows/{row_id}", &CallOptions{
		PathParams: map[string]string{"project_id": projectID, "row_id": rowID},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving row: %w", err)
	}

	return c.BuildResponse(resp, RowSchema)
}

// ListRows returns a lazy iterator over the rows of a project, capped at
// limit items when limit > 0.
func (c *ProjectsController) ListRows(ctx context.Context, projectID string, limit int) *Iterator {
	return c.BuildIterator(func(page int) (*Response, error) {
		return c.Get(ctx, "/projects/{project_id}/rows", &CallOptions{
			PathParams:  map[string]string{"project_id": projectID},
			QueryParams: url.Values{"page": []string{strconv.Itoa(page)}},
		})
	}, limit, RowSchema)
}

// AppendRows bulk-appends rows to a project. The API answers 201 when the
// rows were stored synchronously and 202 when ingestion continues in the
// background; both are accepted and the parsed body is returned as-is.
func (c *ProjectsController) AppendRows(ctx context.Context, projectID string, rows []map[string]interface{}) (map[string]interface{}, error) {
	resp, err := c.Post(ctx, "/projects/{project_id}/rows/bulk", &CallOptions{
		PathParams:   map[string]string{"project_id": projectID},
		JSON:         map[string]interface{}{"rows": rows},
		AllowedCodes: []int{201, 202},
	})
	if err != nil {
		return nil, fmt.Errorf("appending rows: %w", err)
	}

	return c.jsonOrError(resp)
}
