package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/caplena/caplena-go/internal/constants"
	"github.com/caplena/caplena-go/pkg/caplena"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewProjectsCommand creates the projects command group.
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "pj"},
		Short:   "Manage projects",
		Long:    "List, inspect, and delete Caplena projects",
	}

	cmd.AddCommand(newProjectsListCommand())
	cmd.AddCommand(newProjectsGetCommand())
	cmd.AddCommand(newProjectsDeleteCommand())
	cmd.AddCommand(newProjectsRowsCommand())
	cmd.AddCommand(newProjectsAppendCommand())

	return cmd
}

func newProjectsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsListCommand(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", constants.StandardPageLimit, "maximum number of projects to fetch (0 for all)")

	return cmd
}

func runProjectsListCommand(limit int) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	projects, err := client.Projects().List(context.Background(), limit).Collect()
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	return outputObjects(projects, renderProjectTable)
}

func newProjectsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PROJECT_ID",
		Short: "Get project details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsGetCommand(args[0])
		},
	}
}

func runProjectsGetCommand(projectID string) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	project, err := client.Projects().Retrieve(context.Background(), projectID)
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	switch viper.GetString("output") {
	case OutputFormatYAML:
		return StandardYAMLRenderer(project.ToDict())
	default:
		return StandardJSONRenderer(project.ToDict())
	}
}

func newProjectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete PROJECT_ID",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsDeleteCommand(args[0])
		},
	}
}

func runProjectsDeleteCommand(projectID string) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	err = client.Projects().Remove(context.Background(), projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Project %s deleted\n", projectID)

	return nil
}

func newProjectsRowsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rows PROJECT_ID",
		Short: "List the rows of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsRowsCommand(args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", constants.StandardPageLimit, "maximum number of rows to fetch (0 for all)")

	return cmd
}

func runProjectsRowsCommand(projectID string, limit int) error {
	client, err := CreateClient()
	if err != nil {
		return err
	}

	rows, err := client.Projects().ListRows(context.Background(), projectID, limit).Collect()
	if err != nil {
		return fmt.Errorf("failed to list rows: %w", err)
	}

	return outputObjects(rows, renderRowTable)
}

func newProjectsAppendCommand() *cobra.Command {
	var (
		file        string
		batchSize   int
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "append PROJECT_ID",
		Short: "Bulk-append rows to a project",
		Long:  "Read a JSON array of rows from a file and upload it in batches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsAppendCommand(args[0], file, batchSize, concurrency)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON file holding an array of rows")
	cmd.Flags().IntVar(&batchSize, "batch-size", caplena.DefaultRowBatchSize, "rows per request")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "batches in flight at once")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runProjectsAppendCommand(projectID, file string, batchSize, concurrency int) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read rows file: %w", err)
	}

	var rows []map[string]interface{}

	err = json.Unmarshal(data, &rows)
	if err != nil {
		return fmt.Errorf("failed to parse rows file: %w", err)
	}

	client, err := CreateClient()
	if err != nil {
		return err
	}

	appender := caplena.NewBulkAppender(client.Projects(),
		caplena.WithBatchSize(batchSize),
		caplena.WithConcurrency(concurrency))

	results, err := appender.Append(context.Background(), projectID, rows)
	if err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Appended %d rows in %d batches\n", len(rows), len(results))

	return nil
}

func outputObjects(objects []*caplena.Object, renderTable func([]*caplena.Object) error) error {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		return StandardJSONRenderer(exportAll(objects))
	case OutputFormatYAML:
		return StandardYAMLRenderer(exportAll(objects))
	default:
		return renderTable(objects)
	}
}

func exportAll(objects []*caplena.Object) []map[string]interface{} {
	exported := make([]map[string]interface{}, 0, len(objects))
	for _, obj := range objects {
		exported = append(exported, obj.ToDict())
	}

	return exported
}

func renderProjectTable(projects []*caplena.Object) error {
	if len(projects) == 0 {
		_, _ = os.Stdout.WriteString("No projects found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Language", "Upload Status", "Created")

	for _, project := range projects {
		_ = table.Append(project.ID(),
			scalarString(project, "name"),
			scalarString(project, "language"),
			scalarString(project, "upload_status"),
			scalarString(project, "created"))
	}

	_ = table.Render()

	return nil
}

func renderRowTable(rows []*caplena.Object) error {
	if len(rows) == 0 {
		_, _ = os.Stdout.WriteString("No rows found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Created", "Last Modified")

	for _, row := range rows {
		_ = table.Append(row.ID(),
			scalarString(row, "created"),
			scalarString(row, "last_modified"))
	}

	_ = table.Render()

	return nil
}
