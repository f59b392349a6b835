package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/noah-isme/peer-review-dashboard/internal/bootstrap"
	"github.com/noah-isme/peer-review-dashboard/internal/dto"
	"github.com/noah-isme/peer-review-dashboard/internal/models"
	"github.com/noah-isme/peer-review-dashboard/internal/report"
	"github.com/noah-isme/peer-review-dashboard/internal/service"
)

func newStateCommand(root *rootState) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the cached platform state",
		Long:  `Print the platform state held by the snapshot store without contacting the backend.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, root, func(ctx context.Context, c *bootstrap.Container) error {
				state := c.Sync.Snapshot(ctx)
				if summary {
					printSummary(cmd, state)
					return nil
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(state)
			})
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "Print counts instead of the full state")
	return cmd
}

func newRefreshCommand(root *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the platform state from the backend",
		Long:  `Fetch the platform state from the backend, reconcile upload history and persist it to the snapshot store.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, root, func(ctx context.Context, c *bootstrap.Container) error {
				state, err := c.Sync.RefreshState(ctx)
				if err != nil {
					return fmt.Errorf("refresh failed, snapshot unchanged: %w", err)
				}
				printSummary(cmd, state)
				return nil
			})
		},
	}
}

func newExportCommand(root *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render dashboard reports as PDF",
	}
	cmd.AddCommand(newExportProjectsCommand(root))
	cmd.AddCommand(newExportStudentCommand(root))
	return cmd
}

func newExportProjectsCommand(root *rootState) *cobra.Command {
	var (
		filter dto.ProjectFilter
		out    string
	)

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Export the project list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, root, func(ctx context.Context, c *bootstrap.Container) error {
				if err := c.Validator.Struct(filter); err != nil {
					return fmt.Errorf("invalid filter: %w", err)
				}
				generatedAt := time.Now().UTC()
				state := currentState(ctx, cmd, c)
				lines := report.ProjectExportLines(service.FilterProjects(state.Projects, filter), generatedAt)
				return writeReport(cmd, root.opts.Fs, out, "projects-export-"+generatedAt.Format("20060102-150405"), lines)
			})
		},
	}
	cmd.Flags().StringVar(&filter.Search, "search", "", "Match title or author")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only projects with this status")
	cmd.Flags().StringVar(&filter.Sort, "sort", "", "Sort field (submittedAt, title, author, status, rating)")
	cmd.Flags().StringVar(&filter.Dir, "dir", "", "Sort direction (asc, desc)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to a timestamped name)")
	return cmd
}

func newExportStudentCommand(root *rootState) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "student NAME",
		Short: "Export one student's peer review report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			student := strings.TrimSpace(args[0])
			if student == "" {
				return fmt.Errorf("student name is required")
			}
			return withContainer(cmd, root, func(ctx context.Context, c *bootstrap.Container) error {
				state := currentState(ctx, cmd, c)
				lines := report.StudentReportLines(service.SummarizeStudent(state, student), service.StudentProjects(state, student), time.Now().UTC())
				return writeReport(cmd, root.opts.Fs, out, "student-report", lines)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to student-report.pdf)")
	return cmd
}

func withContainer(cmd *cobra.Command, root *rootState, fn func(ctx context.Context, c *bootstrap.Container) error) error {
	container, err := root.container(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(cmd.Context(), container)
}

// currentState refreshes from the backend and falls back to the snapshot on failure.
func currentState(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container) models.PlatformState {
	state, err := c.Sync.RefreshState(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using cached snapshot\n", err)
		return c.Sync.Snapshot(ctx)
	}
	return state
}

func writeReport(cmd *cobra.Command, fs afero.Fs, out, defaultName string, lines []string) error {
	if strings.TrimSpace(out) == "" {
		out = defaultName
	}
	path := report.Filename(out)

	document, err := report.RenderPDF(lines)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, document, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func printSummary(cmd *cobra.Command, state models.PlatformState) {
	unread := 0
	for _, notification := range state.Notifications {
		if !notification.Read {
			unread++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "projects: %d\nreviews: %d\nnotifications: %d (%d unread)\nactivity: %d\n",
		len(state.Projects), len(state.Reviews), len(state.Notifications), unread, len(state.ActivityTimeline))
}
