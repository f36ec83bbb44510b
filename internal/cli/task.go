package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/deck/internal/ports/primary"
	"github.com/example/deck/internal/wire"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks in the configured provider",
	Long:  "Create, list, show, update, delete and watch tasks through the provider configured in .deck/config.yaml",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		description, _ := cmd.Flags().GetString("description")
		parent, _ := cmd.Flags().GetString("parent")
		tags, _ := cmd.Flags().GetString("tags")

		req := primary.CreateTaskRequest{
			Title:       args[0],
			Description: description,
			ParentID:    parent,
		}
		if tags != "" {
			req.Tags = splitList(tags)
		}
		if raw, _ := cmd.Flags().GetString("priority"); raw != "" {
			priority, err := parsePriorityFlag(raw)
			if err != nil {
				return err
			}
			req.Priority = priority
		}
		if raw, _ := cmd.Flags().GetString("due"); raw != "" {
			due, err := parseDueFlag(raw)
			if err != nil {
				return err
			}
			req.DueDate = &due
		}

		adapter, err := wire.TaskAdapter()
		if err != nil {
			return err
		}
		defer wire.Close()
		return adapter.Create(ctx, req)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		tag, _ := cmd.Flags().GetString("tag")
		parent, _ := cmd.Flags().GetString("parent")

		filters := primary.TaskFilters{Tag: tag, ParentID: parent}
		if raw, _ := cmd.Flags().GetString("status"); raw != "" {
			status, err := parseStatusFlag(raw)
			if err != nil {
				return err
			}
			filters.Status = status
		}

		adapter, err := wire.TaskAdapter()
		if err != nil {
			return err
		}
		defer wire.Close()
		return adapter.List(ctx, filters)
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := wire.TaskAdapter()
		if err != nil {
			return err
		}
		defer wire.Close()
		_, err = adapter.Show(context.Background(), args[0])
		return err
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Update task fields",
	Long: `Update one or more fields of a task. Only the flags you pass are changed.

Examples:
  deck task update 3 --status in-progress
  deck task update 3 --tags ""            # clear tags
  deck task update 3.1 --parent 4 --due 2024-07-01`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}

		adapter, err := wire.TaskAdapter()
		if err != nil {
			return err
		}
		defer wire.Close()
		return adapter.Update(context.Background(), args[0], patch)
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := wire.TaskAdapter()
		if err != nil {
			return err
		}
		defer wire.Close()
		return adapter.Delete(context.Background(), args[0])
	},
}

var taskWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print task changes as the provider reports them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		adapter, err := wire.TaskAdapter()
		if err != nil {
			return err
		}
		defer wire.Close()
		if err := adapter.Watch(ctx); err != nil {
			return fmt.Errorf("failed to watch tasks: %w", err)
		}
		return nil
	},
}

// addUpdateFlags registers the flags read by patchFromFlags.
func addUpdateFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description")
	cmd.Flags().StringP("status", "s", "", "New status")
	cmd.Flags().StringP("priority", "p", "", "New priority (low, medium, high, critical)")
	cmd.Flags().String("parent", "", "New parent task ID (empty to detach)")
	cmd.Flags().String("tags", "", "Comma-separated tags (replaces existing)")
	cmd.Flags().String("depends-on", "", "Comma-separated dependency IDs (replaces existing)")
	cmd.Flags().String("blockers", "", "Comma-separated blocker IDs (replaces existing)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().Float64("estimate", 0, "Estimated hours")
	cmd.Flags().Float64("actual", 0, "Actual hours")
}

func init() {
	// task create flags
	taskCreateCmd.Flags().StringP("description", "d", "", "Task description")
	taskCreateCmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high, critical)")
	taskCreateCmd.Flags().String("parent", "", "Parent task ID")
	taskCreateCmd.Flags().String("tags", "", "Comma-separated tags")
	taskCreateCmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")

	// task list flags
	taskListCmd.Flags().StringP("status", "s", "", "Filter by status")
	taskListCmd.Flags().String("tag", "", "Filter by tag")
	taskListCmd.Flags().String("parent", "", "Filter by parent task ID")

	// task update flags
	addUpdateFlags(taskUpdateCmd)

	// Register subcommands
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskWatchCmd)
}

// TaskCmd returns the task command
func TaskCmd() *cobra.Command {
	return taskCmd
}
