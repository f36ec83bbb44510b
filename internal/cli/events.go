package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/deck/internal/ports/primary"
	"github.com/example/deck/internal/wire"
)

// EventsCmd returns the events command
func EventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the task event journal for this project",
		Long: `List journaled task events (created, updated, deleted, moved), newest first.

Examples:
  deck events
  deck events --task 3 --limit 5
  deck events --type updated`,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, _ := cmd.Flags().GetString("task")
			eventType, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")

			adapter, err := wire.TaskAdapter()
			if err != nil {
				return err
			}
			defer wire.Close()
			return adapter.Events(context.Background(), primary.EventFilters{
				TaskID:    taskID,
				EventType: eventType,
				Limit:     limit,
			})
		},
	}

	cmd.Flags().String("task", "", "Filter by task ID")
	cmd.Flags().String("type", "", "Filter by event type")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of events (0 for all)")

	return cmd
}
