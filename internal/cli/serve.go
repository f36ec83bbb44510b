package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/deck/internal/adapters/taskmaster"
	"github.com/example/deck/internal/adapters/web"
	"github.com/example/deck/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the taskmaster document API",
		Long: `Serve taskmaster documents from the local filesystem over HTTP.

Providers configured with the taskmaster "api" transport read and write
documents through this server instead of touching the filesystem.

Examples:
  deck serve
  deck serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := web.NewServer(taskmaster.NewFileStore(), wire.Logger())
			return server.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "Listen address")

	return cmd
}
